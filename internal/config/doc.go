// Package config loads the host configuration of toggledoc: the tree to
// scan, the annotation kinds, repository link settings and output options.
package config
