// Package main provides the entry point for the toggledoc CLI.
//
// toggledoc scans a source tree for feature toggle annotations (and other
// annotation kinds such as settings) and renders them into documentation.
//
// Usage:
//
//	toggledoc render [path]
//	toggledoc check [path]
//	toggledoc template featuretoggle
//
// See --help for all available options.
package main

func main() {
	Execute()
}
