// Package database stores snapshots of assembled records in SQLite.
//
// A snapshot holds the records of one annotation kind at one repository
// revision. Records are stored with a fingerprint of their values so that
// two snapshots can be compared without rendering them:
//
//	added    the entity exists only in the newer snapshot
//	removed  the entity exists only in the older snapshot
//	changed  the values differ
//	moved    the values are equal but the declaration moved
//
// The database is a single file (modernc.org/sqlite, no cgo) in the
// toggledoc data directory.
package database
