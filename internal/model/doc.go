// Package model defines the data structures shared by the scanner, the
// assembler and the report writers.
//
// This package contains the following main types:
//   - RawAnnotation: one matched annotation line with its position
//   - Record: all annotation values that belong to one named entity
//   - Diagnostic: a recoverable structural problem found during a scan
//   - Result: the records and diagnostics produced for one annotation kind
//
// Records and diagnostics are serializable to JSON for report output and
// snapshot storage.
package model
