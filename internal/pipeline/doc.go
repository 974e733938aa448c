// Package pipeline runs the steps that turn a source tree into a result for
// one annotation kind: assemble (scan and group records), then optionally
// check and snapshot.
//
// Each kind gets its own pipeline, scanner and assembler. The batch
// processor runs several kinds concurrently with errgroup; a single kind is
// never split across goroutines, so the scan order the assembler depends on
// is preserved.
package pipeline
