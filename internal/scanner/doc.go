// Package scanner walks a source tree and extracts annotation lines that
// match a grammar.
//
// The walk is depth-first with directory entries sorted by name at every
// level, so the same tree always produces the same sequence. Annotations are
// emitted in file order, then line order within a file; the assembler relies
// on this to attach attributes to the most recent name tag.
//
// Problems with single files or directories are yielded as
// *model.Diagnostic values and the walk continues. Only failure to read the
// root directory ends the sequence with ErrRootUnreadable.
package scanner
