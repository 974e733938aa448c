// Package assembler groups scanned annotations into per-entity records.
//
// The assembler is a small state machine driven by the annotation stream:
//
//	awaitingName --name--> inRecord --name--> inRecord | skippingDuplicate
//	     |                    |           \
//	     +--attribute         |            +--empty name--> skippingUnnamed
//	       (OrphanAttribute)  +--attribute (folded into the open record)
//
// A repeated name keeps its first definition. Attributes that follow the
// repeated name, or a name tag without a value, are dropped until the next
// name tag. A record never spans files: the first annotation of a new file
// closes the open record. Structural problems are collected as diagnostics
// on the result; none of them stops assembly.
package assembler
