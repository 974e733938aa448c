package database

import (
	"fmt"

	"github.com/nao1215/toggledoc/internal/model"
)

// ChangeKind classifies how a record differs between two snapshots.
type ChangeKind int

const (
	// Added records exist only in the newer snapshot.
	Added ChangeKind = iota
	// Removed records exist only in the older snapshot.
	Removed
	// Changed records have different values.
	Changed
	// Moved records have equal values but a different provenance.
	Moved
)

// String returns the change kind name.
func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	case Moved:
		return "moved"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k ChangeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *ChangeKind) UnmarshalText(text []byte) error {
	for c := Added; c <= Moved; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown change kind %q", text)
}

// Change is one entity that differs between two snapshots.
type Change struct {
	Kind   ChangeKind    `json:"kind"`
	Name   string        `json:"name"`
	Before *model.Record `json:"before,omitempty"`
	After  *model.Record `json:"after,omitempty"`
}

// Diff lists the differences between two sets of records.
// Each list is sorted by entity name.
type Diff struct {
	Added     []Change `json:"added"`
	Removed   []Change `json:"removed"`
	Changed   []Change `json:"changed"`
	Moved     []Change `json:"moved"`
	Unchanged int      `json:"unchanged"`
}

// HasChanges reports whether anything was added, removed, changed or moved.
func (d *Diff) HasChanges() bool {
	return len(d.Added)+len(d.Removed)+len(d.Changed)+len(d.Moved) > 0
}

// All returns every change, grouped by kind.
func (d *Diff) All() []Change {
	all := make([]Change, 0, len(d.Added)+len(d.Removed)+len(d.Changed)+len(d.Moved))
	all = append(all, d.Added...)
	all = append(all, d.Removed...)
	all = append(all, d.Changed...)
	all = append(all, d.Moved...)
	return all
}

// Compare computes the differences from before to after.
func Compare(before, after model.Records) *Diff {
	d := &Diff{}

	for _, name := range after.Names() {
		cur := after[name]
		prev, ok := before[name]
		switch {
		case !ok:
			d.Added = append(d.Added, Change{Kind: Added, Name: name, After: cur})
		case Fingerprint(prev) != Fingerprint(cur):
			d.Changed = append(d.Changed, Change{Kind: Changed, Name: name, Before: prev, After: cur})
		case prev.Provenance != cur.Provenance:
			d.Moved = append(d.Moved, Change{Kind: Moved, Name: name, Before: prev, After: cur})
		default:
			d.Unchanged++
		}
	}

	for _, name := range before.Names() {
		if _, ok := after[name]; !ok {
			d.Removed = append(d.Removed, Change{Kind: Removed, Name: name, Before: before[name]})
		}
	}

	return d
}
