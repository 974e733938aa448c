package model

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Provenance is the source location where an entity was first declared.
type Provenance struct {
	// File is the slash-separated path relative to the scan root.
	File string `json:"file"`

	// Line is the 1-based line number.
	Line int `json:"line"`
}

// String returns the location in "file:line" form.
func (p Provenance) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// AttrStatus tells a renderer whether an attribute should be displayed.
type AttrStatus int

const (
	// AttrAbsent means the attribute tag never appeared in the record.
	AttrAbsent AttrStatus = iota

	// AttrPresent means the attribute has a displayable value.
	AttrPresent

	// AttrNotApplicable means the author explicitly wrote a "not applicable"
	// sentinel (None, n/a, N/A). Renderers must not display it.
	AttrNotApplicable
)

// String returns a human-readable representation of the status.
func (s AttrStatus) String() string {
	switch s {
	case AttrAbsent:
		return "absent"
	case AttrPresent:
		return "present"
	case AttrNotApplicable:
		return "not_applicable"
	default:
		return "unknown"
	}
}

// notApplicableValues are the values authors use to mark an attribute
// as deliberately empty.
var notApplicableValues = map[string]bool{
	"None": true,
	"n/a":  true,
	"N/A":  true,
}

// IsNotApplicable reports whether v is a "not applicable" sentinel.
func IsNotApplicable(v string) bool {
	return notApplicableValues[strings.TrimSpace(v)]
}

// Attr is the view of one record attribute handed to renderers.
type Attr struct {
	Key    string
	Values []string
	Status AttrStatus
}

// Value returns the attribute values joined with ", ".
// Multi-value attributes keep their file order.
func (a Attr) Value() string {
	return strings.Join(a.Values, ", ")
}

// Displayable reports whether a renderer should show the attribute.
func (a Attr) Displayable() bool {
	return a.Status == AttrPresent
}

// Record is the assembled set of annotation values for one named entity.
//
// Single-value attributes hold exactly one element in Values; multi-value
// attributes hold one element per occurrence in file order. Only the
// assembler mutates a record, and only while it is the open record.
type Record struct {
	// Name is the entity name taken from the grammar's name tag.
	Name string `json:"name"`

	// Provenance is the location of the first name tag for this entity.
	Provenance Provenance `json:"provenance"`

	// Values maps grammar keys to their values. The name key is not stored here.
	Values map[string][]string `json:"values"`
}

// NewRecord creates an empty record opened at the given location.
func NewRecord(name string, provenance Provenance) *Record {
	return &Record{
		Name:       name,
		Provenance: provenance,
		Values:     make(map[string][]string),
	}
}

// Set stores a single value for key, replacing any earlier value.
// It reports whether a value was replaced.
func (r *Record) Set(key, value string) bool {
	_, replaced := r.Values[key]
	r.Values[key] = []string{value}
	return replaced
}

// Append adds values to a multi-value key, preserving order.
func (r *Record) Append(key string, values ...string) {
	r.Values[key] = append(r.Values[key], values...)
}

// Has reports whether key has at least one value.
func (r *Record) Has(key string) bool {
	return len(r.Values[key]) > 0
}

// Get returns the value of key joined with ", " and whether it exists.
func (r *Record) Get(key string) (string, bool) {
	values, ok := r.Values[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ", "), true
}

// List returns a copy of the values stored for key.
func (r *Record) List(key string) []string {
	return slices.Clone(r.Values[key])
}

// Attr returns the renderer view of key.
// An attribute whose every value is a "not applicable" sentinel is reported
// as AttrNotApplicable.
func (r *Record) Attr(key string) Attr {
	values := r.List(key)
	if len(values) == 0 {
		return Attr{Key: key, Status: AttrAbsent}
	}
	for _, v := range values {
		if !IsNotApplicable(v) {
			return Attr{Key: key, Values: values, Status: AttrPresent}
		}
	}
	return Attr{Key: key, Values: values, Status: AttrNotApplicable}
}

// Keys returns the keys with values, sorted.
func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Records maps entity names to their records.
type Records map[string]*Record

// Names returns the entity names in sorted order.
func (rs Records) Names() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns the records ordered by name.
func (rs Records) Sorted() []*Record {
	sorted := make([]*Record, 0, len(rs))
	for _, name := range rs.Names() {
		sorted = append(sorted, rs[name])
	}
	return sorted
}
