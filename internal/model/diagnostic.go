package model

import (
	"fmt"
	"strings"
)

// Severity is the weight of a diagnostic.
// Callers decide whether a severity fails a build.
type Severity int

const (
	// SeverityWarning marks problems that leave the output usable
	// (an unreadable file, a missing required attribute).
	SeverityWarning Severity = iota

	// SeverityError marks structural errors in the annotations themselves.
	SeverityError
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText decodes a severity name, ignoring case.
func (s *Severity) UnmarshalText(text []byte) error {
	for _, c := range []Severity{SeverityWarning, SeverityError} {
		if strings.EqualFold(c.String(), string(text)) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", text)
}

// DiagnosticKind identifies the class of a diagnostic.
type DiagnosticKind int

const (
	// UnreadableFile is reported when a file cannot be opened or read.
	// The file is skipped and the scan continues.
	UnreadableFile DiagnosticKind = iota

	// OrphanAttribute is reported for an attribute tag with no preceding name tag.
	OrphanAttribute

	// DuplicateName is reported when a name tag repeats an entity name.
	// The first definition is kept.
	DuplicateName

	// MissingRequiredAttribute is reported when a closed record lacks a required tag.
	MissingRequiredAttribute

	// RepeatedAttribute is reported when a single-value tag appears twice in one record.
	// The last value is kept.
	RepeatedAttribute

	// InvalidChoice is reported when a value is not one of the tag's allowed choices.
	InvalidChoice

	// EmptyName is reported for a name tag without a value. The open record
	// is closed and attributes are dropped until the next name tag.
	EmptyName
)

// String returns the name of the diagnostic kind.
func (k DiagnosticKind) String() string {
	switch k {
	case UnreadableFile:
		return "UnreadableFile"
	case OrphanAttribute:
		return "OrphanAttribute"
	case DuplicateName:
		return "DuplicateName"
	case MissingRequiredAttribute:
		return "MissingRequiredAttribute"
	case RepeatedAttribute:
		return "RepeatedAttribute"
	case InvalidChoice:
		return "InvalidChoice"
	case EmptyName:
		return "EmptyName"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the kind by name.
func (k DiagnosticKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *DiagnosticKind) UnmarshalText(text []byte) error {
	for c := UnreadableFile; c <= EmptyName; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown diagnostic kind %q", text)
}

// Severity returns the default severity for the kind.
func (k DiagnosticKind) Severity() Severity {
	switch k {
	case OrphanAttribute, DuplicateName, InvalidChoice, EmptyName:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Diagnostic is a recoverable problem found while scanning or assembling.
// It implements error so the scanner can yield it through an error channel.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Severity Severity       `json:"severity"`

	// Name is the entity the diagnostic refers to, if any.
	Name string `json:"name,omitempty"`

	// Key is the grammar key involved, if any.
	Key string `json:"key,omitempty"`

	// Value is the offending value, if any.
	Value string `json:"value,omitempty"`

	// Position is where the problem was found.
	Position Provenance `json:"position"`

	// Original is the first definition for DuplicateName diagnostics.
	Original *Provenance `json:"original,omitempty"`

	// Err is the underlying I/O error for UnreadableFile diagnostics.
	Err error `json:"-"`
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	switch d.Kind {
	case UnreadableFile:
		return fmt.Sprintf("%s: unreadable file: %v", d.Position.File, d.Err)
	case OrphanAttribute:
		return fmt.Sprintf("%s: attribute %q has no preceding name tag", d.Position, d.Key)
	case DuplicateName:
		return fmt.Sprintf("%s: duplicate name %q (first defined at %s)", d.Position, d.Name, d.Original)
	case MissingRequiredAttribute:
		return fmt.Sprintf("%s: %q is missing required attribute %q", d.Position, d.Name, d.Key)
	case RepeatedAttribute:
		return fmt.Sprintf("%s: attribute %q repeated in %q, last value kept", d.Position, d.Key, d.Name)
	case InvalidChoice:
		return fmt.Sprintf("%s: %q is not a valid choice for %q in %q", d.Position, d.Value, d.Key, d.Name)
	case EmptyName:
		return fmt.Sprintf("%s: name tag %q has no value", d.Position, d.Key)
	default:
		return fmt.Sprintf("%s: %s", d.Position, d.Kind)
	}
}

// Unwrap returns the underlying error.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

func newDiagnostic(kind DiagnosticKind, position Provenance) *Diagnostic {
	return &Diagnostic{
		Kind:     kind,
		Severity: kind.Severity(),
		Position: position,
	}
}

// NewUnreadableFile reports a file that could not be read.
func NewUnreadableFile(file string, err error) *Diagnostic {
	d := newDiagnostic(UnreadableFile, Provenance{File: file})
	d.Err = err
	return d
}

// NewOrphanAttribute reports an attribute found before any name tag.
func NewOrphanAttribute(a RawAnnotation) *Diagnostic {
	d := newDiagnostic(OrphanAttribute, a.Position())
	d.Key = a.Key
	d.Value = a.Value
	return d
}

// NewDuplicateName reports a name tag whose entity already exists.
func NewDuplicateName(a RawAnnotation, original Provenance) *Diagnostic {
	d := newDiagnostic(DuplicateName, a.Position())
	d.Name = a.Value
	d.Key = a.Key
	d.Original = &original
	return d
}

// NewMissingRequiredAttribute reports a record that lacks key.
func NewMissingRequiredAttribute(r *Record, key string) *Diagnostic {
	d := newDiagnostic(MissingRequiredAttribute, r.Provenance)
	d.Name = r.Name
	d.Key = key
	return d
}

// NewRepeatedAttribute reports a second occurrence of a single-value tag.
func NewRepeatedAttribute(a RawAnnotation, name string) *Diagnostic {
	d := newDiagnostic(RepeatedAttribute, a.Position())
	d.Name = name
	d.Key = a.Key
	d.Value = a.Value
	return d
}

// NewInvalidChoice reports a value outside the tag's allowed choices.
func NewInvalidChoice(a RawAnnotation, name, value string) *Diagnostic {
	d := newDiagnostic(InvalidChoice, a.Position())
	d.Name = name
	d.Key = a.Key
	d.Value = value
	return d
}

// NewEmptyName reports a name tag without a value.
func NewEmptyName(a RawAnnotation) *Diagnostic {
	d := newDiagnostic(EmptyName, a.Position())
	d.Key = a.Key
	return d
}
