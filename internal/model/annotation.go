package model

// RawAnnotation is one annotation line matched by the scanner.
// Values are produced in scan order and never mutated afterwards.
type RawAnnotation struct {
	// Key is the grammar key of the matched tag (e.g. "name", "default").
	Key string `json:"key"`

	// Token is the literal tag token as written in the source (e.g. ".. toggle_name:").
	Token string `json:"token"`

	// Value is the remainder of the line after the token, trimmed.
	Value string `json:"value"`

	// File is the slash-separated path of the source file, relative to the scan root.
	File string `json:"file"`

	// Line is the 1-based line number of the annotation.
	Line int `json:"line"`
}

// Position returns the location of the annotation.
func (a RawAnnotation) Position() Provenance {
	return Provenance{File: a.File, Line: a.Line}
}
