package model

import "time"

// Result holds everything produced by one scan of one annotation kind.
type Result struct {
	// Kind is the annotation kind (e.g. "featuretoggle").
	Kind string `json:"kind"`

	// Root is the scanned source path.
	Root string `json:"root,omitempty"`

	// DateScanned is when the scan started.
	DateScanned time.Time `json:"date_scanned"`

	// Records maps entity names to their assembled records.
	Records Records `json:"records"`

	// Diagnostics lists the problems found, in discovery order.
	Diagnostics []*Diagnostic `json:"diagnostics,omitempty"`

	// AnnotationsFound counts every annotation line seen by the assembler.
	AnnotationsFound int `json:"annotations_found"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Err is the fatal error that stopped the scan, if any.
	Err error `json:"-"`

	// ErrorMessage is Err rendered for JSON output.
	ErrorMessage string `json:"error,omitempty"`
}

// NewResult creates an empty result for kind.
func NewResult(kind string) *Result {
	return &Result{
		Kind:        kind,
		DateScanned: time.Now(),
		Records:     make(Records),
	}
}

// AddDiagnostic appends a diagnostic.
func (r *Result) AddDiagnostic(d *Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// SetError records the fatal error that stopped the scan.
func (r *Result) SetError(err error) {
	r.Err = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// DiagnosticsOf returns the diagnostics of the given kind.
func (r *Result) DiagnosticsOf(kind DiagnosticKind) []*Diagnostic {
	var out []*Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// ErrorCount returns the number of error-severity diagnostics.
func (r *Result) ErrorCount() int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-severity diagnostics.
func (r *Result) WarningCount() int {
	return len(r.Diagnostics) - r.ErrorCount()
}

// HasErrors reports whether the scan failed or produced error diagnostics.
func (r *Result) HasErrors() bool {
	return r.Err != nil || r.ErrorCount() > 0
}
