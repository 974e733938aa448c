package model

import (
	"errors"
	"testing"
)

// TestResultCounts tests diagnostic counting.
func TestResultCounts(t *testing.T) {
	t.Parallel()

	t.Run("empty result has no errors", func(t *testing.T) {
		t.Parallel()

		r := NewResult("featuretoggle")
		if r.HasErrors() {
			t.Error("expected no errors")
		}
		if r.Records == nil {
			t.Error("expected records map to be initialized")
		}
	})

	t.Run("counts by severity", func(t *testing.T) {
		t.Parallel()

		r := NewResult("featuretoggle")
		r.AddDiagnostic(NewUnreadableFile("a.py", errors.New("boom")))
		r.AddDiagnostic(NewOrphanAttribute(RawAnnotation{Key: "default", File: "a.py", Line: 1}))
		r.AddDiagnostic(NewOrphanAttribute(RawAnnotation{Key: "warning", File: "a.py", Line: 2}))

		if r.ErrorCount() != 2 {
			t.Errorf("expected 2 errors, got %d", r.ErrorCount())
		}
		if r.WarningCount() != 1 {
			t.Errorf("expected 1 warning, got %d", r.WarningCount())
		}
		if !r.HasErrors() {
			t.Error("expected HasErrors to be true")
		}
		if got := len(r.DiagnosticsOf(OrphanAttribute)); got != 2 {
			t.Errorf("expected 2 orphan diagnostics, got %d", got)
		}
	})

	t.Run("fatal error counts as failure", func(t *testing.T) {
		t.Parallel()

		r := NewResult("featuretoggle")
		r.SetError(errors.New("root path is not readable"))
		if !r.HasErrors() {
			t.Error("expected HasErrors to be true")
		}
		if r.ErrorMessage != "root path is not readable" {
			t.Errorf("unexpected error message %q", r.ErrorMessage)
		}
	})
}
