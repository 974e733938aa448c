package assembler

import (
	"errors"
	"io/fs"
	"reflect"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/nao1215/toggledoc/internal/annotation"
	"github.com/nao1215/toggledoc/internal/model"
	"github.com/nao1215/toggledoc/internal/scanner"
)

func featureToggles(t *testing.T) *annotation.Config {
	t.Helper()

	cfg, err := annotation.Builtin("featuretoggle")
	if err != nil {
		t.Fatalf("failed to load grammar: %v", err)
	}
	return cfg
}

func ann(key, value string, line int) model.RawAnnotation {
	return model.RawAnnotation{Key: key, Value: value, File: "toggles.py", Line: line}
}

func kinds(r *model.Result) []model.DiagnosticKind {
	out := make([]model.DiagnosticKind, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		out = append(out, d.Kind)
	}
	return out
}

// TestAssembleWellFormed tests one record per name with last single values.
func TestAssembleWellFormed(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("name", "ENABLE_X", 2),
		ann("default", "False", 3),
		ann("description", "enables X", 4),
		ann("use_cases", "temporary", 5),
		ann("use_cases", "open_edx", 6),
		ann("name", "ENABLE_Y", 10),
		ann("default", "True", 11),
		ann("description", "enables Y", 12),
	})

	if len(result.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", result.Diagnostics)
	}
	if result.AnnotationsFound != 8 {
		t.Errorf("expected 8 annotations, got %d", result.AnnotationsFound)
	}
	if got := result.Records.Names(); !reflect.DeepEqual(got, []string{"ENABLE_X", "ENABLE_Y"}) {
		t.Fatalf("unexpected records %v", got)
	}

	x := result.Records["ENABLE_X"]
	want := map[string][]string{
		"default":     {"False"},
		"description": {"enables X"},
		"use_cases":   {"temporary", "open_edx"},
	}
	if !reflect.DeepEqual(x.Values, want) {
		t.Errorf("expected %v, got %v", want, x.Values)
	}
	if x.Provenance != (model.Provenance{File: "toggles.py", Line: 2}) {
		t.Errorf("unexpected provenance %s", x.Provenance)
	}

	y := result.Records["ENABLE_Y"]
	if got, _ := y.Get("default"); got != "True" {
		t.Errorf("expected ENABLE_Y default True, got %q", got)
	}
	if y.Has("use_cases") {
		t.Error("attributes leaked into the next record")
	}
}

// TestAssembleOrphan tests attributes before the first name tag.
func TestAssembleOrphan(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("default", "True", 1),
		ann("name", "ENABLE_X", 2),
		ann("default", "False", 3),
		ann("description", "enables X", 4),
	})

	orphans := result.DiagnosticsOf(model.OrphanAttribute)
	if len(orphans) != 1 {
		t.Fatalf("expected one OrphanAttribute, got %v", result.Diagnostics)
	}
	if orphans[0].Position.Line != 1 || orphans[0].Key != "default" {
		t.Errorf("unexpected orphan diagnostic %+v", orphans[0])
	}
	if got, _ := result.Records["ENABLE_X"].Get("default"); got != "False" {
		t.Errorf("orphan value leaked into record: %q", got)
	}
	if len(result.DiagnosticsOf(model.RepeatedAttribute)) != 0 {
		t.Error("orphan must not count as a repeat")
	}
}

// TestAssembleDuplicate tests first-wins handling of repeated names.
func TestAssembleDuplicate(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("name", "ENABLE_X", 2),
		ann("default", "False", 3),
		ann("description", "enables X", 4),
		ann("name", "ENABLE_X", 10),
		ann("default", "True", 11),
		ann("description", "overrides X", 12),
		ann("warning", "dropped", 13),
		ann("name", "ENABLE_Z", 20),
		ann("default", "False", 21),
		ann("description", "enables Z", 22),
	})

	dups := result.DiagnosticsOf(model.DuplicateName)
	if len(dups) != 1 {
		t.Fatalf("expected one DuplicateName, got %v", result.Diagnostics)
	}
	d := dups[0]
	if d.Name != "ENABLE_X" || d.Position.Line != 10 || d.Original == nil || d.Original.Line != 2 {
		t.Errorf("unexpected duplicate diagnostic %+v", d)
	}

	x := result.Records["ENABLE_X"]
	if x.Provenance.Line != 2 {
		t.Errorf("expected first provenance, got %s", x.Provenance)
	}
	want := map[string][]string{"default": {"False"}, "description": {"enables X"}}
	if !reflect.DeepEqual(x.Values, want) {
		t.Errorf("expected values from lines 2-4 only, got %v", x.Values)
	}
	if len(result.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(result.Records))
	}
	if got, _ := result.Records["ENABLE_Z"].Get("description"); got != "enables Z" {
		t.Errorf("assembly did not recover after duplicate: %q", got)
	}
	if len(result.Diagnostics) != 1 {
		t.Errorf("expected only the duplicate diagnostic, got %v", kinds(result))
	}
}

// TestAssembleRepeatedAttribute tests that a repeated single value overwrites and warns.
func TestAssembleRepeatedAttribute(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("name", "ENABLE_X", 1),
		ann("default", "False", 2),
		ann("description", "first", 3),
		ann("description", "second", 4),
	})

	if got, _ := result.Records["ENABLE_X"].Get("description"); got != "second" {
		t.Errorf("expected last value to win, got %q", got)
	}
	repeats := result.DiagnosticsOf(model.RepeatedAttribute)
	if len(repeats) != 1 || repeats[0].Position.Line != 4 || repeats[0].Severity != model.SeverityWarning {
		t.Errorf("expected one RepeatedAttribute warning at line 4, got %v", result.Diagnostics)
	}
}

// TestAssembleMissingRequired tests checks made when a record closes.
func TestAssembleMissingRequired(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("name", "ENABLE_X", 1),
		ann("description", "no default", 2),
		ann("name", "ENABLE_Y", 5),
	})

	want := []model.DiagnosticKind{model.MissingRequiredAttribute, model.MissingRequiredAttribute, model.MissingRequiredAttribute}
	if got := kinds(result); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	var got []string
	for _, d := range result.Diagnostics {
		got = append(got, d.Name+"."+d.Key)
	}
	wantKeys := []string{"ENABLE_X.default", "ENABLE_Y.default", "ENABLE_Y.description"}
	if !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("expected %v, got %v", wantKeys, got)
	}
	if result.HasErrors() {
		t.Error("missing attributes must not be errors")
	}
}

// TestAssembleChoices tests validation of tags with allowed values.
func TestAssembleChoices(t *testing.T) {
	t.Parallel()

	result := New(featureToggles(t)).AssembleSlice([]model.RawAnnotation{
		ann("name", "ENABLE_X", 1),
		ann("default", "False", 2),
		ann("description", "x", 3),
		ann("use_cases", "temporary, forever", 4),
		ann("implementation", "WaffleFlag", 5),
		ann("use_cases", "n/a", 6),
	})

	invalid := result.DiagnosticsOf(model.InvalidChoice)
	if len(invalid) != 1 || invalid[0].Value != "forever" {
		t.Fatalf("expected one InvalidChoice for forever, got %v", result.Diagnostics)
	}
	if got := result.Records["ENABLE_X"].List("use_cases"); !reflect.DeepEqual(got, []string{"temporary, forever", "n/a"}) {
		t.Errorf("invalid values must be kept, got %v", got)
	}
}

// TestAssembleScannerErrors tests diagnostics and fatal errors from the sequence.
func TestAssembleScannerErrors(t *testing.T) {
	t.Parallel()

	t.Run("diagnostics are accumulated", func(t *testing.T) {
		t.Parallel()

		seq := func(yield func(model.RawAnnotation, error) bool) {
			if !yield(ann("name", "ENABLE_X", 1), nil) {
				return
			}
			if !yield(model.RawAnnotation{}, model.NewUnreadableFile("b.py", fs.ErrPermission)) {
				return
			}
			yield(ann("default", "False", 2), nil)
		}

		result, err := New(featureToggles(t)).Assemble(seq)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.DiagnosticsOf(model.UnreadableFile)) != 1 {
			t.Errorf("expected UnreadableFile diagnostic, got %v", result.Diagnostics)
		}
		if !result.Records["ENABLE_X"].Has("default") {
			t.Error("diagnostic must not close the open record")
		}
	})

	t.Run("fatal error stops assembly", func(t *testing.T) {
		t.Parallel()

		seq := func(yield func(model.RawAnnotation, error) bool) {
			yield(model.RawAnnotation{}, scanner.ErrRootUnreadable)
		}

		result, err := New(featureToggles(t)).Assemble(seq)
		if !errors.Is(err, scanner.ErrRootUnreadable) {
			t.Errorf("expected ErrRootUnreadable, got %v", err)
		}
		if result != nil {
			t.Error("expected nil result")
		}
	})
}

// TestAssembleFromTree tests the scanner and assembler together on source files.
func TestAssembleFromTree(t *testing.T) {
	t.Parallel()

	source := strings.Join([]string{
		"from waffle import WaffleFlag",
		"# .. toggle_name: ENABLE_X",
		"# .. toggle_default: False",
		"# .. toggle_description: enables X",
		"ENABLE_X = WaffleFlag('x')",
		"",
		"",
		"",
		"",
		"# .. toggle_name: ENABLE_X",
		"# .. toggle_default: True",
		"# .. toggle_description: duplicate",
		"",
	}, "\n")

	mfs := memfs.New()
	if err := util.WriteFile(mfs, "toggles.py", []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cfg := featureToggles(t)
	result, err := New(cfg).Assemble(scanner.New(mfs, cfg).Walk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	x, ok := result.Records["ENABLE_X"]
	if !ok {
		t.Fatal("expected ENABLE_X record")
	}
	if x.Provenance != (model.Provenance{File: "toggles.py", Line: 2}) {
		t.Errorf("unexpected provenance %s", x.Provenance)
	}
	want := map[string][]string{"default": {"False"}, "description": {"enables X"}}
	if !reflect.DeepEqual(x.Values, want) {
		t.Errorf("expected %v, got %v", want, x.Values)
	}

	dups := result.DiagnosticsOf(model.DuplicateName)
	if len(dups) != 1 || dups[0].Position.Line != 10 || dups[0].Original.Line != 2 {
		t.Errorf("expected DuplicateName at 10 (original 2), got %v", result.Diagnostics)
	}

	t.Run("assembly is deterministic", func(t *testing.T) {
		t.Parallel()

		again, err := New(cfg).Assemble(scanner.New(mfs, cfg).Walk())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(again.Records, result.Records) {
			t.Error("records differ between runs")
		}
		if !reflect.DeepEqual(kinds(again), kinds(result)) {
			t.Error("diagnostics differ between runs")
		}
	})
}

// TestAssembleFileBoundary tests that a record never picks up attributes
// from the next file.
func TestAssembleFileBoundary(t *testing.T) {
	t.Parallel()

	mfs := memfs.New()
	files := map[string]string{
		"a.py": "# .. toggle_name: ENABLE_A\n# .. toggle_default: False\n# .. toggle_description: a\n",
		"b.py": "# .. toggle_default: True\n# .. toggle_description: stray in b\n",
	}
	for name, content := range files {
		if err := util.WriteFile(mfs, name, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	cfg := featureToggles(t)
	result, err := New(cfg).Assemble(scanner.New(mfs, cfg).Walk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string][]string{"default": {"False"}, "description": {"a"}}
	if got := result.Records["ENABLE_A"].Values; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	orphans := result.DiagnosticsOf(model.OrphanAttribute)
	if len(orphans) != 2 || orphans[0].Position.File != "b.py" {
		t.Errorf("expected two orphans in b.py, got %v", result.Diagnostics)
	}
	if len(result.DiagnosticsOf(model.RepeatedAttribute)) != 0 {
		t.Errorf("expected no repeats, got %v", result.Diagnostics)
	}

	t.Run("duplicate skipping ends with the file", func(t *testing.T) {
		t.Parallel()

		result := New(cfg).AssembleSlice([]model.RawAnnotation{
			ann("name", "ENABLE_A", 1),
			ann("name", "ENABLE_A", 5),
			{Key: "default", Value: "True", File: "z.py", Line: 1},
		})
		if len(result.DiagnosticsOf(model.OrphanAttribute)) != 1 {
			t.Errorf("expected an orphan in z.py, got %v", result.Diagnostics)
		}
	})
}

// TestAssembleEmptyName tests that a name tag without a value closes the
// open record and drops the attributes that follow it.
func TestAssembleEmptyName(t *testing.T) {
	t.Parallel()

	source := strings.Join([]string{
		"# .. toggle_name: ENABLE_A",
		"# .. toggle_default: False",
		"# .. toggle_description: a",
		"# .. toggle_name:",
		"# .. toggle_default: True",
		"# .. toggle_description: other toggle",
		"# .. toggle_name: ENABLE_B",
		"# .. toggle_default: True",
		"# .. toggle_description: b",
		"",
	}, "\n")

	mfs := memfs.New()
	if err := util.WriteFile(mfs, "toggles.py", []byte(source), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	cfg := featureToggles(t)
	result, err := New(cfg).Assemble(scanner.New(mfs, cfg).Walk())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := result.Records.Names(); !reflect.DeepEqual(got, []string{"ENABLE_A", "ENABLE_B"}) {
		t.Fatalf("unexpected records %v", got)
	}
	want := map[string][]string{"default": {"False"}, "description": {"a"}}
	if got := result.Records["ENABLE_A"].Values; !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	empty := result.DiagnosticsOf(model.EmptyName)
	if len(empty) != 1 || empty[0].Position.Line != 4 {
		t.Errorf("expected EmptyName at line 4, got %v", result.Diagnostics)
	}
	if !reflect.DeepEqual(kinds(result), []model.DiagnosticKind{model.EmptyName}) {
		t.Errorf("expected only EmptyName, got %v", kinds(result))
	}
}

// TestRoundTrip tests that formatting a record and scanning it back is lossless.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := featureToggles(t)

	original := model.NewRecord("Foo", model.Provenance{File: "foo.py", Line: 1})
	original.Set("default", "False")
	original.Set("description", "bar")
	original.Set("warning", "careful with Foo")
	original.Append("use_cases", "temporary", "vip")
	original.Append("implementation", "WaffleFlag")

	for _, prefix := range []string{"#", "//", ""} {
		t.Run("prefix "+prefix, func(t *testing.T) {
			t.Parallel()

			mfs := memfs.New()
			source := strings.Join(cfg.Format(original, prefix), "\n") + "\n"
			if err := util.WriteFile(mfs, "foo.py", []byte(source), 0o644); err != nil {
				t.Fatalf("failed to write file: %v", err)
			}

			result, err := New(cfg).Assemble(scanner.New(mfs, cfg).Walk())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result.Diagnostics) != 0 {
				t.Errorf("expected no diagnostics, got %v", result.Diagnostics)
			}
			if !reflect.DeepEqual(result.Records["Foo"], original) {
				t.Errorf("expected %+v, got %+v", original, result.Records["Foo"])
			}
		})
	}
}

// TestSplitChoices tests list splitting.
func TestSplitChoices(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value    string
		expected []string
	}{
		{"temporary", []string{"temporary"}},
		{"temporary, open_edx", []string{"temporary", "open_edx"}},
		{"temporary,open_edx vip", []string{"temporary", "open_edx", "vip"}},
		{" , ", []string{}},
	}

	for _, tc := range testCases {
		got := SplitChoices(tc.value)
		if len(got) == 0 && len(tc.expected) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("SplitChoices(%q) = %v, expected %v", tc.value, got, tc.expected)
		}
	}
}
