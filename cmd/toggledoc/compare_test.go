package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/nao1215/toggledoc/internal/report"
)

const newToggle = `# .. toggle_name: NEW_TOGGLE
# .. toggle_default: True
# .. toggle_description: Added in the second release.
`

// saveSnapshots renders two revisions of a tree into a new database and
// returns the database directory.
func saveSnapshots(t *testing.T) string {
	t.Helper()

	dbDir := t.TempDir()
	revisions := []struct {
		revision string
		content  string
	}{
		{"v1", dashboardToggle},
		{"v2", dashboardToggle + newToggle},
	}
	for _, r := range revisions {
		dir := writeTree(t, map[string]string{"toggles.py": r.content})
		args := []string{
			"render", dir,
			"--config", testConfig(t),
			"--revision", r.revision,
			"--snapshot",
			"--db-dir", dbDir,
		}
		if _, err := runCLI(t, args...); err != nil {
			t.Fatalf("failed to render %s: %v", r.revision, err)
		}
	}
	return dbDir
}

// TestCompareCmd tests comparing saved snapshots.
func TestCompareCmd(t *testing.T) {
	t.Parallel()

	// Subtests share one database and run in sequence.
	dbDir := saveSnapshots(t)

	compare := func(t *testing.T, args ...string) (string, error) {
		t.Helper()
		args = append([]string{"compare", "--config", testConfig(t), "--db-dir", dbDir}, args...)
		return runCLI(t, args...)
	}

	t.Run("text diff", func(t *testing.T) {
		out, err := compare(t, "v1", "v2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{
			"featuretoggle: v1..v2",
			"+ NEW_TOGGLE (toggles.py:7)",
			"1 added, 0 removed, 0 changed, 0 moved, 1 unchanged",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
	})

	t.Run("reverse diff", func(t *testing.T) {
		out, err := compare(t, "v2", "v1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "- NEW_TOGGLE") {
			t.Errorf("expected removal, got:\n%s", out)
		}
	})

	t.Run("json diff", func(t *testing.T) {
		out, err := compare(t, "--format", "json", "v1", "v2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var diff report.JSONDiff
		if err := json.Unmarshal([]byte(out), &diff); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out)
		}
		if diff.From != "v1" || diff.To != "v2" || len(diff.Diff.Added) != 1 || diff.Diff.Unchanged != 1 {
			t.Errorf("unexpected diff %+v", diff)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		if _, err := compare(t, "--format", "markdown", "v1", "v2"); err == nil {
			t.Error("expected error for markdown diff")
		}
	})

	t.Run("list snapshots", func(t *testing.T) {
		out, err := compare(t, "--list")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "featuretoggle:") || !strings.Contains(out, "v1") || !strings.Contains(out, "v2") {
			t.Errorf("unexpected listing:\n%s", out)
		}
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := compare(t, "v1", "v9")
		if err == nil || !strings.Contains(err.Error(), "snapshot not found") {
			t.Errorf("expected snapshot not found, got %v", err)
		}
	})

	t.Run("requires two revisions", func(t *testing.T) {
		if _, err := compare(t, "v1"); err == nil {
			t.Error("expected argument error")
		}
	})
}

// TestCompareCmdMissingDatabase tests comparing without any saved snapshot.
func TestCompareCmdMissingDatabase(t *testing.T) {
	t.Parallel()

	_, err := runCLI(t, "compare", "--config", testConfig(t), "--db-dir", t.TempDir(), "v1", "v2")
	if err == nil {
		t.Error("expected error for missing database")
	}
}

// TestCompareCmdGrammarFile tests comparing snapshots of a custom grammar
// referenced by its file path.
func TestCompareCmdGrammarFile(t *testing.T) {
	t.Parallel()

	grammar := writeTree(t, map[string]string{"flag.yaml": strings.Join([]string{
		"kind: flag",
		"tags:",
		"  - token: '@flag'",
		"    key: name",
		"    role: name",
		"  - token: '@owner'",
		"    key: owner",
		"",
	}, "\n")}) + "/flag.yaml"

	dbDir := t.TempDir()
	revisions := []struct {
		revision string
		content  string
	}{
		{"v1", "@flag OLD_FLAG\n@owner core\n"},
		{"v2", "@flag OLD_FLAG\n@owner core\n@flag NEW_FLAG\n@owner web\n"},
	}
	for _, r := range revisions {
		dir := writeTree(t, map[string]string{"flags.txt": r.content})
		args := []string{
			"render", dir,
			"--config", testConfig(t),
			"-k", grammar,
			"--revision", r.revision,
			"--snapshot",
			"--db-dir", dbDir,
		}
		if _, err := runCLI(t, args...); err != nil {
			t.Fatalf("failed to render %s: %v", r.revision, err)
		}
	}

	out, err := runCLI(t, "compare", "--config", testConfig(t), "--db-dir", dbDir, "-k", grammar, "v1", "v2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"flag: v1..v2", "+ NEW_FLAG (flags.txt:3)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
