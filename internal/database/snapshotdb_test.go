package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nao1215/toggledoc/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *SnapshotDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newResult(kind string, records ...*model.Record) *model.Result {
	r := model.NewResult(kind)
	for _, rec := range records {
		r.Records[rec.Name] = rec
	}
	return r
}

func record(name, file string, line int, kv ...string) *model.Record {
	rec := model.NewRecord(name, model.Provenance{File: file, Line: line})
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Append(kv[i], kv[i+1])
	}
	return rec
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		_ = db.Close()

		db, err = Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

// TestDefaultOptions tests the default option values.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists || !opts.EnableWAL {
		t.Errorf("unexpected defaults %+v", opts)
	}
}

// TestSaveAndGetSnapshot tests storing and loading records.
func TestSaveAndGetSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round trips records", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		result := newResult("featuretoggle",
			record("ENABLE_X", "toggles.py", 2, "default", "False", "use_cases", "temporary", "use_cases", "vip"),
			record("ENABLE_Y", "lms/toggles.py", 10, "default", "True"),
		)
		result.AddDiagnostic(model.NewOrphanAttribute(model.RawAnnotation{Key: "default", File: "a.py", Line: 1}))

		id, err := db.SaveSnapshot(ctx, "abc123", "/src", result)
		if err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if id == 0 {
			t.Error("expected non-zero id")
		}

		snap, err := db.GetSnapshot(ctx, "featuretoggle", "abc123")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if snap == nil {
			t.Fatal("expected snapshot")
		}
		if snap.Source != "/src" || snap.RecordCount != 2 || snap.DiagnosticCount != 1 || snap.ErrorCount != 1 {
			t.Errorf("unexpected snapshot metadata %+v", snap)
		}
		if !reflect.DeepEqual(snap.Records, result.Records) {
			t.Errorf("records differ:\nexpected %+v\ngot %+v", result.Records, snap.Records)
		}
	})

	t.Run("saving again replaces the snapshot", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if _, err := db.SaveSnapshot(ctx, "abc123", "", newResult("featuretoggle",
			record("OLD", "a.py", 1),
		)); err != nil {
			t.Fatalf("failed to save snapshot: %v", err)
		}
		if _, err := db.SaveSnapshot(ctx, "abc123", "", newResult("featuretoggle",
			record("NEW", "a.py", 1),
		)); err != nil {
			t.Fatalf("failed to save snapshot again: %v", err)
		}

		snap, err := db.GetSnapshot(ctx, "featuretoggle", "abc123")
		if err != nil {
			t.Fatalf("failed to get snapshot: %v", err)
		}
		if got := snap.Records.Names(); !reflect.DeepEqual(got, []string{"NEW"}) {
			t.Errorf("expected only NEW, got %v", got)
		}

		list, err := db.ListSnapshots(ctx, "featuretoggle")
		if err != nil {
			t.Fatalf("failed to list snapshots: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("expected one snapshot, got %d", len(list))
		}
	})

	t.Run("returns nil for non-existent snapshot", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		snap, err := db.GetSnapshot(ctx, "featuretoggle", "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap != nil {
			t.Error("expected nil snapshot")
		}
	})
}

// TestListSnapshots tests listing by kind.
func TestListSnapshots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	for _, rev := range []string{"r1", "r2", "r3"} {
		if _, err := db.SaveSnapshot(ctx, rev, "", newResult("featuretoggle", record("X", "a.py", 1))); err != nil {
			t.Fatalf("failed to save %s: %v", rev, err)
		}
	}
	if _, err := db.SaveSnapshot(ctx, "r1", "", newResult("setting")); err != nil {
		t.Fatalf("failed to save setting snapshot: %v", err)
	}

	list, err := db.ListSnapshots(ctx, "featuretoggle")
	if err != nil {
		t.Fatalf("failed to list snapshots: %v", err)
	}
	var revisions []string
	for _, s := range list {
		revisions = append(revisions, s.Revision)
		if s.Records != nil {
			t.Error("ListSnapshots must not load records")
		}
	}
	if !reflect.DeepEqual(revisions, []string{"r3", "r2", "r1"}) {
		t.Errorf("expected newest first, got %v", revisions)
	}

	kinds, err := db.ListKinds(ctx)
	if err != nil {
		t.Fatalf("failed to list kinds: %v", err)
	}
	if !reflect.DeepEqual(kinds, []string{"featuretoggle", "setting"}) {
		t.Errorf("unexpected kinds %v", kinds)
	}

	deleted, err := db.DeleteSnapshot(ctx, "featuretoggle", "r2")
	if err != nil || !deleted {
		t.Fatalf("expected r2 to be deleted, got %v (err=%v)", deleted, err)
	}
	deleted, err = db.DeleteSnapshot(ctx, "featuretoggle", "r2")
	if err != nil || deleted {
		t.Errorf("expected second delete to be a no-op, got %v (err=%v)", deleted, err)
	}
}

// TestFingerprint tests that only values affect the fingerprint.
func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := record("X", "a.py", 1, "default", "False")
	moved := record("X", "b.py", 9, "default", "False")
	changed := record("X", "a.py", 1, "default", "True")

	if Fingerprint(a) != Fingerprint(moved) {
		t.Error("provenance must not change the fingerprint")
	}
	if Fingerprint(a) == Fingerprint(changed) {
		t.Error("values must change the fingerprint")
	}
	if len(Fingerprint(a)) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(Fingerprint(a)))
	}
}
