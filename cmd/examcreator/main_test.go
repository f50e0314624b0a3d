package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pavelanni/examcreator/internal/store"
)

func TestNormalizeBasePath(t *testing.T) {
	tests := map[string]string{
		"":        "",
		"/":       "",
		"exams":   "/exams",
		"/exams/": "/exams",
		" /ru// ": "/ru",
		"/a/b":    "/a/b",
	}
	for in, want := range tests {
		if got := normalizeBasePath(in); got != want {
			t.Errorf("normalizeBasePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSeedAdmin(t *testing.T) {
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if err := seedAdmin(db, ""); err == nil {
		t.Fatal("expected error without a password on an empty database")
	}
	if err := seedAdmin(db, "pw"); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	if err := seedAdmin(db, ""); err != nil {
		t.Fatalf("second seedAdmin should be a no-op: %v", err)
	}
	if n, _ := db.UserCount(); n != 1 {
		t.Errorf("UserCount = %d, want 1", n)
	}
}

func TestLoadClasses(t *testing.T) {
	db, err := store.New(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	path := filepath.Join(t.TempDir(), "classes.json")
	if err := os.WriteFile(path, []byte(`[{"id":"c1","name":"Year 4"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		if err := loadClasses(db, []string{path}); err != nil {
			t.Fatalf("loadClasses: %v", err)
		}
	}
	if n, _ := db.ClassCount(); n != 1 {
		t.Errorf("ClassCount = %d, want 1", n)
	}

	if err := loadClasses(db, []string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("expected error for a missing file")
	}
}
