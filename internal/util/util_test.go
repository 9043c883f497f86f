package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data", "db")

	if DirExists(dir) {
		t.Fatalf("%s should not exist yet", dir)
	}
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if !DirExists(dir) {
		t.Fatalf("%s should exist", dir)
	}
	// Idempotent
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir second call: %v", err)
	}
}

func TestDirExists_File(t *testing.T) {
	file := filepath.Join(t.TempDir(), "scans.db")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if DirExists(file) {
		t.Errorf("a regular file is not a directory")
	}
}
