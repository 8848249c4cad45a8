package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "doc.md")
	if err := Create(path, []byte("hello")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(b) != "hello" {
		t.Fatalf("got=%q, want=%q", b, "hello")
	}

	err = Create(path, []byte("again"))
	if err == nil {
		t.Fatal("Create over existing file succeeded")
	}
	if !errors.Is(err, os.ErrExist) {
		t.Fatalf("want exist error, got %v", err)
	}

	// A refused create must not leave temp files next to the target.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("leftover files after refused create: %d entries", len(entries))
	}
}

func TestAppend(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := Create(path, []byte("a")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Append(path, []byte("b")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "ab" {
		t.Fatalf("got=%q, want=%q", b, "ab")
	}

	if err := Append(filepath.Join(t.TempDir(), "missing.md"), []byte("x")); err == nil {
		t.Fatal("Append to missing file succeeded")
	}
}

func TestReplace(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := Replace(path, []byte("v1")); err != nil {
		t.Fatalf("Replace (fresh): %v", err)
	}
	if err := Replace(path, []byte("v2")); err != nil {
		t.Fatalf("Replace (overwrite): %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "v2" {
		t.Fatalf("got=%q, want=%q", b, "v2")
	}

	// No temp files may survive a successful replace.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("leftover files after replace: %d entries", len(entries))
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "doc.md")
	if err := Remove(path); err == nil {
		t.Fatal("Remove of missing file succeeded")
	} else if !IsNotExist(err) {
		t.Fatalf("want not-exist error, got %v", err)
	}
	if err := Create(path, nil); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if Exists(path) {
		t.Fatal("file still exists after Remove")
	}
}
