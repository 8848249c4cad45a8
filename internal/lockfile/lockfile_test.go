package lockfile

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireRelease(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "omni.lock")
	l, err := Acquire(path)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if l.Path() != path {
		t.Fatalf("path: got=%q, want=%q", l.Path(), path)
	}

	if _, err := Acquire(path); !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("second acquire: got err=%v, want ErrAlreadyLocked", err)
	}

	if err := l.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	l2, err := Acquire(path)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	if err := l2.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing twice is harmless.
	if err := l2.Release(); err != nil {
		t.Fatalf("double release: %v", err)
	}
}

func TestAcquireEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := Acquire(""); err == nil {
		t.Fatal("empty path accepted")
	}
}
