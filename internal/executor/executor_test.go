package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/omnichat/omni/internal/entity"
)

type stub struct{ name string }

func (s stub) Name() string { return s.name }
func (s stub) Invoke(ctx context.Context, history []entity.Message, input string) (string, error) {
	return "", nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if err := r.Register(stub{name: "gemini"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(stub{name: "codex"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := r.Get("codex"); !ok {
		t.Fatal("codex not found")
	}
	if _, ok := r.Get("claude"); ok {
		t.Fatal("unregistered provider found")
	}
	names := r.Names()
	if len(names) != 2 || names[0] != "codex" || names[1] != "gemini" {
		t.Fatalf("names: got=%v", names)
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	if got := r.Default(); got != "" {
		t.Fatalf("empty registry default: got=%q", got)
	}
	_ = r.Register(stub{name: "gemini"})
	if got := r.Default(); got != "gemini" {
		t.Fatalf("got=%q, want gemini", got)
	}
	_ = r.Register(stub{name: "codex"})
	if got := r.Default(); got != "codex" {
		t.Fatalf("got=%q, want codex", got)
	}
	_ = r.Register(stub{name: "claude"})
	if got := r.Default(); got != "claude" {
		t.Fatalf("got=%q, want claude", got)
	}
}

func TestFailureWraps(t *testing.T) {
	t.Parallel()

	base := errors.New("connection refused")
	err := Fail("codex", base)
	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("got %T, want *Failure", err)
	}
	if f.Provider != "codex" {
		t.Fatalf("provider: got=%q", f.Provider)
	}
	if !errors.Is(err, base) {
		t.Fatal("Failure does not unwrap to its cause")
	}
	if Fail("codex", nil) != nil {
		t.Fatal("Fail(nil) produced an error")
	}
}
