// Package executor defines the provider executor contract: an executor
// turns a conversation context plus new input into a response. The store
// never inspects how a response was produced; provider identity travels as
// an opaque string stored per message.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/omnichat/omni/internal/entity"
)

// Executor produces a response given prior conversation context.
type Executor interface {
	// Name is the provider identifier recorded on messages this executor
	// produces, e.g. "claude".
	Name() string
	// Invoke sends the context and new input to the backend and returns
	// the response text. Cancellation via ctx must abort the call.
	Invoke(ctx context.Context, history []entity.Message, input string) (string, error)
}

// Failure wraps any provider call error. Multi-step store operations treat
// it as all-or-nothing: on Failure nothing is persisted.
type Failure struct {
	Provider string
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("executor %s: %v", f.Provider, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fail wraps err as a Failure for the named provider.
func Fail(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &Failure{Provider: provider, Err: err}
}

// defaultPriority orders providers when no default is configured.
var defaultPriority = []string{"claude", "codex", "gemini"}

// Registry maps provider identifiers to executors.
type Registry struct {
	mu sync.Mutex
	m  map[string]Executor
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Executor)}
}

func (r *Registry) Register(e Executor) error {
	if r == nil || e == nil {
		return errors.New("nil registry or executor")
	}
	name := strings.TrimSpace(e.Name())
	if name == "" {
		return errors.New("executor has empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[name] = e
	return nil
}

// Get returns the executor for a provider identifier.
func (r *Registry) Get(name string) (Executor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.m[strings.TrimSpace(name)]
	return e, ok
}

// Names returns the registered provider identifiers, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.m))
	for name := range r.m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default picks the default provider: claude, then codex, then gemini,
// then the first registered name alphabetically.
func (r *Registry) Default() string {
	if r == nil {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range defaultPriority {
		if _, ok := r.m[name]; ok {
			return name
		}
	}
	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return names[0]
}
