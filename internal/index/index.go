// Package index is the denormalized metadata cache over the document tree.
//
// It exists to make lookup and listing O(entries-in-scope) without reading
// every document. It is a cache, never an authority: every entry must be
// derivable by rescanning documents, and Reconcile rebuilds it from disk
// treating documents as ground truth. Every mutation is persisted to the
// owning index file before the caller sees success.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/layout"
)

const schemaVersion = 1

// Entry is the denormalized metadata for one document.
type Entry struct {
	ID   string      `json:"id"`
	Kind entity.Kind `json:"kind"`
	Name string      `json:"name"`
	// Path is relative to the storage root.
	Path string `json:"path"`
	// Namespace is set directly for projects; for chats and summaries the
	// owning namespace is resolved through the project entry at query time,
	// so attach/detach never has to rewrite child entries.
	Namespace    string     `json:"namespace,omitempty"`
	Project      string     `json:"project,omitempty"`
	Provider     string     `json:"provider,omitempty"`
	MessageCount int        `json:"message_count,omitempty"`
	WordCount    int        `json:"word_count,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Temporary    bool       `json:"temporary,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// Filter narrows List and FindByName results. Zero value matches all.
type Filter struct {
	Kind          entity.Kind
	Namespace     string
	Project       string
	TemporaryOnly bool
}

type indexFile struct {
	SchemaVersion int              `json:"schema_version"`
	Entries       map[string]Entry `json:"entries"`
}

// Index holds all entries of all kinds in memory and persists each kind to
// its own JSON file under the storage root.
type Index struct {
	mu      sync.Mutex
	root    string
	entries map[string]Entry
}

// Open loads the index files under root. Missing files are treated as
// empty; a caller that wants drift repaired runs Reconcile afterwards.
func Open(root string) (*Index, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("missing index root")
	}
	idx := &Index{root: root, entries: make(map[string]Entry)}
	for _, kind := range []entity.Kind{entity.KindChat, entity.KindSummary, entity.KindProject, entity.KindNamespace} {
		path := filepath.Join(root, layout.IndexPath(kind))
		b, err := os.ReadFile(path)
		if err != nil {
			if atomicfile.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("load index: %w", err)
		}
		var f indexFile
		if err := json.Unmarshal(b, &f); err != nil {
			// A damaged index file is drift, not a fatal error: the
			// documents rebuild it.
			continue
		}
		for id, e := range f.Entries {
			if strings.TrimSpace(e.ID) == "" {
				e.ID = id
			}
			idx.entries[e.ID] = e
		}
	}
	return idx, nil
}

// Put inserts or replaces an entry and durably persists its kind's file.
func (x *Index) Put(e Entry) error {
	if x == nil {
		return errors.New("index not initialized")
	}
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		return errors.New("entry missing id")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	prev, existed := x.entries[e.ID]
	x.entries[e.ID] = e
	if err := x.persistLocked(e.Kind); err != nil {
		if existed {
			x.entries[e.ID] = prev
		} else {
			delete(x.entries, e.ID)
		}
		return err
	}
	return nil
}

// Get returns the entry for id.
func (x *Index) Get(id string) (Entry, bool) {
	if x == nil {
		return Entry{}, false
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.entries[strings.TrimSpace(id)]
	return e, ok
}

// Remove deletes an entry and durably persists its kind's file.
func (x *Index) Remove(id string) error {
	if x == nil {
		return errors.New("index not initialized")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.entries[strings.TrimSpace(id)]
	if !ok {
		return nil
	}
	delete(x.entries, e.ID)
	if err := x.persistLocked(e.Kind); err != nil {
		x.entries[e.ID] = e
		return err
	}
	return nil
}

// List returns entries matching the filter, most recently updated first,
// ties broken by id.
func (x *Index) List(f Filter) []Entry {
	if x == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]Entry, 0, len(x.entries))
	for _, e := range x.entries {
		if x.matchLocked(e, f) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// FindByName returns entries whose display name contains fragment,
// case-insensitively, within the filter scope.
func (x *Index) FindByName(f Filter, fragment string) []Entry {
	if x == nil {
		return nil
	}
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []Entry
	for _, e := range x.entries {
		if !x.matchLocked(e, f) {
			continue
		}
		if strings.Contains(strings.ToLower(e.Name), frag) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// ReplaceAll swaps in a freshly rebuilt entry set and persists every index
// file. Used by Reconcile after a rescan.
func (x *Index) ReplaceAll(entries []Entry) error {
	if x == nil {
		return errors.New("index not initialized")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	next := make(map[string]Entry, len(entries))
	for _, e := range entries {
		next[e.ID] = e
	}
	prev := x.entries
	x.entries = next
	for _, kind := range []entity.Kind{entity.KindChat, entity.KindSummary, entity.KindProject, entity.KindNamespace} {
		if err := x.persistLocked(kind); err != nil {
			x.entries = prev
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of every entry, unordered scope, sorted.
func (x *Index) Snapshot() []Entry {
	return x.List(Filter{})
}

func (x *Index) matchLocked(e Entry, f Filter) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.TemporaryOnly && !e.Temporary {
		return false
	}
	if f.Project != "" && e.Project != f.Project {
		return false
	}
	if f.Namespace != "" {
		if x.namespaceOfLocked(e) != f.Namespace {
			return false
		}
	}
	return true
}

// namespaceOfLocked resolves the owning namespace of an entry, following
// the project back-reference for chats and summaries.
func (x *Index) namespaceOfLocked(e Entry) string {
	if e.Namespace != "" {
		return e.Namespace
	}
	if e.Project == "" {
		return ""
	}
	if p, ok := x.entries[e.Project]; ok {
		return p.Namespace
	}
	return ""
}

func (x *Index) persistLocked(kind entity.Kind) error {
	f := indexFile{SchemaVersion: schemaVersion, Entries: make(map[string]Entry)}
	for id, e := range x.entries {
		if e.Kind == kind {
			f.Entries[id] = e
		}
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("persist %s index: %w", kind, err)
	}
	b = append(b, '\n')
	return atomicfile.Replace(filepath.Join(x.root, layout.IndexPath(kind)), b)
}

func sortEntries(out []Entry) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
}
