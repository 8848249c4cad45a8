// Package store is the facade over the knowledge store: hierarchy
// management, chat lifecycle, provider consultation, summarization,
// search, and reconciliation.
//
// The store is single-writer: all mutations serialize on one mutex.
// Provider calls never run under that mutex, so reads and unrelated
// mutations are not blocked by a slow backend.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/config"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/executor"
	"github.com/omnichat/omni/internal/index"
	"github.com/omnichat/omni/internal/lockfile"
)

type Store struct {
	mu    sync.Mutex
	root  string
	cfg   *config.Config
	log   *slog.Logger
	idx   *index.Index
	execs *executor.Registry
	lock  *lockfile.Lock
	now   func() time.Time
}

// Options configures Open. Config is required; the rest default to a
// discard logger, an empty registry, and entity.Now.
type Options struct {
	Config    *config.Config
	Logger    *slog.Logger
	Executors *executor.Registry
	Now       func() time.Time
}

// Open validates the configuration, loads the index, and reconciles it
// against the document tree so every session starts from a repaired
// cache. Drift found during startup is logged, not fatal.
func Open(opts Options) (*Store, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("store: missing config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	root := strings.TrimSpace(cfg.StorageRoot)
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("store: create root: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	execs := opts.Executors
	if execs == nil {
		execs = executor.NewRegistry()
	}
	now := opts.Now
	if now == nil {
		now = entity.Now
	}

	// One process per root: mutations assume no concurrent writer.
	lock, err := lockfile.Acquire(filepath.Join(root, ".lock"))
	if err != nil {
		return nil, fmt.Errorf("store: lock root: %w", err)
	}

	idx, err := index.Open(root)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("store: %w", err)
	}
	s := &Store{root: root, cfg: cfg, log: log, idx: idx, execs: execs, lock: lock, now: now}

	rep, err := index.Reconcile(idx, root)
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("store: reconcile: %w", err)
	}
	if !rep.Clean() {
		log.Warn("index drift repaired",
			"scanned", rep.Scanned,
			"rebuilt", rep.Rebuilt,
			"missing", len(rep.MissingFiles),
			"orphans", len(rep.OrphanDocuments),
			"corrupt", len(rep.Corrupt),
			"duplicates", len(rep.Duplicates))
	}
	return s, nil
}

// Close releases the store's root lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.lock.Release()
}

// Reconcile rescans the document tree and rebuilds the index from it.
func (s *Store) Reconcile() (index.Report, error) {
	if s == nil {
		return index.Report{}, errors.New("store not initialized")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return index.Reconcile(s.idx, s.root)
}

// List returns index entries in scope, most recently updated first.
func (s *Store) List(f index.Filter) []index.Entry {
	if s == nil {
		return nil
	}
	return s.idx.List(f)
}

// Providers returns the registered provider identifiers.
func (s *Store) Providers() []string {
	if s == nil {
		return nil
	}
	return s.execs.Names()
}

// DefaultProvider returns the configured default provider when it is
// registered, otherwise the registry's own default.
func (s *Store) DefaultProvider() string {
	if s == nil {
		return ""
	}
	if name := strings.TrimSpace(s.cfg.DefaultProvider); name != "" {
		if _, ok := s.execs.Get(name); ok {
			return name
		}
	}
	return s.execs.Default()
}

func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, rel)
}

// entryOf looks up id and checks its kind. A kind of "" matches any.
func (s *Store) entryOf(id string, kind entity.Kind) (index.Entry, error) {
	e, ok := s.idx.Get(id)
	if !ok || (kind != "" && e.Kind != kind) {
		if kind == "" {
			return index.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return index.Entry{}, fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return e, nil
}

// createDoc writes a brand-new document. On a path collision (same
// second, same slug) it retries once with the id folded into the name.
func (s *Store) createDoc(rel string, id string, data []byte) (string, error) {
	err := atomicfile.Create(s.abs(rel), data)
	if err == nil {
		return rel, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return "", err
	}
	ext := filepath.Ext(rel)
	alt := strings.TrimSuffix(rel, ext) + "-" + id + ext
	if err := atomicfile.Create(s.abs(alt), data); err != nil {
		return "", err
	}
	return alt, nil
}

// moveDoc publishes a document at a new path and retires the old one.
// The new copy lands before the old is removed, so a crash in between
// leaves a duplicate id for reconciliation to resolve, never a loss.
func (s *Store) moveDoc(oldRel, newRel, id string, data []byte) (string, error) {
	if oldRel == newRel {
		if err := atomicfile.Replace(s.abs(newRel), data); err != nil {
			return "", err
		}
		return newRel, nil
	}
	placed, err := s.createDoc(newRel, id, data)
	if err != nil {
		return "", err
	}
	if err := atomicfile.Remove(s.abs(oldRel)); err != nil {
		return "", err
	}
	return placed, nil
}

func (s *Store) loadChat(e index.Entry) (*entity.Chat, error) {
	data, err := os.ReadFile(s.abs(e.Path))
	if err != nil {
		if atomicfile.IsNotExist(err) {
			return nil, fmt.Errorf("%w: chat %s", ErrNotFound, e.ID)
		}
		return nil, err
	}
	return codec.DecodeChat(data, e.Path)
}

func (s *Store) loadSummary(e index.Entry) (*entity.Summary, error) {
	data, err := os.ReadFile(s.abs(e.Path))
	if err != nil {
		if atomicfile.IsNotExist(err) {
			return nil, fmt.Errorf("%w: summary %s", ErrNotFound, e.ID)
		}
		return nil, err
	}
	return codec.DecodeSummary(data, e.Path)
}

func (s *Store) loadProject(e index.Entry) (*entity.Project, error) {
	data, err := os.ReadFile(s.abs(e.Path))
	if err != nil {
		if atomicfile.IsNotExist(err) {
			return nil, fmt.Errorf("%w: project %s", ErrNotFound, e.ID)
		}
		return nil, err
	}
	return codec.DecodeProject(data, e.Path)
}

func (s *Store) loadNamespace(e index.Entry) (*entity.Namespace, error) {
	data, err := os.ReadFile(s.abs(e.Path))
	if err != nil {
		if atomicfile.IsNotExist(err) {
			return nil, fmt.Errorf("%w: namespace %s", ErrNotFound, e.ID)
		}
		return nil, err
	}
	return codec.DecodeNamespace(data, e.Path)
}

// GetChat returns the chat with the given id, body included.
func (s *Store) GetChat(id string) (*entity.Chat, error) {
	e, err := s.entryOf(id, entity.KindChat)
	if err != nil {
		return nil, err
	}
	return s.loadChat(e)
}

// GetSummary returns the summary with the given id.
func (s *Store) GetSummary(id string) (*entity.Summary, error) {
	e, err := s.entryOf(id, entity.KindSummary)
	if err != nil {
		return nil, err
	}
	return s.loadSummary(e)
}

// GetProject returns the project with the given id.
func (s *Store) GetProject(id string) (*entity.Project, error) {
	e, err := s.entryOf(id, entity.KindProject)
	if err != nil {
		return nil, err
	}
	return s.loadProject(e)
}

// GetNamespace returns the namespace with the given id.
func (s *Store) GetNamespace(id string) (*entity.Namespace, error) {
	e, err := s.entryOf(id, entity.KindNamespace)
	if err != nil {
		return nil, err
	}
	return s.loadNamespace(e)
}
