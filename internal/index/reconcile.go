package index

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/layout"
)

// CorruptFile identifies a document that could not be decoded during a
// rescan. It is reported, never silently dropped.
type CorruptFile struct {
	Path   string
	Reason string
}

// Report describes what a reconcile pass found and repaired.
type Report struct {
	Scanned int
	Rebuilt int
	// MissingFiles are ids whose index entry pointed at a document that no
	// longer exists.
	MissingFiles []string
	// OrphanDocuments are document paths found on disk with no index entry.
	// They are adopted into the rebuilt index.
	OrphanDocuments []string
	// Corrupt lists undecodable documents, skipped but reported.
	Corrupt []CorruptFile
	// Duplicates are document paths whose id was already claimed by another
	// document; the copy not referenced by the previous index loses.
	Duplicates []string
}

// Clean reports whether the pass found no drift at all.
func (r Report) Clean() bool {
	return len(r.MissingFiles) == 0 && len(r.OrphanDocuments) == 0 &&
		len(r.Corrupt) == 0 && len(r.Duplicates) == 0
}

// ChatEntry builds the index entry for a chat document at relPath.
func ChatEntry(c *entity.Chat, relPath string) Entry {
	e := Entry{
		ID:           c.ID,
		Kind:         entity.KindChat,
		Name:         c.Name,
		Path:         relPath,
		Project:      c.Project,
		Provider:     c.Provider,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Temporary:    c.Temporary,
	}
	if !c.ExpiresAt.IsZero() {
		t := c.ExpiresAt
		e.ExpiresAt = &t
	}
	return e
}

// SummaryEntry builds the index entry for a summary document at relPath.
func SummaryEntry(s *entity.Summary, relPath string) Entry {
	return Entry{
		ID:        s.ID,
		Kind:      entity.KindSummary,
		Name:      s.Name,
		Path:      relPath,
		Project:   s.Project,
		Provider:  s.Provider,
		WordCount: s.WordCount,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.CreatedAt,
	}
}

// ProjectEntry builds the index entry for a project document.
func ProjectEntry(p *entity.Project) Entry {
	return Entry{
		ID:        p.ID,
		Kind:      entity.KindProject,
		Name:      p.Name,
		Path:      layout.ProjectPath(p.ID),
		Namespace: p.Namespace,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.CreatedAt,
	}
}

// NamespaceEntry builds the index entry for a namespace document at relPath.
func NamespaceEntry(n *entity.Namespace, relPath string) Entry {
	return Entry{
		ID:        n.ID,
		Kind:      entity.KindNamespace,
		Name:      n.Name,
		Path:      relPath,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.CreatedAt,
	}
}

// Reconcile rescans the document tree under root, rebuilds every entry from
// decodable documents, swaps the rebuilt set in, and reports mismatches.
// Documents are the authority; the previous in-memory state only informs
// the report and duplicate-id resolution.
func Reconcile(x *Index, root string) (Report, error) {
	if x == nil {
		return Report{}, errors.New("index not initialized")
	}
	var rep Report

	x.mu.Lock()
	prev := make(map[string]Entry, len(x.entries))
	for id, e := range x.entries {
		prev[id] = e
	}
	x.mu.Unlock()

	knownPaths := make(map[string]string, len(prev)) // rel path -> id
	for id, e := range prev {
		knownPaths[e.Path] = id
	}

	rebuilt := make(map[string]Entry)
	walkDocs(root, func(relPath string, data []byte) {
		rep.Scanned++
		e, err := decodeAny(relPath, data)
		if err != nil {
			var ce *codec.CorruptDocumentError
			reason := err.Error()
			if errors.As(err, &ce) {
				reason = ce.Reason
			}
			rep.Corrupt = append(rep.Corrupt, CorruptFile{Path: relPath, Reason: reason})
			return
		}
		if existing, dup := rebuilt[e.ID]; dup {
			// Two documents claim the same id (e.g. a crash mid-rename).
			// Keep the one the previous index pointed at.
			if prev[e.ID].Path == e.Path {
				rep.Duplicates = append(rep.Duplicates, existing.Path)
				rebuilt[e.ID] = e
			} else {
				rep.Duplicates = append(rep.Duplicates, relPath)
			}
			return
		}
		rebuilt[e.ID] = e
		if _, known := knownPaths[relPath]; !known {
			rep.OrphanDocuments = append(rep.OrphanDocuments, relPath)
		}
	})

	for id, e := range prev {
		if _, ok := rebuilt[id]; !ok {
			if !atomicExists(filepath.Join(root, e.Path)) {
				rep.MissingFiles = append(rep.MissingFiles, id)
			}
		}
	}

	entries := make([]Entry, 0, len(rebuilt))
	for _, e := range rebuilt {
		entries = append(entries, e)
	}
	if err := x.ReplaceAll(entries); err != nil {
		return rep, err
	}
	rep.Rebuilt = len(entries)
	return rep, nil
}

func atomicExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// decodeAny decodes a document based on where it lives in the layout.
func decodeAny(relPath string, data []byte) (Entry, error) {
	rel := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	switch {
	case base == "project.md" && strings.HasPrefix(rel, "projects/"):
		p, err := codec.DecodeProject(data, relPath)
		if err != nil {
			return Entry{}, err
		}
		return ProjectEntry(p), nil
	case strings.HasPrefix(rel, "namespaces/"):
		n, err := codec.DecodeNamespace(data, relPath)
		if err != nil {
			return Entry{}, err
		}
		return NamespaceEntry(n, relPath), nil
	case strings.HasPrefix(rel, "summaries/") || strings.Contains(rel, "/summaries/"):
		s, err := codec.DecodeSummary(data, relPath)
		if err != nil {
			return Entry{}, err
		}
		return SummaryEntry(s, relPath), nil
	default:
		c, err := codec.DecodeChat(data, relPath)
		if err != nil {
			return Entry{}, err
		}
		return ChatEntry(c, relPath), nil
	}
}

func walkDocs(root string, visit func(relPath string, data []byte)) {
	for _, area := range layout.DocumentAreas() {
		dir := filepath.Join(root, area)
		_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".md") {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			visit(rel, data)
			return nil
		})
	}
}
