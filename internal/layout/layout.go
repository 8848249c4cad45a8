// Package layout computes canonical on-disk locations for documents.
//
// The directory shape is stable and must not change between releases:
//
//	<root>/chats/permanent/<stamp>_<slug>.md
//	<root>/chats/temporary/<stamp>_<slug>.md
//	<root>/summaries/<stamp>_<slug>_summary.md
//	<root>/projects/<project-id>/project.md
//	<root>/projects/<project-id>/chats/...
//	<root>/projects/<project-id>/summaries/...
//	<root>/namespaces/<stamp>_<slug>.md
//	<root>/chat_index.json, summary_index.json, project_index.json,
//	<root>/namespace_index.json
package layout

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/omnichat/omni/internal/entity"
)

const (
	maxSlugLen = 50
	stampFmt   = "20060102-150405"
)

// Slug converts a display name into a filesystem-safe fragment: lowercase,
// runs of non-alphanumerics collapsed to single hyphens, bounded length.
func Slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	pending := false
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
		default:
			pending = true
		}
	}
	s := b.String()
	if len(s) > maxSlugLen {
		cut := s[:maxSlugLen]
		if i := strings.LastIndex(cut, "-"); i > 0 {
			cut = cut[:i]
		}
		s = cut
	}
	if s == "" {
		return "untitled"
	}
	return s
}

func stamp(t time.Time) string {
	return t.UTC().Format(stampFmt)
}

// ChatPath returns the canonical relative path for a chat document given
// its placement. The path embeds the creation stamp and the name slug, so
// renames and moves are performed as explicit move+rewrite operations.
func ChatPath(projectID string, temporary bool, createdAt time.Time, name string) string {
	file := stamp(createdAt) + "_" + Slug(name) + ".md"
	if projectID != "" {
		return filepath.Join("projects", projectID, "chats", file)
	}
	if temporary {
		return filepath.Join("chats", "temporary", file)
	}
	return filepath.Join("chats", "permanent", file)
}

// SummaryPath returns the canonical relative path for a summary document.
func SummaryPath(projectID string, createdAt time.Time, name string) string {
	file := stamp(createdAt) + "_" + Slug(name) + "_summary.md"
	if projectID != "" {
		return filepath.Join("projects", projectID, "summaries", file)
	}
	return filepath.Join("summaries", file)
}

// ProjectPath returns the relative path of a project's metadata document.
// It lives inside the project's own directory, keyed by id so that renames
// never move the whole subtree.
func ProjectPath(projectID string) string {
	return filepath.Join("projects", projectID, "project.md")
}

// NamespacePath returns the relative path of a namespace document.
func NamespacePath(createdAt time.Time, name string) string {
	return filepath.Join("namespaces", stamp(createdAt)+"_"+Slug(name)+".md")
}

// IndexPath returns the relative path of the index file for a kind.
func IndexPath(kind entity.Kind) string {
	switch kind {
	case entity.KindChat:
		return "chat_index.json"
	case entity.KindSummary:
		return "summary_index.json"
	case entity.KindProject:
		return "project_index.json"
	case entity.KindNamespace:
		return "namespace_index.json"
	}
	return string(kind) + "_index.json"
}

// DocumentAreas lists the relative directories reconcile scans for
// documents of each kind, in scan order.
func DocumentAreas() []string {
	return []string{
		filepath.Join("chats", "permanent"),
		filepath.Join("chats", "temporary"),
		"summaries",
		"namespaces",
		"projects",
	}
}
