package store

import (
	"os"
	"sort"
	"strings"

	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
)

// Scope narrows a search. Zero value searches everything.
type Scope struct {
	Namespace string
	Project   string
	ChatID    string
}

// Match is one matching body line with up to one line of context on each
// side.
type Match struct {
	// Line is 1-based within the entity's body text.
	Line    int
	Text    string
	Context []string
}

const maxMatchesPerEntity = 3

// SearchResult groups the matches found in one chat or summary.
type SearchResult struct {
	Entry   index.Entry
	Matches []Match
}

// Search scans chat and summary body text in scope for a substring,
// case-insensitively. Metadata never matches. Results come back most
// recently updated first; each entity reports at most three matching
// lines.
func (s *Store) Search(query string, scope Scope) ([]SearchResult, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	var candidates []index.Entry
	if scope.ChatID != "" {
		e, err := s.entryOf(scope.ChatID, entity.KindChat)
		if err != nil {
			return nil, err
		}
		candidates = []index.Entry{e}
	} else {
		f := index.Filter{Namespace: scope.Namespace, Project: scope.Project}
		f.Kind = entity.KindChat
		candidates = append(candidates, s.idx.List(f)...)
		f.Kind = entity.KindSummary
		candidates = append(candidates, s.idx.List(f)...)
		sort.Slice(candidates, func(i, j int) bool {
			if candidates[i].UpdatedAt.Equal(candidates[j].UpdatedAt) {
				return candidates[i].ID < candidates[j].ID
			}
			return candidates[i].UpdatedAt.After(candidates[j].UpdatedAt)
		})
	}

	var results []SearchResult
	for _, e := range candidates {
		lines, err := s.bodyLines(e)
		if err != nil {
			// A file that vanished or went bad mid-scan is reconcile's
			// problem, not the searcher's.
			continue
		}
		matches := matchLines(lines, query)
		if len(matches) > 0 {
			results = append(results, SearchResult{Entry: e, Matches: matches})
		}
	}
	return results, nil
}

// bodyLines returns the searchable body text of an entity, one line per
// element. For chats this is the message content only.
func (s *Store) bodyLines(e index.Entry) ([]string, error) {
	data, err := os.ReadFile(s.abs(e.Path))
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case entity.KindSummary:
		sum, err := codec.DecodeSummary(data, e.Path)
		if err != nil {
			return nil, err
		}
		return strings.Split(sum.Body, "\n"), nil
	default:
		c, err := codec.DecodeChat(data, e.Path)
		if err != nil {
			return nil, err
		}
		var lines []string
		for _, m := range c.Messages {
			lines = append(lines, strings.Split(m.Content, "\n")...)
		}
		return lines, nil
	}
}

func matchLines(lines []string, query string) []Match {
	var out []Match
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), query) {
			continue
		}
		m := Match{Line: i + 1, Text: line}
		if i > 0 {
			m.Context = append(m.Context, lines[i-1])
		}
		if i+1 < len(lines) {
			m.Context = append(m.Context, lines[i+1])
		}
		out = append(out, m)
		if len(out) == maxMatchesPerEntity {
			break
		}
	}
	return out
}
