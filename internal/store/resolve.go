package store

import (
	"fmt"
	"strings"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
)

// Resolve maps an identifier to exactly one entry: an exact id match
// wins, otherwise a case-insensitive name-fragment search within the
// kind. The store never guesses between name matches; multiple hits come
// back as an AmbiguousNameError carrying the candidates. A kind of ""
// matches any kind by id but is rejected for name lookup.
func (s *Store) Resolve(kind entity.Kind, identifier string) (index.Entry, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return index.Entry{}, fmt.Errorf("%w: empty identifier", ErrNotFound)
	}
	if e, ok := s.idx.Get(identifier); ok && (kind == "" || e.Kind == kind) {
		return e, nil
	}
	if kind == "" {
		return index.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	matches := s.idx.FindByName(index.Filter{Kind: kind}, identifier)
	switch len(matches) {
	case 0:
		return index.Entry{}, fmt.Errorf("%w: %s %q", ErrNotFound, kind, identifier)
	case 1:
		return matches[0], nil
	default:
		return index.Entry{}, &AmbiguousNameError{Fragment: identifier, Candidates: matches}
	}
}
