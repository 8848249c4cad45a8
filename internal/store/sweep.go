package store

import (
	"errors"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
)

// SweepExpired deletes temporary chats whose expiry has passed and
// returns their ids. A chat that fails to delete stays for the next
// sweep; the error is reported alongside whatever was removed.
func (s *Store) SweepExpired() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var removed []string
	var errs []error
	for _, e := range s.idx.List(index.Filter{Kind: entity.KindChat, TemporaryOnly: true}) {
		if e.ExpiresAt == nil || now.Before(*e.ExpiresAt) {
			continue
		}
		if err := atomicfile.Remove(s.abs(e.Path)); err != nil && !atomicfile.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		if err := s.idx.Remove(e.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, e.ID)
	}
	if len(removed) > 0 {
		s.log.Info("expired chats swept", "count", len(removed))
	}
	return removed, errors.Join(errs...)
}
