package store

import (
	"errors"
	"strings"
	"time"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
	"github.com/omnichat/omni/internal/layout"
)

// CreateChatOptions configures CreateChat. Name takes precedence; when
// empty, the name is derived from FirstMessage.
type CreateChatOptions struct {
	Name         string
	FirstMessage string
	Project      string
	Temporary    bool
	// TTL overrides the configured default expiry for temporary chats.
	TTL time.Duration
}

// CreateChat creates a chat document, optionally seeded with the first
// user message. Temporary chats get an expiry stamp at creation.
func (s *Store) CreateChat(opts CreateChatOptions) (*entity.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	project := strings.TrimSpace(opts.Project)
	if project != "" {
		if _, err := s.entryOf(project, entity.KindProject); err != nil {
			return nil, err
		}
	}

	id := entity.NewID()
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = entity.DeriveChatName(opts.FirstMessage)
	}
	if name == "" {
		name = "chat-" + id
	}

	now := s.now()
	c := &entity.Chat{
		ID:        id,
		Name:      name,
		Provider:  s.DefaultProvider(),
		CreatedAt: now,
		UpdatedAt: now,
		Project:   project,
		Temporary: opts.Temporary,
	}
	if opts.Temporary {
		ttl := opts.TTL
		if ttl <= 0 {
			ttl = s.cfg.TTL()
		}
		c.ExpiresAt = now.Add(ttl)
	}
	if first := strings.TrimSpace(opts.FirstMessage); first != "" {
		c.Messages = append(c.Messages, entity.Message{
			Role:      entity.RoleUser,
			Content:   first,
			Timestamp: now,
		})
	}
	c.MessageCount = len(c.Messages)

	data, err := codec.EncodeChat(c)
	if err != nil {
		return nil, err
	}
	rel, err := s.createDoc(layout.ChatPath(project, c.Temporary, c.CreatedAt, c.Name), c.ID, data)
	if err != nil {
		return nil, err
	}
	if err := s.idx.Put(index.ChatEntry(c, rel)); err != nil {
		_ = atomicfile.Remove(s.abs(rel))
		return nil, err
	}
	s.log.Info("chat created", "id", c.ID, "name", c.Name,
		"project", c.Project, "temporary", c.Temporary)
	return c, nil
}

// DeleteChat removes a chat document and its index entry. The document
// goes first: a crash in between leaves a stale entry that the next
// reconcile drops.
func (s *Store) DeleteChat(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindChat)
	if err != nil {
		return err
	}
	if err := atomicfile.Remove(s.abs(e.Path)); err != nil {
		return err
	}
	if err := s.idx.Remove(e.ID); err != nil {
		return err
	}
	s.log.Info("chat deleted", "id", e.ID, "name", e.Name)
	return nil
}

// DeleteSummary removes a summary document and its index entry.
func (s *Store) DeleteSummary(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindSummary)
	if err != nil {
		return err
	}
	if err := atomicfile.Remove(s.abs(e.Path)); err != nil {
		return err
	}
	return s.idx.Remove(e.ID)
}

// RenameChat changes a chat's display name. The id is stable; the
// document moves to the slug-derived path for the new name.
func (s *Store) RenameChat(id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New("chat name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindChat)
	if err != nil {
		return err
	}
	c, err := s.loadChat(e)
	if err != nil {
		return err
	}
	c.Name = newName
	return s.relocateChatLocked(c, e.Path)
}

// MoveChat reassigns a chat to a project, or detaches it when projectID
// is empty. The document relocates to the canonical path for its new
// placement.
func (s *Store) MoveChat(id, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	projectID = strings.TrimSpace(projectID)
	if projectID != "" {
		if _, err := s.entryOf(projectID, entity.KindProject); err != nil {
			return err
		}
	}
	e, err := s.entryOf(id, entity.KindChat)
	if err != nil {
		return err
	}
	c, err := s.loadChat(e)
	if err != nil {
		return err
	}
	if c.Project == projectID {
		return nil
	}
	c.Project = projectID
	return s.relocateChatLocked(c, e.Path)
}
