package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/executor"
)

// Context returns a chat's full message history in insertion order.
func (s *Store) Context(chatID string) ([]entity.Message, error) {
	c, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	return c.Messages, nil
}

// AppendTurn records one message at the end of a chat. The document is
// appended to, never rewritten, and the index entry is refreshed before
// the call reports success.
func (s *Store) AppendTurn(chatID string, m entity.Message) (*entity.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(chatID, m)
}

// appendLocked writes one or more messages as a single append. Multiple
// messages land in one write, so a multi-message turn is recorded whole
// or not at all.
func (s *Store) appendLocked(chatID string, msgs ...entity.Message) (*entity.Message, error) {
	e, err := s.entryOf(chatID, entity.KindChat)
	if err != nil {
		return nil, err
	}
	var block []byte
	for i := range msgs {
		m := &msgs[i]
		m.Content = strings.TrimSpace(m.Content)
		if m.Content == "" {
			return nil, errors.New("message content is empty")
		}
		if m.Role != entity.RoleUser && m.Role != entity.RoleAssistant {
			return nil, fmt.Errorf("unknown message role %q", m.Role)
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = s.now()
		}
		block = append(block, codec.MessageBlock(e.MessageCount+i+1, *m)...)
	}
	if err := atomicfile.Append(s.abs(e.Path), block); err != nil {
		return nil, err
	}
	last := msgs[len(msgs)-1]
	e.MessageCount += len(msgs)
	e.UpdatedAt = last.Timestamp
	if last.Role == entity.RoleAssistant && last.Provider != "" {
		e.Provider = strings.Split(last.Provider, "+")[0]
	}
	if err := s.idx.Put(e); err != nil {
		return nil, err
	}
	return &last, nil
}

// Ask records the user input, invokes the named provider with the prior
// history, and records the response. The user turn is durable before the
// provider is called: a failed call loses nothing, and retrying appends
// a fresh turn.
func (s *Store) Ask(ctx context.Context, chatID, provider, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("empty input")
	}
	exec, err := s.executorFor(chatID, provider)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	c, err := s.GetChat(chatID)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	history := c.Messages
	if _, err := s.appendLocked(chatID, entity.Message{Role: entity.RoleUser, Content: input}); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	text, err := exec.Invoke(ctx, history, input)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.appendLocked(chatID, entity.Message{
		Role:     entity.RoleAssistant,
		Content:  text,
		Provider: exec.Name(),
	}); err != nil {
		return "", err
	}
	return text, nil
}

// executorFor resolves the provider for a chat operation: the explicit
// name, else the chat's last provider, else the default.
func (s *Store) executorFor(chatID, provider string) (executor.Executor, error) {
	provider = strings.TrimSpace(provider)
	if provider == "" {
		if e, ok := s.idx.Get(chatID); ok && e.Kind == entity.KindChat {
			if _, registered := s.execs.Get(e.Provider); registered {
				provider = e.Provider
			}
		}
	}
	if provider == "" {
		provider = s.DefaultProvider()
	}
	if provider == "" {
		return nil, errors.New("no providers registered")
	}
	exec, ok := s.execs.Get(provider)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s", ErrNotFound, provider)
	}
	return exec, nil
}
