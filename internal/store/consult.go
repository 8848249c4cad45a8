package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/omnichat/omni/internal/entity"
)

// ConsultResult carries the three responses a consult produces, in the
// order they are recorded.
type ConsultResult struct {
	Primary   string
	Secondary string
	Merged    string
}

const mergePromptFmt = `You asked two AI assistants the same question. Merge their answers into a single coherent response. Keep the strongest points from each, resolve disagreements explicitly, and do not mention that multiple assistants were involved.

Question:
%s

Answer from %s:
%s

Answer from %s:
%s`

// Consult records the question, asks the primary and secondary providers
// concurrently with the same prior context, and has the primary merge
// the two answers. Exactly three assistant messages are appended, or
// none: any provider failure leaves only the question in the chat, so a
// retry sees it as context.
func (s *Store) Consult(ctx context.Context, chatID, primary, secondary, question string) (*ConsultResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("empty question")
	}
	primary = strings.TrimSpace(primary)
	secondary = strings.TrimSpace(secondary)
	if primary == secondary {
		return nil, fmt.Errorf("consult needs two distinct providers, got %q twice", primary)
	}
	prim, ok := s.execs.Get(primary)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s", ErrNotFound, primary)
	}
	sec, ok := s.execs.Get(secondary)
	if !ok {
		return nil, fmt.Errorf("%w: provider %s", ErrNotFound, secondary)
	}

	s.mu.Lock()
	c, err := s.GetChat(chatID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	history := c.Messages
	if _, err := s.appendLocked(chatID, entity.Message{Role: entity.RoleUser, Content: question}); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	type answer struct {
		text string
		err  error
	}
	primCh := make(chan answer, 1)
	secCh := make(chan answer, 1)
	go func() {
		text, err := prim.Invoke(ctx, history, question)
		primCh <- answer{text, err}
	}()
	go func() {
		text, err := sec.Invoke(ctx, history, question)
		secCh <- answer{text, err}
	}()
	primAns, secAns := <-primCh, <-secCh
	if primAns.err != nil {
		return nil, primAns.err
	}
	if secAns.err != nil {
		return nil, secAns.err
	}

	mergePrompt := fmt.Sprintf(mergePromptFmt,
		question, primary, primAns.text, secondary, secAns.text)
	merged, err := prim.Invoke(ctx, nil, mergePrompt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.appendLocked(chatID,
		entity.Message{Role: entity.RoleAssistant, Content: primAns.text, Provider: primary},
		entity.Message{Role: entity.RoleAssistant, Content: secAns.text, Provider: secondary},
		entity.Message{Role: entity.RoleAssistant, Content: merged, Provider: primary + "+" + secondary},
	)
	if err != nil {
		return nil, err
	}
	s.log.Info("consult recorded", "chat", chatID, "primary", primary, "secondary", secondary)
	return &ConsultResult{Primary: primAns.text, Secondary: secAns.text, Merged: merged}, nil
}
