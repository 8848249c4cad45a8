package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
	"github.com/omnichat/omni/internal/layout"
)

const shortSummaryPromptFmt = `Summarize this conversation in 50-100 words. Focus on the question asked and the essential answer or outcome. Write plain prose without headers.

Conversation:
%s`

const longSummaryPromptFmt = `Create a detailed summary of this conversation with the following structure:

## Overview
A short paragraph describing what the conversation was about.

## Key Points
Bullet points covering the important facts, decisions, and answers.

## Conclusions
The final outcome or recommendations.

Conversation:
%s`

// Summarize turns a chat into a summary: the provider condenses the full
// history, the summary document is created and indexed, and only then is
// the chat removed. A crash mid-way leaves the chat intact; at worst a
// partial summary file is quarantined by the next reconcile.
//
// Summarizing an empty chat is an invalid transition.
func (s *Store) Summarize(ctx context.Context, chatID string, kind entity.SummaryKind) (*entity.Summary, error) {
	if kind != entity.SummaryShort && kind != entity.SummaryLong {
		return nil, fmt.Errorf("unknown summary kind %q", kind)
	}
	c, err := s.GetChat(chatID)
	if err != nil {
		return nil, err
	}
	if len(c.Messages) == 0 {
		return nil, fmt.Errorf("%w: chat %s has no messages to summarize", ErrInvalidTransition, chatID)
	}

	exec, err := s.executorFor(chatID, "")
	if err != nil {
		return nil, err
	}
	prompt := fmt.Sprintf(shortSummaryPromptFmt, transcript(c.Messages))
	if kind == entity.SummaryLong {
		prompt = fmt.Sprintf(longSummaryPromptFmt, transcript(c.Messages))
	}
	body, err := exec.Invoke(ctx, nil, prompt)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(chatID, entity.KindChat)
	if err != nil {
		return nil, err
	}
	// The provider call ran unlocked; a turn appended meanwhile would not
	// be in the summary, so the chat must not be retired under it.
	if e.MessageCount != len(c.Messages) {
		return nil, fmt.Errorf("%w: chat %s grew during summarization, retry", ErrInvalidTransition, chatID)
	}
	now := s.now()
	sum := &entity.Summary{
		ID:             entity.NewID(),
		Name:           c.Name,
		OriginalChatID: c.ID,
		Kind:           kind,
		Provider:       exec.Name(),
		WordCount:      entity.WordCount(body),
		CreatedAt:      now,
		Project:        c.Project,
		Body:           body,
	}
	data, err := codec.EncodeSummary(sum)
	if err != nil {
		return nil, err
	}
	rel, err := s.createDoc(layout.SummaryPath(sum.Project, now, sum.Name), sum.ID, data)
	if err != nil {
		return nil, err
	}
	if err := s.idx.Put(index.SummaryEntry(sum, rel)); err != nil {
		_ = atomicfile.Remove(s.abs(rel))
		return nil, err
	}

	// The summary is durable; retiring the chat comes last.
	if err := atomicfile.Remove(s.abs(e.Path)); err != nil {
		return nil, fmt.Errorf("summary %s created but chat not removed: %w", sum.ID, err)
	}
	if err := s.idx.Remove(e.ID); err != nil {
		return nil, err
	}
	s.log.Info("chat summarized", "chat", c.ID, "summary", sum.ID,
		"kind", kind, "words", sum.WordCount)
	return sum, nil
}

// transcript renders a history as provider-facing plain text.
func transcript(msgs []entity.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role == entity.RoleAssistant {
			fmt.Fprintf(&b, "Assistant (%s): %s\n\n", m.Provider, m.Content)
		} else {
			fmt.Fprintf(&b, "User: %s\n\n", m.Content)
		}
	}
	return strings.TrimSpace(b.String())
}
