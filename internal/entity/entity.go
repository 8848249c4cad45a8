// Package entity defines the knowledge-store entity model: namespaces,
// projects, chats, messages, and summaries.
//
// Identifiers are short opaque strings and never change; display names are
// mutable. Messages are append-only and immutable once recorded.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the type of an indexed entity.
type Kind string

const (
	KindChat      Kind = "chat"
	KindSummary   Kind = "summary"
	KindProject   Kind = "project"
	KindNamespace Kind = "namespace"
)

// Role is the author role of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SummaryKind selects the target shape of a generated summary.
type SummaryKind string

const (
	SummaryShort SummaryKind = "short"
	SummaryLong  SummaryKind = "long"
)

// NewID returns a new 8-character lowercase hex identifier.
//
// IDs are derived from a v4 UUID, so they are collision-resistant at the
// scale of a local store and are never reused.
func NewID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:8]
}

// Now returns the current time at second precision in UTC.
//
// All persisted timestamps are second-precision so that a decoded document
// compares equal to the entity it was encoded from.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

type Namespace struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}

type Project struct {
	ID          string
	Name        string
	Description string
	// Namespace is a back-reference to the owning namespace id, empty when
	// the project is un-namespaced. It is a reference, not ownership:
	// deleting the namespace clears it and nothing else.
	Namespace string
	CreatedAt time.Time
}

type Message struct {
	Role    Role
	Content string
	// Provider is the executor that produced the message. Meaningful for
	// assistant messages; for user messages it is empty.
	Provider  string
	Timestamp time.Time
}

type Chat struct {
	ID   string
	Name string
	// Provider is the last executor used in this chat.
	Provider     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	// Project is a back-reference to the owning project id, empty for
	// standalone chats.
	Project   string
	Temporary bool
	// ExpiresAt is set only for temporary chats.
	ExpiresAt time.Time
	Messages  []Message
}

// Expired reports whether the chat is temporary and past its expiry.
func (c *Chat) Expired(now time.Time) bool {
	if c == nil || !c.Temporary || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

type Summary struct {
	ID   string
	Name string
	// OriginalChatID is retained for provenance; the source chat no longer
	// exists once the summary does.
	OriginalChatID string
	Kind           SummaryKind
	Provider       string
	WordCount      int
	CreatedAt      time.Time
	Project        string
	Body           string
}

// WordCount counts whitespace-separated words in s. Summary word counts are
// always computed from the persisted body, never executor-reported.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

const maxDerivedNameLen = 50

// DeriveChatName builds a chat display name from the first user message:
// the first four words longer than two runes, lowercased and hyphen-joined,
// truncated at a hyphen boundary.
func DeriveChatName(firstMessage string) string {
	var keep []string
	for _, w := range strings.Fields(strings.ToLower(firstMessage)) {
		var b strings.Builder
		for _, r := range w {
			if r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		w = strings.Trim(b.String(), "-")
		if len([]rune(w)) > 2 {
			keep = append(keep, w)
		}
		if len(keep) == 4 {
			break
		}
	}
	name := strings.Join(keep, "-")
	if len(name) > maxDerivedNameLen {
		cut := name[:maxDerivedNameLen]
		if i := strings.LastIndex(cut, "-"); i > 0 {
			cut = cut[:i]
		}
		name = cut
	}
	if name == "" {
		return ""
	}
	return name
}
