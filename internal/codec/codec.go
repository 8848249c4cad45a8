// Package codec serializes chats, summaries, projects, and namespaces as
// markdown documents with a YAML frontmatter header.
//
// The chat body format is append-friendly: each message is a
// "## Message N - ..." block, so appending a turn never rewrites earlier
// content and a document stays decodable after every append. Frontmatter
// message_count/updated_at may lag behind the body; decoding derives both
// from the body, which is the ground truth.
package codec

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/omnichat/omni/internal/entity"
)

const msgTimeFmt = "2006-01-02 15:04:05"

// CorruptDocumentError reports a persisted document that cannot be decoded.
// Callers decide whether to quarantine or skip the file.
type CorruptDocumentError struct {
	Path   string
	Reason string
}

func (e *CorruptDocumentError) Error() string {
	if e.Path == "" {
		return "corrupt document: " + e.Reason
	}
	return fmt.Sprintf("corrupt document %s: %s", e.Path, e.Reason)
}

func corrupt(path, reason string) error {
	return &CorruptDocumentError{Path: path, Reason: reason}
}

type chatHeader struct {
	ChatID       string     `yaml:"chat_id"`
	Name         string     `yaml:"name"`
	Provider     string     `yaml:"provider"`
	CreatedAt    time.Time  `yaml:"created_at"`
	UpdatedAt    time.Time  `yaml:"updated_at"`
	MessageCount int        `yaml:"message_count"`
	Project      string     `yaml:"project,omitempty"`
	Temporary    bool       `yaml:"temporary,omitempty"`
	ExpiresAt    *time.Time `yaml:"expires_at,omitempty"`
}

type summaryHeader struct {
	SummaryID      string    `yaml:"summary_id"`
	Name           string    `yaml:"name"`
	OriginalChatID string    `yaml:"original_chat_id"`
	Type           string    `yaml:"type"`
	Provider       string    `yaml:"provider"`
	CreatedAt      time.Time `yaml:"created_at"`
	Project        string    `yaml:"project,omitempty"`
	WordCount      int       `yaml:"word_count"`
}

type projectHeader struct {
	ProjectID string    `yaml:"project_id"`
	Name      string    `yaml:"name"`
	Namespace string    `yaml:"namespace,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
}

type namespaceHeader struct {
	NamespaceID string    `yaml:"namespace_id"`
	Name        string    `yaml:"name"`
	CreatedAt   time.Time `yaml:"created_at"`
}

// headerLikeRe matches any line that could be mistaken for a message
// header. Such lines inside message content are escaped on encode.
var (
	headerLikeRe = regexp.MustCompile(`^## Message \d+ - `)
	userHeadRe   = regexp.MustCompile(`^## Message (\d+) - User \((\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\)$`)
	asstHeadRe   = regexp.MustCompile(`^## Message (\d+) - Assistant \(([^()]*)\) \((\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\)$`)
)

func marshalFrontmatter(v any) ([]byte, error) {
	body, err := yaml.Marshal(v)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(body)
	b.WriteString("---\n\n")
	return []byte(b.String()), nil
}

// splitFrontmatter returns the YAML between the leading fences and the rest
// of the document.
func splitFrontmatter(data []byte, path string) (yamlPart []byte, rest string, err error) {
	s := string(data)
	if !strings.HasPrefix(s, "---\n") {
		return nil, "", corrupt(path, "missing frontmatter")
	}
	tail := s[len("---\n"):]
	end := strings.Index(tail, "\n---\n")
	if end < 0 {
		return nil, "", corrupt(path, "unterminated frontmatter")
	}
	return []byte(tail[:end+1]), tail[end+len("\n---\n"):], nil
}

// EncodeChat renders a full chat document, header plus message blocks.
func EncodeChat(c *entity.Chat) ([]byte, error) {
	h := chatHeader{
		ChatID:       c.ID,
		Name:         c.Name,
		Provider:     c.Provider,
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
		MessageCount: len(c.Messages),
		Project:      c.Project,
		Temporary:    c.Temporary,
	}
	if !c.ExpiresAt.IsZero() {
		t := c.ExpiresAt.UTC()
		h.ExpiresAt = &t
	}
	head, err := marshalFrontmatter(h)
	if err != nil {
		return nil, fmt.Errorf("encode chat %s: %w", c.ID, err)
	}
	var b strings.Builder
	b.Write(head)
	b.WriteString("# Chat: " + c.Name + "\n\n")
	for i, m := range c.Messages {
		b.Write(MessageBlock(i+1, m))
	}
	return []byte(b.String()), nil
}

// MessageBlock renders the append-only block for one message. The block is
// what AppendTurn writes to the end of an existing document.
func MessageBlock(n int, m entity.Message) []byte {
	var b strings.Builder
	ts := m.Timestamp.UTC().Format(msgTimeFmt)
	if m.Role == entity.RoleUser {
		fmt.Fprintf(&b, "## Message %d - User (%s)\n", n, ts)
	} else {
		fmt.Fprintf(&b, "## Message %d - Assistant (%s) (%s)\n", n, m.Provider, ts)
	}
	b.WriteString(escapeContent(m.Content))
	b.WriteString("\n\n")
	return []byte(b.String())
}

// escapeContent backslash-escapes content lines that would otherwise parse
// as message headers, so re-decoding never merges or splits messages. The
// escape is unconditional, fenced code included: an unbalanced fence inside
// one message must not be able to swallow the next message's header.
func escapeContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if headerLikeRe.MatchString(strings.TrimLeft(line, `\`)) {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n")
}

func unescapeLine(line string) string {
	if strings.HasPrefix(line, `\`) && headerLikeRe.MatchString(strings.TrimLeft(line, `\`)) {
		return line[1:]
	}
	return line
}

// DecodeChat parses a chat document. Unknown frontmatter fields are
// ignored; a missing id or created_at is a CorruptDocumentError. The
// message count, updated_at, and provider are derived from the body:
// appends never rewrite the frontmatter, so the last assistant turn, not
// the creation-time header, says which executor was used last.
func DecodeChat(data []byte, path string) (*entity.Chat, error) {
	head, rest, err := splitFrontmatter(data, path)
	if err != nil {
		return nil, err
	}
	var h chatHeader
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, corrupt(path, "invalid frontmatter: "+err.Error())
	}
	if strings.TrimSpace(h.ChatID) == "" {
		return nil, corrupt(path, "missing chat_id")
	}
	if h.CreatedAt.IsZero() {
		return nil, corrupt(path, "missing created_at")
	}

	msgs, err := parseMessages(rest, path)
	if err != nil {
		return nil, err
	}

	c := &entity.Chat{
		ID:           h.ChatID,
		Name:         h.Name,
		Provider:     h.Provider,
		CreatedAt:    h.CreatedAt.UTC(),
		UpdatedAt:    h.UpdatedAt.UTC(),
		MessageCount: len(msgs),
		Project:      h.Project,
		Temporary:    h.Temporary,
		Messages:     msgs,
	}
	if h.ExpiresAt != nil {
		c.ExpiresAt = h.ExpiresAt.UTC()
	}
	if n := len(msgs); n > 0 {
		if last := msgs[n-1].Timestamp; last.After(c.UpdatedAt) {
			c.UpdatedAt = last
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == entity.RoleAssistant && msgs[i].Provider != "" {
			// Merged consult turns carry "primary+secondary"; the chat
			// records the primary.
			c.Provider = strings.Split(msgs[i].Provider, "+")[0]
			break
		}
	}
	return c, nil
}

func parseMessages(body string, path string) ([]entity.Message, error) {
	var msgs []entity.Message
	var cur *entity.Message
	var curLines []string

	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(curLines, "\n"))
		msgs = append(msgs, *cur)
		cur = nil
		curLines = nil
	}

	for _, line := range strings.Split(body, "\n") {
		if m := userHeadRe.FindStringSubmatch(line); m != nil {
			flush()
			ts, err := time.ParseInLocation(msgTimeFmt, m[2], time.UTC)
			if err != nil {
				return nil, corrupt(path, "bad message timestamp: "+m[2])
			}
			cur = &entity.Message{Role: entity.RoleUser, Timestamp: ts}
			continue
		}
		if m := asstHeadRe.FindStringSubmatch(line); m != nil {
			flush()
			ts, err := time.ParseInLocation(msgTimeFmt, m[3], time.UTC)
			if err != nil {
				return nil, corrupt(path, "bad message timestamp: "+m[3])
			}
			cur = &entity.Message{Role: entity.RoleAssistant, Provider: m[2], Timestamp: ts}
			continue
		}
		if cur != nil {
			curLines = append(curLines, unescapeLine(line))
		}
	}
	flush()
	return msgs, nil
}

// EncodeSummary renders a summary document.
func EncodeSummary(s *entity.Summary) ([]byte, error) {
	h := summaryHeader{
		SummaryID:      s.ID,
		Name:           s.Name,
		OriginalChatID: s.OriginalChatID,
		Type:           string(s.Kind),
		Provider:       s.Provider,
		CreatedAt:      s.CreatedAt.UTC(),
		Project:        s.Project,
		WordCount:      entity.WordCount(s.Body),
	}
	head, err := marshalFrontmatter(h)
	if err != nil {
		return nil, fmt.Errorf("encode summary %s: %w", s.ID, err)
	}
	var b strings.Builder
	b.Write(head)
	b.WriteString("# Summary: " + s.Name + "\n\n")
	fmt.Fprintf(&b, "**Kind:** %s  \n", titleCase(string(s.Kind)))
	fmt.Fprintf(&b, "**Generated:** %s  \n", s.CreatedAt.UTC().Format("2006-01-02"))
	fmt.Fprintf(&b, "**Original Chat:** %s  \n\n", s.OriginalChatID)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(s.Body))
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// DecodeSummary parses a summary document. The body is everything after the
// separator line following the display header; the word count is computed
// from the body, never trusted from the frontmatter.
func DecodeSummary(data []byte, path string) (*entity.Summary, error) {
	head, rest, err := splitFrontmatter(data, path)
	if err != nil {
		return nil, err
	}
	var h summaryHeader
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, corrupt(path, "invalid frontmatter: "+err.Error())
	}
	if strings.TrimSpace(h.SummaryID) == "" {
		return nil, corrupt(path, "missing summary_id")
	}
	if h.CreatedAt.IsZero() {
		return nil, corrupt(path, "missing created_at")
	}
	kind := entity.SummaryKind(h.Type)
	if kind != entity.SummaryShort && kind != entity.SummaryLong {
		return nil, corrupt(path, "unknown summary type: "+h.Type)
	}

	body := ""
	if i := strings.Index(rest, "\n---\n"); i >= 0 {
		body = strings.TrimSpace(rest[i+len("\n---\n"):])
	} else {
		body = strings.TrimSpace(rest)
	}

	return &entity.Summary{
		ID:             h.SummaryID,
		Name:           h.Name,
		OriginalChatID: h.OriginalChatID,
		Kind:           kind,
		Provider:       h.Provider,
		WordCount:      entity.WordCount(body),
		CreatedAt:      h.CreatedAt.UTC(),
		Project:        h.Project,
		Body:           body,
	}, nil
}

// EncodeProject renders a project metadata document.
func EncodeProject(p *entity.Project) ([]byte, error) {
	head, err := marshalFrontmatter(projectHeader{
		ProjectID: p.ID,
		Name:      p.Name,
		Namespace: p.Namespace,
		CreatedAt: p.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode project %s: %w", p.ID, err)
	}
	var b strings.Builder
	b.Write(head)
	b.WriteString("# Project: " + p.Name + "\n")
	if desc := strings.TrimSpace(p.Description); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}
	return []byte(b.String()), nil
}

// DecodeProject parses a project metadata document.
func DecodeProject(data []byte, path string) (*entity.Project, error) {
	head, rest, err := splitFrontmatter(data, path)
	if err != nil {
		return nil, err
	}
	var h projectHeader
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, corrupt(path, "invalid frontmatter: "+err.Error())
	}
	if strings.TrimSpace(h.ProjectID) == "" {
		return nil, corrupt(path, "missing project_id")
	}
	if h.CreatedAt.IsZero() {
		return nil, corrupt(path, "missing created_at")
	}
	return &entity.Project{
		ID:          h.ProjectID,
		Name:        h.Name,
		Description: docDescription(rest),
		Namespace:   h.Namespace,
		CreatedAt:   h.CreatedAt.UTC(),
	}, nil
}

// EncodeNamespace renders a namespace document.
func EncodeNamespace(n *entity.Namespace) ([]byte, error) {
	head, err := marshalFrontmatter(namespaceHeader{
		NamespaceID: n.ID,
		Name:        n.Name,
		CreatedAt:   n.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode namespace %s: %w", n.ID, err)
	}
	var b strings.Builder
	b.Write(head)
	b.WriteString("# Namespace: " + n.Name + "\n")
	if desc := strings.TrimSpace(n.Description); desc != "" {
		b.WriteString("\n" + desc + "\n")
	}
	return []byte(b.String()), nil
}

// DecodeNamespace parses a namespace document.
func DecodeNamespace(data []byte, path string) (*entity.Namespace, error) {
	head, rest, err := splitFrontmatter(data, path)
	if err != nil {
		return nil, err
	}
	var h namespaceHeader
	if err := yaml.Unmarshal(head, &h); err != nil {
		return nil, corrupt(path, "invalid frontmatter: "+err.Error())
	}
	if strings.TrimSpace(h.NamespaceID) == "" {
		return nil, corrupt(path, "missing namespace_id")
	}
	if h.CreatedAt.IsZero() {
		return nil, corrupt(path, "missing created_at")
	}
	return &entity.Namespace{
		ID:          h.NamespaceID,
		Name:        h.Name,
		Description: docDescription(rest),
		CreatedAt:   h.CreatedAt.UTC(),
	}, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// docDescription extracts the free-text description after the "# ..." line.
func docDescription(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		}
	}
	return strings.TrimSpace(body)
}
