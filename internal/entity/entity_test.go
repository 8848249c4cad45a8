package entity

import (
	"strings"
	"testing"
	"time"
)

func TestNewID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 8 {
			t.Fatalf("id length: got=%d, want 8 (%q)", len(id), id)
		}
		for _, r := range id {
			if !strings.ContainsRune("0123456789abcdef", r) {
				t.Fatalf("id %q contains non-hex rune %q", id, r)
			}
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestDeriveChatName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "How do I configure the database pool", "how-configure-the-database"},
		{"short words skipped", "is it ok to do this now really", "this-now-really"},
		{"punctuation stripped", "What's up, doc?!", "whats-doc"},
		{"empty", "", ""},
		{"only short words", "a b c do", ""},
		{"four word cap", "alpha bravo charlie delta echo foxtrot", "alpha-bravo-charlie-delta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveChatName(tt.input); got != tt.want {
				t.Fatalf("DeriveChatName(%q): got=%q, want=%q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDeriveChatNameLength(t *testing.T) {
	t.Parallel()

	name := DeriveChatName("supercalifragilisticexpialidocious antidisestablishmentarianism floccinaucinihilipilification pneumonoultramicroscopicsilicovolcanoconiosis")
	if len(name) > 50 {
		t.Fatalf("derived name too long: %d bytes (%q)", len(name), name)
	}
	if strings.HasSuffix(name, "-") {
		t.Fatalf("derived name ends mid-boundary: %q", name)
	}
}

func TestWordCount(t *testing.T) {
	t.Parallel()

	if got := WordCount("  one two\nthree\t four "); got != 4 {
		t.Fatalf("got=%d, want 4", got)
	}
	if got := WordCount(""); got != 0 {
		t.Fatalf("got=%d, want 0", got)
	}
}

func TestChatExpired(t *testing.T) {
	t.Parallel()

	now := Now()
	c := &Chat{Temporary: true, ExpiresAt: now.Add(time.Hour)}
	if c.Expired(now) {
		t.Fatal("chat expired before its expiry")
	}
	if !c.Expired(now.Add(time.Hour)) {
		t.Fatal("chat not expired at its expiry")
	}
	perm := &Chat{ExpiresAt: now.Add(-time.Hour)}
	if perm.Expired(now) {
		t.Fatal("permanent chat reported expired")
	}
}

func TestNowSecondPrecision(t *testing.T) {
	t.Parallel()

	ts := Now()
	if ts.Nanosecond() != 0 {
		t.Fatalf("Now has sub-second precision: %v", ts)
	}
	if ts.Location() != time.UTC {
		t.Fatalf("Now not UTC: %v", ts.Location())
	}
}
