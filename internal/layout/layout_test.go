package layout

import (
	"strings"
	"testing"
	"time"

	"github.com/omnichat/omni/internal/entity"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Database Pool Tuning", "database-pool-tuning"},
		{"  what's up?  ", "what-s-up"},
		{"___", "untitled"},
		{"", "untitled"},
		{"ALL CAPS", "all-caps"},
		{"a--b  c", "a-b-c"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Fatalf("Slug(%q): got=%q, want=%q", tt.in, got, tt.want)
		}
	}
}

func TestSlugLength(t *testing.T) {
	t.Parallel()

	s := Slug(strings.Repeat("word ", 30))
	if len(s) > 50 {
		t.Fatalf("slug too long: %d bytes", len(s))
	}
	if strings.HasSuffix(s, "-") {
		t.Fatalf("slug ends with hyphen: %q", s)
	}
}

func TestChatPath(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	tests := []struct {
		name    string
		project string
		temp    bool
		want    string
	}{
		{"standalone", "", false, "chats/permanent/20260314-092653_pool-tuning.md"},
		{"temporary", "", true, "chats/temporary/20260314-092653_pool-tuning.md"},
		{"project", "ab12cd34", false, "projects/ab12cd34/chats/20260314-092653_pool-tuning.md"},
	}
	for _, tt := range tests {
		if got := ChatPath(tt.project, tt.temp, at, "Pool Tuning"); got != tt.want {
			t.Fatalf("%s: got=%q, want=%q", tt.name, got, tt.want)
		}
	}
}

func TestSummaryPath(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	if got, want := SummaryPath("", at, "Pool Tuning"), "summaries/20260314-092653_pool-tuning_summary.md"; got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
	if got, want := SummaryPath("ab12cd34", at, "Pool Tuning"), "projects/ab12cd34/summaries/20260314-092653_pool-tuning_summary.md"; got != want {
		t.Fatalf("got=%q, want=%q", got, want)
	}
}

func TestIndexPath(t *testing.T) {
	t.Parallel()

	want := map[entity.Kind]string{
		entity.KindChat:      "chat_index.json",
		entity.KindSummary:   "summary_index.json",
		entity.KindProject:   "project_index.json",
		entity.KindNamespace: "namespace_index.json",
	}
	for kind, w := range want {
		if got := IndexPath(kind); got != w {
			t.Fatalf("IndexPath(%s): got=%q, want=%q", kind, got, w)
		}
	}
}
