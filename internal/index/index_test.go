package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/layout"
)

func ts(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func chatEntry(id, name, project string, updated time.Time) Entry {
	return Entry{
		ID:        id,
		Kind:      entity.KindChat,
		Name:      name,
		Path:      "chats/permanent/" + id + ".md",
		Project:   project,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
}

func TestPutGetRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	e := chatEntry("ab12cd34", "pool tuning", "", ts("2026-03-14 09:26:53"))
	if err := x.Put(e); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok := x.Get("ab12cd34")
	if !ok {
		t.Fatal("entry not found after put")
	}
	if got.Name != "pool tuning" {
		t.Fatalf("got=%q, want=%q", got.Name, "pool tuning")
	}
	if err := x.Remove("ab12cd34"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := x.Get("ab12cd34"); ok {
		t.Fatal("entry survived remove")
	}
	// Removing a missing entry is not an error.
	if err := x.Remove("ab12cd34"); err != nil {
		t.Fatalf("second remove: %v", err)
	}
}

func TestPutPersistsBeforeSuccess(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := x.Put(chatEntry("ab12cd34", "pool tuning", "", ts("2026-03-14 09:26:53"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	// A fresh handle must see the entry without any extra flush.
	y, err := Open(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := y.Get("ab12cd34"); !ok {
		t.Fatal("entry not durable across reopen")
	}
}

func TestListOrderAndFilter(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	older := chatEntry("aaaa1111", "alpha", "", ts("2026-03-14 08:00:00"))
	newer := chatEntry("bbbb2222", "beta", "", ts("2026-03-14 09:00:00"))
	tie := chatEntry("cccc3333", "gamma", "", ts("2026-03-14 09:00:00"))
	proj := Entry{ID: "ef56ab78", Kind: entity.KindProject, Name: "backend", Path: layout.ProjectPath("ef56ab78"), Namespace: "9a8b7c6d", CreatedAt: ts("2026-03-01 00:00:00"), UpdatedAt: ts("2026-03-01 00:00:00")}
	inProj := chatEntry("dddd4444", "delta", "ef56ab78", ts("2026-03-14 07:00:00"))
	for _, e := range []Entry{older, newer, tie, proj, inProj} {
		if err := x.Put(e); err != nil {
			t.Fatalf("put %s: %v", e.ID, err)
		}
	}

	chats := x.List(Filter{Kind: entity.KindChat})
	wantOrder := []string{"bbbb2222", "cccc3333", "aaaa1111", "dddd4444"}
	if len(chats) != len(wantOrder) {
		t.Fatalf("got=%d entries, want=%d", len(chats), len(wantOrder))
	}
	for i, id := range wantOrder {
		if chats[i].ID != id {
			t.Fatalf("position %d: got=%s, want=%s", i, chats[i].ID, id)
		}
	}

	scoped := x.List(Filter{Kind: entity.KindChat, Project: "ef56ab78"})
	if len(scoped) != 1 || scoped[0].ID != "dddd4444" {
		t.Fatalf("project filter: got=%+v", scoped)
	}

	// Namespace scope resolves through the project back-reference.
	inNS := x.List(Filter{Kind: entity.KindChat, Namespace: "9a8b7c6d"})
	if len(inNS) != 1 || inNS[0].ID != "dddd4444" {
		t.Fatalf("namespace filter: got=%+v", inNS)
	}
}

func TestFindByName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = x.Put(chatEntry("aaaa1111", "Database Pool Tuning", "", ts("2026-03-14 08:00:00")))
	_ = x.Put(chatEntry("bbbb2222", "pool party planning", "", ts("2026-03-14 09:00:00")))
	_ = x.Put(chatEntry("cccc3333", "unrelated", "", ts("2026-03-14 10:00:00")))

	got := x.FindByName(Filter{Kind: entity.KindChat}, "POOL")
	if len(got) != 2 {
		t.Fatalf("got=%d matches, want 2", len(got))
	}
	if got[0].ID != "bbbb2222" {
		t.Fatalf("order: got=%s first, want bbbb2222", got[0].ID)
	}
	if out := x.FindByName(Filter{Kind: entity.KindChat}, ""); out != nil {
		t.Fatalf("empty fragment matched %d entries", len(out))
	}
}

func TestOpenToleratesDamagedIndexFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = x.Put(chatEntry("aaaa1111", "alpha", "", ts("2026-03-14 08:00:00")))
	if err := os.WriteFile(filepath.Join(root, layout.IndexPath(entity.KindChat)), []byte("{broken"), 0o600); err != nil {
		t.Fatalf("damage index: %v", err)
	}
	y, err := Open(root)
	if err != nil {
		t.Fatalf("reopen with damaged file: %v", err)
	}
	if _, ok := y.Get("aaaa1111"); ok {
		t.Fatal("entry decoded from damaged file")
	}
}
