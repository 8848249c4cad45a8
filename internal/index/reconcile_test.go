package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/layout"
)

func writeChatDoc(t *testing.T, root string, c *entity.Chat) string {
	t.Helper()
	rel := layout.ChatPath(c.Project, c.Temporary, c.CreatedAt, c.Name)
	data, err := codec.EncodeChat(c)
	if err != nil {
		t.Fatalf("encode chat: %v", err)
	}
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write chat doc: %v", err)
	}
	return rel
}

func TestReconcileAdoptsOrphans(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := &entity.Chat{
		ID:        "ab12cd34",
		Name:      "orphan",
		CreatedAt: ts("2026-03-14 09:26:53"),
		UpdatedAt: ts("2026-03-14 09:26:53"),
	}
	rel := writeChatDoc(t, root, c)

	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rep, err := Reconcile(x, root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if rep.Scanned != 1 || rep.Rebuilt != 1 {
		t.Fatalf("scanned=%d rebuilt=%d, want 1/1", rep.Scanned, rep.Rebuilt)
	}
	if len(rep.OrphanDocuments) != 1 || rep.OrphanDocuments[0] != rel {
		t.Fatalf("orphans: got=%v, want [%s]", rep.OrphanDocuments, rel)
	}
	e, ok := x.Get("ab12cd34")
	if !ok {
		t.Fatal("orphan not adopted")
	}
	if e.Path != rel {
		t.Fatalf("adopted path: got=%q, want=%q", e.Path, rel)
	}
}

func TestReconcileDropsMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stale := chatEntry("dead0000", "gone", "", ts("2026-03-14 08:00:00"))
	if err := x.Put(stale); err != nil {
		t.Fatalf("put: %v", err)
	}
	rep, err := Reconcile(x, root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(rep.MissingFiles) != 1 || rep.MissingFiles[0] != "dead0000" {
		t.Fatalf("missing: got=%v, want [dead0000]", rep.MissingFiles)
	}
	if _, ok := x.Get("dead0000"); ok {
		t.Fatal("stale entry survived reconcile")
	}
}

func TestReconcileReportsCorrupt(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir := filepath.Join(root, "chats", "permanent")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.md"), []byte("not a document"), 0o600); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rep, err := Reconcile(x, root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(rep.Corrupt) != 1 {
		t.Fatalf("corrupt: got=%v, want one file", rep.Corrupt)
	}
	if rep.Rebuilt != 0 {
		t.Fatalf("rebuilt=%d from corrupt input", rep.Rebuilt)
	}
	if rep.Clean() {
		t.Fatal("report claims clean with corrupt file present")
	}
}

func TestReconcileResolvesDuplicatesByPreviousPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	c := &entity.Chat{
		ID:        "ab12cd34",
		Name:      "original",
		CreatedAt: ts("2026-03-14 09:26:53"),
		UpdatedAt: ts("2026-03-14 09:26:53"),
	}
	keepRel := writeChatDoc(t, root, c)
	c.Name = "renamed copy"
	loseRel := writeChatDoc(t, root, c)

	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := x.Put(Entry{ID: "ab12cd34", Kind: entity.KindChat, Name: "original", Path: keepRel, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}); err != nil {
		t.Fatalf("put: %v", err)
	}
	rep, err := Reconcile(x, root)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(rep.Duplicates) != 1 || rep.Duplicates[0] != loseRel {
		t.Fatalf("duplicates: got=%v, want [%s]", rep.Duplicates, loseRel)
	}
	e, _ := x.Get("ab12cd34")
	if e.Path != keepRel {
		t.Fatalf("kept path: got=%q, want=%q", e.Path, keepRel)
	}
}

func TestReconcileKindsByLocation(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	now := ts("2026-03-14 09:26:53")

	n := &entity.Namespace{ID: "9a8b7c6d", Name: "work", CreatedAt: now}
	nsData, _ := codec.EncodeNamespace(n)
	nsRel := layout.NamespacePath(now, n.Name)
	mustWrite(t, filepath.Join(root, nsRel), nsData)

	p := &entity.Project{ID: "ef56ab78", Name: "backend", Namespace: n.ID, CreatedAt: now}
	pData, _ := codec.EncodeProject(p)
	mustWrite(t, filepath.Join(root, layout.ProjectPath(p.ID)), pData)

	s := &entity.Summary{ID: "cd34ef56", Name: "done", OriginalChatID: "ab12cd34", Kind: entity.SummaryShort, CreatedAt: now, Project: p.ID, Body: "it worked"}
	sData, _ := codec.EncodeSummary(s)
	mustWrite(t, filepath.Join(root, layout.SummaryPath(p.ID, now, s.Name)), sData)

	writeChatDoc(t, root, &entity.Chat{ID: "ab12cd34", Name: "active", Project: p.ID, CreatedAt: now, UpdatedAt: now})

	x, err := Open(root)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := Reconcile(x, root); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	wantKinds := map[string]entity.Kind{
		"9a8b7c6d": entity.KindNamespace,
		"ef56ab78": entity.KindProject,
		"cd34ef56": entity.KindSummary,
		"ab12cd34": entity.KindChat,
	}
	for id, kind := range wantKinds {
		e, ok := x.Get(id)
		if !ok {
			t.Fatalf("%s not rebuilt", id)
		}
		if e.Kind != kind {
			t.Fatalf("%s: got kind=%s, want=%s", id, e.Kind, kind)
		}
	}
}

func mustWrite(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
