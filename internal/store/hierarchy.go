package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnichat/omni/internal/atomicfile"
	"github.com/omnichat/omni/internal/codec"
	"github.com/omnichat/omni/internal/entity"
	"github.com/omnichat/omni/internal/index"
	"github.com/omnichat/omni/internal/layout"
)

// CreateNamespace creates a namespace. Display names are unique among
// namespaces, compared case-insensitively.
func (s *Store) CreateNamespace(name, description string) (*entity.Namespace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("namespace name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkNameFreeLocked(entity.KindNamespace, name, ""); err != nil {
		return nil, err
	}
	n := &entity.Namespace{
		ID:          entity.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now(),
	}
	data, err := codec.EncodeNamespace(n)
	if err != nil {
		return nil, err
	}
	rel, err := s.createDoc(layout.NamespacePath(n.CreatedAt, n.Name), n.ID, data)
	if err != nil {
		return nil, err
	}
	if err := s.idx.Put(index.NamespaceEntry(n, rel)); err != nil {
		_ = atomicfile.Remove(s.abs(rel))
		return nil, err
	}
	s.log.Info("namespace created", "id", n.ID, "name", n.Name)
	return n, nil
}

// CreateProject creates a project, optionally attached to a namespace.
// Display names are unique among projects, compared case-insensitively.
func (s *Store) CreateProject(name, description, namespaceID string) (*entity.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("project name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	namespaceID = strings.TrimSpace(namespaceID)
	if namespaceID != "" {
		if _, err := s.entryOf(namespaceID, entity.KindNamespace); err != nil {
			return nil, err
		}
	}
	if err := s.checkNameFreeLocked(entity.KindProject, name, ""); err != nil {
		return nil, err
	}
	p := &entity.Project{
		ID:          entity.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Namespace:   namespaceID,
		CreatedAt:   s.now(),
	}
	data, err := codec.EncodeProject(p)
	if err != nil {
		return nil, err
	}
	rel := layout.ProjectPath(p.ID)
	if err := atomicfile.Create(s.abs(rel), data); err != nil {
		return nil, err
	}
	if err := s.idx.Put(index.ProjectEntry(p)); err != nil {
		_ = atomicfile.Remove(s.abs(rel))
		return nil, err
	}
	s.log.Info("project created", "id", p.ID, "name", p.Name, "namespace", p.Namespace)
	return p, nil
}

// AttachProject attaches a project to a namespace. A project belongs to
// at most one namespace; attaching an attached project is rejected.
func (s *Store) AttachProject(projectID, namespaceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.entryOf(namespaceID, entity.KindNamespace); err != nil {
		return err
	}
	e, err := s.entryOf(projectID, entity.KindProject)
	if err != nil {
		return err
	}
	p, err := s.loadProject(e)
	if err != nil {
		return err
	}
	if p.Namespace != "" {
		return fmt.Errorf("%w: project %s is in namespace %s", ErrAlreadyAttached, p.ID, p.Namespace)
	}
	p.Namespace = strings.TrimSpace(namespaceID)
	return s.rewriteProjectLocked(p)
}

// DetachProject removes a project from its namespace. Detaching an
// unattached project is a no-op.
func (s *Store) DetachProject(projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(projectID, entity.KindProject)
	if err != nil {
		return err
	}
	p, err := s.loadProject(e)
	if err != nil {
		return err
	}
	if p.Namespace == "" {
		return nil
	}
	p.Namespace = ""
	return s.rewriteProjectLocked(p)
}

// DeleteNamespace removes a namespace. Member projects survive: they are
// detached, never deleted, before the namespace document goes away.
func (s *Store) DeleteNamespace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindNamespace)
	if err != nil {
		return err
	}
	for _, pe := range s.idx.List(index.Filter{Kind: entity.KindProject}) {
		if pe.Namespace != e.ID {
			continue
		}
		p, err := s.loadProject(pe)
		if err != nil {
			return err
		}
		p.Namespace = ""
		if err := s.rewriteProjectLocked(p); err != nil {
			return err
		}
	}
	if err := atomicfile.Remove(s.abs(e.Path)); err != nil {
		return err
	}
	if err := s.idx.Remove(e.ID); err != nil {
		return err
	}
	s.log.Info("namespace deleted", "id", e.ID, "name", e.Name)
	return nil
}

// DeleteProject removes a project. Member chats and summaries survive as
// standalone documents, relocated to the top-level areas before the
// project document goes away.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindProject)
	if err != nil {
		return err
	}
	for _, ce := range s.idx.List(index.Filter{Kind: entity.KindChat, Project: e.ID}) {
		c, err := s.loadChat(ce)
		if err != nil {
			return err
		}
		c.Project = ""
		if err := s.relocateChatLocked(c, ce.Path); err != nil {
			return err
		}
	}
	for _, se := range s.idx.List(index.Filter{Kind: entity.KindSummary, Project: e.ID}) {
		sum, err := s.loadSummary(se)
		if err != nil {
			return err
		}
		sum.Project = ""
		if err := s.relocateSummaryLocked(sum, se.Path); err != nil {
			return err
		}
	}
	if err := atomicfile.Remove(s.abs(e.Path)); err != nil {
		return err
	}
	if err := s.idx.Remove(e.ID); err != nil {
		return err
	}
	// The project directory should be empty now; leftovers stay put.
	dir := filepath.Dir(s.abs(e.Path))
	_ = os.Remove(filepath.Join(dir, "chats"))
	_ = os.Remove(filepath.Join(dir, "summaries"))
	_ = os.Remove(dir)
	s.log.Info("project deleted", "id", e.ID, "name", e.Name)
	return nil
}

// RenameNamespace changes a namespace's display name. The id is stable;
// the document moves to the slug-derived path for the new name.
func (s *Store) RenameNamespace(id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New("namespace name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindNamespace)
	if err != nil {
		return err
	}
	if err := s.checkNameFreeLocked(entity.KindNamespace, newName, e.ID); err != nil {
		return err
	}
	n, err := s.loadNamespace(e)
	if err != nil {
		return err
	}
	n.Name = newName
	data, err := codec.EncodeNamespace(n)
	if err != nil {
		return err
	}
	rel, err := s.moveDoc(e.Path, layout.NamespacePath(n.CreatedAt, n.Name), n.ID, data)
	if err != nil {
		return err
	}
	return s.idx.Put(index.NamespaceEntry(n, rel))
}

// RenameProject changes a project's display name. The project directory
// is keyed by id, so nothing moves on disk.
func (s *Store) RenameProject(id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return errors.New("project name is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.entryOf(id, entity.KindProject)
	if err != nil {
		return err
	}
	if err := s.checkNameFreeLocked(entity.KindProject, newName, e.ID); err != nil {
		return err
	}
	p, err := s.loadProject(e)
	if err != nil {
		return err
	}
	p.Name = newName
	return s.rewriteProjectLocked(p)
}

// checkNameFreeLocked enforces display-name uniqueness for kinds that
// require it. exclude skips the entity being renamed.
func (s *Store) checkNameFreeLocked(kind entity.Kind, name, exclude string) error {
	for _, e := range s.idx.List(index.Filter{Kind: kind}) {
		if e.ID != exclude && strings.EqualFold(e.Name, name) {
			return fmt.Errorf("%w: %s %q", ErrExists, kind, name)
		}
	}
	return nil
}

// rewriteProjectLocked re-encodes a project in place and refreshes its
// index entry. The path never changes, so a plain replace suffices.
func (s *Store) rewriteProjectLocked(p *entity.Project) error {
	data, err := codec.EncodeProject(p)
	if err != nil {
		return err
	}
	if err := atomicfile.Replace(s.abs(layout.ProjectPath(p.ID)), data); err != nil {
		return err
	}
	return s.idx.Put(index.ProjectEntry(p))
}

// relocateChatLocked re-encodes a chat at its canonical path for the
// current placement and refreshes its index entry.
func (s *Store) relocateChatLocked(c *entity.Chat, oldRel string) error {
	data, err := codec.EncodeChat(c)
	if err != nil {
		return err
	}
	newRel := layout.ChatPath(c.Project, c.Temporary, c.CreatedAt, c.Name)
	rel, err := s.moveDoc(oldRel, newRel, c.ID, data)
	if err != nil {
		return err
	}
	return s.idx.Put(index.ChatEntry(c, rel))
}

// relocateSummaryLocked re-encodes a summary at its canonical path and
// refreshes its index entry.
func (s *Store) relocateSummaryLocked(sum *entity.Summary, oldRel string) error {
	data, err := codec.EncodeSummary(sum)
	if err != nil {
		return err
	}
	newRel := layout.SummaryPath(sum.Project, sum.CreatedAt, sum.Name)
	rel, err := s.moveDoc(oldRel, newRel, sum.ID, data)
	if err != nil {
		return err
	}
	return s.idx.Put(index.SummaryEntry(sum, rel))
}
