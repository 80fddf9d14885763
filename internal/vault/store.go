// Package vault is a NoteStore backed by a directory of Markdown files, the
// layout Obsidian and similar editors open directly.
//
// Every note is one "{title}.md" file. Top-level subdirectories are
// collections. Note titles and tags are kept in a hidden YAML index at the
// vault root, since neither survives the trip through a file name.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
	"github.com/mrlokans/clippings/internal/utils"
)

const (
	IndexFileName = ".vault.yaml"
	noteExtension = ".md"
)

var (
	// ErrNotFound is returned for note ids that have no file
	ErrNotFound = errors.New("note not found in vault")
	// ErrOutsideVault is returned for ids that would escape the vault root
	ErrOutsideVault = errors.New("path is outside the vault")
)

// index is the on-disk sidecar. Note ids are slash-separated paths relative
// to the vault root, e.g. "Kindle Highlights/Dune - Frank Herbert.md".
type index struct {
	Notes map[string]string   `yaml:"notes"` // id -> title
	Tags  map[string][]string `yaml:"tags"`  // tag -> note ids
}

// Store writes notes below a root directory
type Store struct {
	root string

	mu    sync.Mutex
	index index
}

var (
	_ exporters.NoteStore = (*Store)(nil)
	_ exporters.TagLister = (*Store)(nil)
)

// NewStore opens the vault at root, creating the directory when needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	s := &Store{root: root}
	if err := s.loadIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

// Root returns the vault directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) FindNoteByTitle(_ context.Context, title string) (*entities.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.index.Notes))
	for id := range s.index.Notes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if s.index.Notes[id] == title {
			note, err := s.readNote(id)
			if errors.Is(err, ErrNotFound) {
				// deleted by hand
				continue
			}
			return note, err
		}
	}

	// Files written before the index existed, or copied in by hand
	name := utils.SanitizeFilename(title) + noteExtension
	candidates := []string{name}
	collections, err := s.listCollectionDirs()
	if err != nil {
		return nil, err
	}
	for _, dir := range collections {
		candidates = append(candidates, path.Join(dir, name))
	}
	for _, id := range candidates {
		if _, known := s.index.Notes[id]; known {
			continue
		}
		note, err := s.readNote(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		note.Title = title
		return note, nil
	}
	return nil, nil
}

func (s *Store) CreateNote(_ context.Context, title, body, parentID string) (*entities.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.freeNoteID(parentID, title)
	if err != nil {
		return nil, err
	}
	if err := s.writeFile(id, body); err != nil {
		return nil, err
	}
	s.index.Notes[id] = title
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	return &entities.Note{ID: id, Title: title, Body: body, ParentID: parentID}, nil
}

func (s *Store) UpdateNote(_ context.Context, id, title, body, parentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.abs(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(current); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}

	target := id
	if dir := path.Dir(id); dir != cleanParent(parentID) {
		target = path.Join(cleanParent(parentID), path.Base(id))
	}
	if err := s.writeFile(target, body); err != nil {
		return err
	}
	if target != id {
		if err := os.Remove(current); err != nil {
			return fmt.Errorf("failed to move note: %w", err)
		}
		delete(s.index.Notes, id)
		s.retagNote(id, target)
	}
	s.index.Notes[target] = title
	return s.saveIndex()
}

// CreateOrGetTag returns the existing tag with the same name ignoring case.
// Tag ids are the tag names.
func (s *Store) CreateOrGetTag(_ context.Context, name string) (*entities.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for existing := range s.index.Tags {
		if strings.EqualFold(existing, name) {
			return &entities.Tag{ID: existing, Title: existing}, nil
		}
	}
	s.index.Tags[name] = []string{}
	if err := s.saveIndex(); err != nil {
		return nil, err
	}
	return &entities.Tag{ID: name, Title: name}, nil
}

func (s *Store) AttachTag(_ context.Context, tagID, noteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	notes, ok := s.index.Tags[tagID]
	if !ok {
		return fmt.Errorf("unknown tag %q", tagID)
	}
	if _, ok := s.index.Notes[noteID]; !ok {
		return fmt.Errorf("%s: %w", noteID, ErrNotFound)
	}
	for _, id := range notes {
		if id == noteID {
			return nil
		}
	}
	s.index.Tags[tagID] = append(notes, noteID)
	return s.saveIndex()
}

// NoteTags lists the tags attached to a note, sorted.
func (s *Store) NoteTags(_ context.Context, noteID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tags []string
	for tag, notes := range s.index.Tags {
		for _, id := range notes {
			if id == noteID {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// ListCollections returns the top-level directories of the vault
func (s *Store) ListCollections(context.Context) ([]entities.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs, err := s.listCollectionDirs()
	if err != nil {
		return nil, err
	}
	collections := make([]entities.Collection, 0, len(dirs))
	for _, dir := range dirs {
		collections = append(collections, entities.Collection{ID: dir, Title: dir})
	}
	return collections, nil
}

func (s *Store) CreateCollection(_ context.Context, title string) (*entities.Collection, error) {
	dir := utils.SanitizeFilename(title)
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create collection directory: %w", err)
	}
	return &entities.Collection{ID: dir, Title: dir}, nil
}

func (s *Store) listCollectionDirs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read vault directory: %w", err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// freeNoteID picks "{parent}/{title}.md", adding " (2)", " (3)" ... when a
// different note already owns the name.
func (s *Store) freeNoteID(parentID, title string) (string, error) {
	base := utils.SanitizeFilename(title)
	for n := 1; ; n++ {
		name := base
		if n > 1 {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		id := path.Join(cleanParent(parentID), name+noteExtension)
		abs, err := s.abs(id)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return id, nil
		}
	}
}

func (s *Store) readNote(id string) (*entities.Note, error) {
	abs, err := s.abs(id)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(abs)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	parent := path.Dir(id)
	if parent == "." {
		parent = ""
	}
	return &entities.Note{ID: id, Title: s.index.Notes[id], Body: string(body), ParentID: parent}, nil
}

func (s *Store) writeFile(id, content string) error {
	abs, err := s.abs(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return fmt.Errorf("failed to create note directory: %w", err)
	}
	return writeAtomic(abs, []byte(content))
}

func (s *Store) retagNote(from, to string) {
	for tag, notes := range s.index.Tags {
		for i, id := range notes {
			if id == from {
				s.index.Tags[tag][i] = to
			}
		}
	}
}

// abs resolves a note id below the root, refusing anything that escapes it.
func (s *Store) abs(id string) (string, error) {
	for _, part := range strings.Split(id, "/") {
		if part == ".." {
			return "", fmt.Errorf("%q: %w", id, ErrOutsideVault)
		}
	}
	clean := path.Clean("/" + id)
	if clean == "/" {
		return "", fmt.Errorf("%q: %w", id, ErrOutsideVault)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}

func (s *Store) loadIndex() error {
	s.index = index{Notes: map[string]string{}, Tags: map[string][]string{}}

	data, err := os.ReadFile(filepath.Join(s.root, IndexFileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read vault index: %w", err)
	}
	if err := yaml.Unmarshal(data, &s.index); err != nil {
		return fmt.Errorf("failed to parse vault index: %w", err)
	}
	if s.index.Notes == nil {
		s.index.Notes = map[string]string{}
	}
	if s.index.Tags == nil {
		s.index.Tags = map[string][]string{}
	}
	return nil
}

func (s *Store) saveIndex() error {
	data, err := yaml.Marshal(&s.index)
	if err != nil {
		return fmt.Errorf("failed to encode vault index: %w", err)
	}
	return writeAtomic(filepath.Join(s.root, IndexFileName), data)
}

func cleanParent(parentID string) string {
	parent := path.Clean(strings.Trim(parentID, "/"))
	if parent == "." {
		return "."
	}
	return parent
}

// writeAtomic replaces path through a rename so readers never see half a file
func writeAtomic(target string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(target), err)
	}
	return nil
}
