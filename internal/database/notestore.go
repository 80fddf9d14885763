package database

import (
	"context"

	"github.com/mrlokans/clippings/internal/database/notes"
	"github.com/mrlokans/clippings/internal/database/tags"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/exporters"
)

// NoteStore adapts the notes and tags repositories to exporters.NoteStore.
type NoteStore struct {
	notes *notes.Repository
	tags  *tags.Repository
}

var (
	_ exporters.NoteStore = (*NoteStore)(nil)
	_ exporters.TagLister = (*NoteStore)(nil)
)

func (s *NoteStore) FindNoteByTitle(ctx context.Context, title string) (*entities.Note, error) {
	return s.notes.FindByTitle(ctx, title)
}

func (s *NoteStore) CreateNote(ctx context.Context, title, body, parentID string) (*entities.Note, error) {
	return s.notes.Create(ctx, title, body, parentID)
}

func (s *NoteStore) UpdateNote(ctx context.Context, id, title, body, parentID string) error {
	return s.notes.Update(ctx, id, title, body, parentID)
}

func (s *NoteStore) CreateOrGetTag(ctx context.Context, name string) (*entities.Tag, error) {
	return s.tags.GetOrCreateTag(ctx, name)
}

func (s *NoteStore) AttachTag(ctx context.Context, tagID, noteID string) error {
	return s.tags.AddTagToNote(ctx, noteID, tagID)
}

func (s *NoteStore) NoteTags(ctx context.Context, noteID string) ([]string, error) {
	attached, err := s.tags.GetTagsForNote(ctx, noteID)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(attached))
	for i, tag := range attached {
		names[i] = tag.Title
	}
	return names, nil
}

func (s *NoteStore) ListCollections(ctx context.Context) ([]entities.Collection, error) {
	return s.notes.ListCollections(ctx)
}

func (s *NoteStore) CreateCollection(ctx context.Context, title string) (*entities.Collection, error) {
	return s.notes.CreateCollection(ctx, title)
}
