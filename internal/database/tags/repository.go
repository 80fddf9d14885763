// Package tags provides database operations for tag management.
//
// # Usage
//
//	repo := tags.NewRepository(db)
//	tag, err := repo.GetOrCreateTag(ctx, "kindle")
//	err = repo.AddTagToNote(ctx, noteID, tag.ID)
package tags

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/clippings/internal/entities"
)

// Repository handles all tag database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tags repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTag creates a new tag.
func (r *Repository) CreateTag(ctx context.Context, name string) (*entities.Tag, error) {
	tag := &entities.Tag{
		ID:    uuid.NewString(),
		Title: name,
	}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

// GetOrCreateTag retrieves or creates a tag (case-insensitive).
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*entities.Tag, error) {
	var tag entities.Tag
	err := r.db.WithContext(ctx).Where("LOWER(title) = LOWER(?)", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.CreateTag(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// AddTagToNote associates a tag with a note. Adding it twice is a no-op.
func (r *Repository) AddTagToNote(ctx context.Context, noteID, tagID string) error {
	db := r.db.WithContext(ctx)
	var note entities.Note
	if err := db.First(&note, "id = ?", noteID).Error; err != nil {
		return err
	}
	var tag entities.Tag
	if err := db.First(&tag, "id = ?", tagID).Error; err != nil {
		return err
	}
	return db.Model(&note).Association("Tags").Append(&tag)
}

// GetTagsForNote returns the tags attached to a note, ordered by title.
func (r *Repository) GetTagsForNote(ctx context.Context, noteID string) ([]entities.Tag, error) {
	var tags []entities.Tag
	err := r.db.WithContext(ctx).
		Joins("JOIN note_tags ON note_tags.tag_id = tags.id").
		Where("note_tags.note_id = ?", noteID).
		Order("tags.title ASC").
		Find(&tags).Error
	return tags, err
}
