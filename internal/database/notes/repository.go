// Package notes provides database operations for notes and collections.
package notes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mrlokans/clippings/internal/entities"
)

// ErrNotFound is returned when updating a note that does not exist.
var ErrNotFound = errors.New("note not found")

// Repository handles all note and collection database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new notes repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByTitle returns the oldest note with exactly this title, or nil.
func (r *Repository) FindByTitle(ctx context.Context, title string) (*entities.Note, error) {
	var note entities.Note
	err := r.db.WithContext(ctx).Where("title = ?", title).Order("created_at ASC").First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Create stores a new note under a fresh id.
func (r *Repository) Create(ctx context.Context, title, body, parentID string) (*entities.Note, error) {
	note := &entities.Note{
		ID:       uuid.NewString(),
		Title:    title,
		Body:     body,
		ParentID: parentID,
	}
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

// Update replaces a note's title, body and parent.
func (r *Repository) Update(ctx context.Context, id, title, body, parentID string) error {
	result := r.db.WithContext(ctx).Model(&entities.Note{}).Where("id = ?", id).Updates(map[string]any{
		"title":     title,
		"body":      body,
		"parent_id": parentID,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCollections returns all collections ordered by title.
func (r *Repository) ListCollections(ctx context.Context) ([]entities.Collection, error) {
	var collections []entities.Collection
	err := r.db.WithContext(ctx).Order("title ASC").Find(&collections).Error
	return collections, err
}

// CreateCollection creates a top-level collection.
func (r *Repository) CreateCollection(ctx context.Context, title string) (*entities.Collection, error) {
	collection := &entities.Collection{
		ID:    uuid.NewString(),
		Title: title,
	}
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return nil, err
	}
	return collection, nil
}
