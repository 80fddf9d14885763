package entities

import "time"

// Note is a persisted document in a note store.
type Note struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Title     string    `gorm:"index;size:1024" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	ParentID  string    `gorm:"index;size:64" json:"parent_id,omitempty"`
	Tags      []Tag     `gorm:"many2many:note_tags;" json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Collection groups notes (a Joplin notebook, a vault subdirectory).
type Collection struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Title     string    `gorm:"index;size:512" json:"title"`
	ParentID  string    `gorm:"size:64" json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Tag struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Title     string    `gorm:"uniqueIndex;size:255" json:"title"`
	Notes     []Note    `gorm:"many2many:note_tags;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Note) TableName() string {
	return "notes"
}

func (Collection) TableName() string {
	return "collections"
}

func (Tag) TableName() string {
	return "tags"
}
