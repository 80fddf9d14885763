package exporters

import (
	"context"

	"github.com/mrlokans/clippings/internal/entities"
)

// NoteStore is the storage collaborator books are exported to.
type NoteStore interface {
	// FindNoteByTitle returns nil, nil when no note has that exact title.
	FindNoteByTitle(ctx context.Context, title string) (*entities.Note, error)
	CreateNote(ctx context.Context, title, body, parentID string) (*entities.Note, error)
	UpdateNote(ctx context.Context, id, title, body, parentID string) error
	CreateOrGetTag(ctx context.Context, name string) (*entities.Tag, error)
	AttachTag(ctx context.Context, tagID, noteID string) error
	ListCollections(ctx context.Context) ([]entities.Collection, error)
	CreateCollection(ctx context.Context, title string) (*entities.Collection, error)
}

// TagLister is implemented by stores that can report the tags on a note.
// Updated notes then only get the tags they are missing.
type TagLister interface {
	NoteTags(ctx context.Context, noteID string) ([]string, error)
}

// ProgressFunc is called before each book is processed.
type ProgressFunc func(current, total int, label string)

// Options control a single export run.
type Options struct {
	// CollectionID wins over CollectionName. With neither, notes are created
	// at the store's top level.
	CollectionID   string
	CollectionName string

	// SkipDuplicates merges into an existing note with the same title instead
	// of creating another one.
	SkipDuplicates bool
	TagWithAuthor  bool
	BaseTags       []string
	AdditionalTags []string

	// DryRun reads from the store but never writes to it.
	DryRun bool

	Progress ProgressFunc
}

func (o Options) progress(current, total int, label string) {
	if o.Progress != nil {
		o.Progress(current, total, label)
	}
}

// DefaultBaseTags are attached to every exported note unless configured otherwise.
var DefaultBaseTags = []string{"kindle", "book", "highlights"}

// Book outcome statuses.
const (
	StatusCreated   = "created"
	StatusUpdated   = "updated"
	StatusUnchanged = "no new clippings"
	StatusEmpty     = "nothing to export"
	StatusFailed    = "failed"
)

// BookOutcome is what happened to one book during an export.
type BookOutcome struct {
	Title            string `json:"title"`
	NoteID           string `json:"note_id,omitempty"`
	Status           string `json:"status"`
	ClippingsAdded   int    `json:"clippings_added"`
	ClippingsSkipped int    `json:"clippings_skipped"`
	Error            string `json:"error,omitempty"`
}

type ExportResult struct {
	BooksProcessed   int           `json:"books_processed"`
	BooksCreated     int           `json:"books_created"`
	BooksUpdated     int           `json:"books_updated"`
	BooksSkipped     int           `json:"books_skipped"`
	ClippingsAdded   int           `json:"clippings_added"`
	ClippingsSkipped int           `json:"clippings_skipped"`
	CollectionID     string        `json:"collection_id,omitempty"`
	Outcomes         []BookOutcome `json:"outcomes"`
}

func (r *ExportResult) record(o BookOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	if o.Status == StatusFailed {
		return
	}
	r.BooksProcessed++
	r.ClippingsAdded += o.ClippingsAdded
	r.ClippingsSkipped += o.ClippingsSkipped
	switch o.Status {
	case StatusCreated:
		r.BooksCreated++
	case StatusUpdated:
		r.BooksUpdated++
	default:
		r.BooksSkipped++
	}
}
