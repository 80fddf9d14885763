package exporters

import (
	"context"
	"fmt"
	"strings"

	"github.com/mrlokans/clippings/internal/document"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/trace"
)

// Exporter pushes a bookshelf into a NoteStore, one note per book.
// Books are processed sequentially in shelf order.
type Exporter struct {
	store NoteStore
	trace trace.Func
}

func NewExporter(store NoteStore, tr trace.Func) *Exporter {
	return &Exporter{store: store, trace: trace.OrNop(tr)}
}

// Export writes every book of the shelf. The first store error stops the run;
// the returned result then covers the books handled before the failure.
func (e *Exporter) Export(ctx context.Context, shelf *entities.Bookshelf, opts Options) (ExportResult, error) {
	result := ExportResult{}

	parentID, err := e.resolveCollection(ctx, opts)
	if err != nil {
		return result, fmt.Errorf("failed to resolve collection: %w", err)
	}
	result.CollectionID = parentID

	groups := shelf.Groups()
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		title := group.DocumentTitle()
		opts.progress(i+1, len(groups), title)

		outcome, err := e.exportBook(ctx, group, parentID, opts)
		if err != nil {
			result.record(BookOutcome{Title: title, Status: StatusFailed, Error: err.Error()})
			return result, fmt.Errorf("failed to export %q: %w", title, err)
		}
		e.trace("%s: %s (%d added, %d skipped)", title, outcome.Status, outcome.ClippingsAdded, outcome.ClippingsSkipped)
		result.record(outcome)
	}

	return result, nil
}

func (e *Exporter) resolveCollection(ctx context.Context, opts Options) (string, error) {
	if opts.CollectionID != "" {
		return opts.CollectionID, nil
	}
	name := strings.TrimSpace(opts.CollectionName)
	if name == "" {
		return "", nil
	}

	collections, err := e.store.ListCollections(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range collections {
		if c.Title == name {
			return c.ID, nil
		}
	}

	if opts.DryRun {
		e.trace("collection %q would be created", name)
		return "", nil
	}
	created, err := e.store.CreateCollection(ctx, name)
	if err != nil {
		return "", err
	}
	e.trace("created collection %q (%s)", name, created.ID)
	return created.ID, nil
}

func (e *Exporter) exportBook(ctx context.Context, group *entities.BookGroup, parentID string, opts Options) (BookOutcome, error) {
	title := group.DocumentTitle()
	outcome := BookOutcome{Title: title}

	var existing *entities.Note
	if opts.SkipDuplicates {
		note, err := e.store.FindNoteByTitle(ctx, title)
		if err != nil {
			return outcome, err
		}
		existing = note
	}

	if existing != nil {
		merged := document.Merge(existing.Body, group.Clippings, e.trace)
		outcome.NoteID = existing.ID
		outcome.ClippingsSkipped = merged.Skipped
		if merged.Added == 0 {
			outcome.Status = StatusUnchanged
			return outcome, nil
		}
		outcome.ClippingsAdded = merged.Added
		outcome.Status = StatusUpdated
		if opts.DryRun {
			return outcome, nil
		}
		// Notes stay in the collection they were filed under.
		if err := e.store.UpdateNote(ctx, existing.ID, title, merged.Text, existing.ParentID); err != nil {
			return outcome, err
		}
	} else {
		if group.RenderableCount() == 0 {
			outcome.Status = StatusEmpty
			return outcome, nil
		}
		doc := document.Render(group)
		outcome.ClippingsAdded = group.RenderableCount()
		outcome.Status = StatusCreated
		if opts.DryRun {
			return outcome, nil
		}
		note, err := e.store.CreateNote(ctx, title, doc.String(), parentID)
		if err != nil {
			return outcome, err
		}
		outcome.NoteID = note.ID
	}

	if err := e.attachTags(ctx, outcome.NoteID, TagsFor(group, opts), existing != nil); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (e *Exporter) attachTags(ctx context.Context, noteID string, names []string, existingNote bool) error {
	attached := make(map[string]bool)
	if lister, ok := e.store.(TagLister); ok && existingNote {
		current, err := lister.NoteTags(ctx, noteID)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}
		for _, name := range current {
			attached[strings.ToLower(name)] = true
		}
	}

	for _, name := range names {
		if attached[strings.ToLower(name)] {
			continue
		}
		tag, err := e.store.CreateOrGetTag(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to create tag %q: %w", name, err)
		}
		if err := e.store.AttachTag(ctx, tag.ID, noteID); err != nil {
			return fmt.Errorf("failed to attach tag %q: %w", name, err)
		}
	}
	return nil
}

// TagsFor lists the tags a book's note gets: base tags, the author tag and
// any additional tags, without blanks or repeats.
func TagsFor(group *entities.BookGroup, opts Options) []string {
	base := opts.BaseTags
	if base == nil {
		base = DefaultBaseTags
	}

	candidates := append([]string{}, base...)
	if opts.TagWithAuthor && group.Author != "" {
		candidates = append(candidates, "author:"+group.Author)
	}
	candidates = append(candidates, opts.AdditionalTags...)

	seen := make(map[string]bool, len(candidates))
	tags := make([]string, 0, len(candidates))
	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		tags = append(tags, name)
	}
	return tags
}
