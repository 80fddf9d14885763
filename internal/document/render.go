package document

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mrlokans/clippings/internal/entities"
)

// Entry is one location section of a document. Text holds the full rendered
// section, heading and trailing blank line included. Several clippings that
// share a location key live in the same Entry.
type Entry struct {
	Key   string
	Start int
	End   int
	Text  string
}

// Document is the textual form of a book's note: header followed by entries
// in ascending location order.
type Document struct {
	Title   string
	Header  string
	Entries []Entry
}

// String assembles the document text.
func (d Document) String() string {
	var b strings.Builder
	header := d.Header
	if len(d.Entries) > 0 && header != "" && !strings.HasSuffix(header, "\n") {
		header += "\n\n"
	}
	b.WriteString(header)
	for i, e := range d.Entries {
		b.WriteString(e.Text)
		// keep the next heading at the start of a line
		if i < len(d.Entries)-1 && !strings.HasSuffix(e.Text, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Keys lists the location keys in document order.
func (d Document) Keys() []string {
	keys := make([]string, len(d.Entries))
	for i, e := range d.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Render produces the document for a book that has no persisted note yet.
// Bookmarks are left out.
func Render(group *entities.BookGroup) Document {
	doc := Document{
		Title:  group.DocumentTitle(),
		Header: Header(group.DocumentTitle()),
	}

	index := make(map[string]int)
	for _, c := range sortClippings(group.Clippings) {
		if c.IsBookmark() {
			continue
		}
		doc.addEntry(index, c)
	}
	return doc
}

func (d *Document) addEntry(index map[string]int, c entities.Clipping) {
	key := c.LocationKey()
	text := RenderEntry(c)
	if i, ok := index[key]; ok {
		d.Entries[i].Text += text
		return
	}
	index[key] = len(d.Entries)
	d.Entries = append(d.Entries, Entry{
		Key:   key,
		Start: c.StartNumber(),
		End:   c.EndNumber(),
		Text:  text,
	})
}

// RenderEntry renders a single clipping section.
func RenderEntry(c entities.Clipping) string {
	var b strings.Builder

	fmt.Fprintf(&b, entryHeadingFormat, c.LocationStart, c.LocationEnd)
	if c.Page != "" {
		fmt.Fprintf(&b, pageSuffixFormat, c.Page)
	}
	b.WriteString("\n")

	if c.Kind == entities.ClipKindHighlight {
		fmt.Fprintf(&b, "> %s\n", strings.ReplaceAll(c.Body, "\n", "\n> "))
	} else {
		fmt.Fprintf(&b, "%s\n", escapeHeadings(c.Body))
	}

	if c.AddedAt != nil {
		fmt.Fprintf(&b, addedOnFormat, c.AddedAt.UTC().Format(addedOnDateLayout))
	}

	fmt.Fprintf(&b, hashMarkerFormat, c.ContentHash)
	b.WriteString("\n")
	return b.String()
}

// sortClippings returns a copy ordered by numeric location start, then end.
// Ties keep their input order.
func sortClippings(clippings []entities.Clipping) []entities.Clipping {
	sorted := make([]entities.Clipping, len(clippings))
	copy(sorted, clippings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartNumber() != sorted[j].StartNumber() {
			return sorted[i].StartNumber() < sorted[j].StartNumber()
		}
		return sorted[i].EndNumber() < sorted[j].EndNumber()
	})
	return sorted
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Start != entries[j].Start {
			return entries[i].Start < entries[j].Start
		}
		return entries[i].End < entries[j].End
	})
}
