package entities

import (
	"strconv"
	"time"
)

// ClipKind is the kind of annotation a Kindle clipping records.
type ClipKind string

const (
	ClipKindHighlight ClipKind = "Highlight"
	ClipKindNote      ClipKind = "Note"
	ClipKindBookmark  ClipKind = "Bookmark"
)

// Clipping is one annotation event parsed from My Clippings.txt.
// Clippings are immutable once the parser has produced them.
type Clipping struct {
	BookTitle     string     `json:"book_title"`
	Author        string     `json:"author,omitempty"` // empty when the title line carries none
	Kind          ClipKind   `json:"kind"`
	Page          string     `json:"page,omitempty"`
	LocationStart string     `json:"location_start"`
	LocationEnd   string     `json:"location_end"`
	AddedAt       *time.Time `json:"added_at,omitempty"` // nil when the date text could not be parsed
	Body          string     `json:"body"`
	ContentHash   string     `json:"content_hash"`
}

// LocationKey identifies the clipping's position range, "{start}-{end}".
func (c Clipping) LocationKey() string {
	return c.LocationStart + "-" + c.LocationEnd
}

// StartNumber returns the numeric location start, 0 if it is not a number.
func (c Clipping) StartNumber() int {
	n, _ := strconv.Atoi(c.LocationStart)
	return n
}

// EndNumber returns the numeric location end, 0 if it is not a number.
func (c Clipping) EndNumber() int {
	n, _ := strconv.Atoi(c.LocationEnd)
	return n
}

// IsBookmark reports whether the clipping has no textual content worth persisting.
func (c Clipping) IsBookmark() bool {
	return c.Kind == ClipKindBookmark
}

// BookGroup holds every clipping sharing one book title, in first-seen order.
type BookGroup struct {
	Title     string     `json:"title"`
	Author    string     `json:"author,omitempty"`
	Clippings []Clipping `json:"clippings"`
}

// DocumentTitle is the title of the note the group is exported to.
func (g *BookGroup) DocumentTitle() string {
	if g.Author != "" {
		return g.Title + " - " + g.Author
	}
	return g.Title
}

// RenderableCount counts the clippings that end up in a document.
func (g *BookGroup) RenderableCount() int {
	n := 0
	for _, c := range g.Clippings {
		if !c.IsBookmark() {
			n++
		}
	}
	return n
}

// Bookshelf is an ordered mapping from book title to BookGroup.
// Iteration order is the order in which titles were first added.
type Bookshelf struct {
	order  []string
	groups map[string]*BookGroup
}

func NewBookshelf() *Bookshelf {
	return &Bookshelf{groups: make(map[string]*BookGroup)}
}

// Add appends a clipping to its book's group, creating the group on first sight.
// It returns true when the group was created by this call.
func (s *Bookshelf) Add(c Clipping) (*BookGroup, bool) {
	group, ok := s.groups[c.BookTitle]
	if !ok {
		group = &BookGroup{Title: c.BookTitle, Author: c.Author}
		s.groups[c.BookTitle] = group
		s.order = append(s.order, c.BookTitle)
	}
	group.Clippings = append(group.Clippings, c)
	return group, !ok
}

// Get returns the group for a title, or nil.
func (s *Bookshelf) Get(title string) *BookGroup {
	return s.groups[title]
}

// Titles returns the book titles in first-seen order.
func (s *Bookshelf) Titles() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Groups returns the groups in first-seen order.
func (s *Bookshelf) Groups() []*BookGroup {
	out := make([]*BookGroup, 0, len(s.order))
	for _, title := range s.order {
		out = append(out, s.groups[title])
	}
	return out
}

func (s *Bookshelf) Len() int {
	return len(s.order)
}

// ClippingCount is the total number of clippings across all groups.
func (s *Bookshelf) ClippingCount() int {
	total := 0
	for _, g := range s.groups {
		total += len(g.Clippings)
	}
	return total
}

// Select returns a shelf holding only the given titles, keeping this shelf's
// order. An empty titles list selects every book. Unknown titles are ignored.
func (s *Bookshelf) Select(titles []string) *Bookshelf {
	if len(titles) == 0 {
		return s
	}
	wanted := make(map[string]bool, len(titles))
	for _, t := range titles {
		wanted[t] = true
	}
	out := NewBookshelf()
	for _, title := range s.order {
		if wanted[title] {
			out.order = append(out.order, title)
			out.groups[title] = s.groups[title]
		}
	}
	return out
}
