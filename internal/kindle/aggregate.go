package kindle

import (
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/trace"
)

// Aggregate groups clippings by exact book title, keeping first-seen order.
//
// The group's author is the one on its first clipping. Later clippings with a
// different author still join the group; the mismatch is only traced.
func Aggregate(clippings []entities.Clipping, tr trace.Func) *entities.Bookshelf {
	tr = trace.OrNop(tr)
	shelf := entities.NewBookshelf()
	for _, c := range clippings {
		group, created := shelf.Add(c)
		if !created && c.Author != group.Author {
			tr("author mismatch for %q: keeping %q, ignoring %q", group.Title, group.Author, c.Author)
		}
	}
	return shelf
}
