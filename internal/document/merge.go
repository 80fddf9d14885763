package document

import (
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/trace"
)

// MergeResult describes the outcome of merging clippings into a document.
type MergeResult struct {
	Text string

	// Added counts clippings rendered into the document by this merge.
	Added int
	// Skipped counts clippings whose location key was already present.
	Skipped int
	// Conflicts counts skipped clippings whose content hash is not in the
	// document, i.e. the stored text differs from the fresh clipping.
	Conflicts int

	// ExistingHashes holds the dedup markers found in the input document.
	ExistingHashes map[string]struct{}
	// Recognized is false when no entry heading was found and the whole input
	// was treated as header.
	Recognized bool
}

// ParseDocument splits a persisted document into its header and entries.
//
// The header is everything before the first entry heading, kept verbatim.
// Sections sharing a location key are joined in document order, so nothing
// present in the text is lost. A document without any heading comes back as
// header only.
func ParseDocument(text string) Document {
	locs := entryHeadingPattern.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return Document{Header: text}
	}

	doc := Document{Header: text[:locs[0][0]]}
	index := make(map[string]int, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		start, stop := text[loc[2]:loc[3]], text[loc[4]:loc[5]]
		key := start + "-" + stop
		section := text[loc[0]:end]

		if j, ok := index[key]; ok {
			doc.Entries[j].Text += section
			continue
		}
		index[key] = len(doc.Entries)
		doc.Entries = append(doc.Entries, Entry{
			Key:   key,
			Start: atoi(start),
			End:   atoi(stop),
			Text:  section,
		})
	}
	return doc
}

// Merge adds the clippings missing from an existing document and returns the
// updated text.
//
// The location key decides what is missing: a clipping whose key already has
// an entry is skipped even if its text changed, and the stored entry wins.
// Entries already in the document are never dropped, whether or not their
// clipping is still part of the input. Merging the same clippings twice
// leaves the document unchanged the second time.
func Merge(existing string, clippings []entities.Clipping, tr trace.Func) MergeResult {
	tr = trace.OrNop(tr)

	doc := ParseDocument(existing)
	result := MergeResult{
		ExistingHashes: ExtractHashes(existing),
		Recognized:     len(doc.Entries) > 0,
	}
	if !result.Recognized && existing != "" {
		tr("no entries recognised in existing document, keeping it as header")
	}

	present := make(map[string]bool, len(doc.Entries))
	for _, e := range doc.Entries {
		present[e.Key] = true
	}

	added := make(map[string]int)
	for _, c := range sortClippings(clippings) {
		if c.IsBookmark() {
			continue
		}
		key := c.LocationKey()
		if present[key] {
			result.Skipped++
			if _, ok := result.ExistingHashes[c.ContentHash]; !ok {
				result.Conflicts++
				tr("location %s of %q already stored with different content, keeping stored text", key, c.BookTitle)
			}
			continue
		}
		doc.addEntry(added, c)
		result.Added++
	}

	sortEntries(doc.Entries)
	result.Text = doc.String()
	return result
}
