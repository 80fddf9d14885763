// Package document renders book groups as Markdown notes and merges new
// clippings into notes rendered earlier.
//
// The merge engine recovers entries from plain text by looking for the
// "### Location {start}-{end}" headings that Render writes. Both sides of that
// contract live in this file: any change to the entry heading or the hash
// marker must be made here so that previously exported notes keep merging.
package document

import (
	"regexp"
	"strconv"
)

const (
	SectionHeading = "## Highlights and Notes"

	entryHeadingFormat = "### Location %s-%s"
	pageSuffixFormat   = " (Page %s)"
	addedOnFormat      = "*Added on %s*\n"
	hashMarkerFormat   = "<!-- kindle-hash: %s -->\n"
	addedOnDateLayout  = "2006-01-02"
)

var (
	// Entry boundary: a heading line at the start of a line.
	entryHeadingPattern = regexp.MustCompile(`(?m)^### Location (\d+)-(\d+)`)

	// Body lines that would be read back as an entry boundary.
	bodyHeadingPattern = regexp.MustCompile(`(?m)^(\\*### Location \d+-\d+)`)

	hashMarkerPattern = regexp.MustCompile(`<!-- kindle-hash: ([a-f0-9]{32}) -->`)
)

// escapeHeadings prefixes body lines that look like an entry heading with a
// backslash, so a note quoting "### Location 5-6" stays inside its entry.
func escapeHeadings(body string) string {
	return bodyHeadingPattern.ReplaceAllString(body, `\${1}`)
}

// Header is the prose prefix of a freshly rendered document.
func Header(title string) string {
	return "# " + title + "\n\n" + SectionHeading + "\n\n"
}

// ExtractHashes returns the dedup-marker hashes present in a document.
func ExtractHashes(text string) map[string]struct{} {
	hashes := make(map[string]struct{})
	for _, m := range hashMarkerPattern.FindAllStringSubmatch(text, -1) {
		hashes[m[1]] = struct{}{}
	}
	return hashes
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
