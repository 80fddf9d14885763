package kindle

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/trace"
)

// ErrNoClippings is returned by callers when an export contained nothing usable.
var ErrNoClippings = errors.New("no clippings found")

// Parser parses Kindle My Clippings.txt format
type Parser struct {
	trace trace.Func
}

// NewParser creates a parser reporting dropped entries through tr (nil discards).
func NewParser(tr trace.Func) *Parser {
	return &Parser{trace: trace.OrNop(tr)}
}

const (
	entrySeparator = "=========="
	byteOrderMark  = "\ufeff"
)

// Regex patterns for parsing the first two lines of an entry
var (
	// "Dune (Frank Herbert)" or just "Dune". The author group refuses nested
	// parentheses so "Title (Vol. 1) (Author)" keeps "(Vol. 1)" in the title.
	titleAuthorPattern = regexp.MustCompile(`^(.+?)(?:\s+\(([^()]+)\))?$`)

	// Matches, with arbitrary filler between the tokens:
	// "- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM"
	// "- Your Note on page 31 | Location 307 | Added on Tuesday, April 15, 2025 11:33:26 PM"
	// "- Your Highlight at location 784-785 | Added on Saturday, 26 March 2016 18:37:26"
	// "- Your Bookmark at location 346 | Added on Saturday, 26 March 2016 15:46:21"
	metadataPattern = regexp.MustCompile(
		`- Your (Highlight|Note|Bookmark)(?:.*?(?i:page) (\d+))?.*?(?i:location) (\d+)(?:-(\d+))?.*?(?i:added on) (.+)$`)

	// Date layouts observed in the wild, with and without the weekday
	dateLayouts = []string{
		"Monday, January 2, 2006 3:04:05 PM",
		"Monday, January 2, 2006 15:04:05",
		"Monday, 2 January 2006 3:04:05 PM",
		"Monday, 2 January 2006 15:04:05",
		"January 2, 2006 3:04:05 PM",
		"January 2, 2006 15:04:05",
		"2 January 2006 3:04:05 PM",
		"2 January 2006 15:04:05",
		"Mon, Jan 2, 2006 3:04:05 PM",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
)

// Parse reads a Kindle export and returns its clippings in file order.
// Only a failure to read the input is an error; malformed entries are dropped.
func (p *Parser) Parse(r io.Reader) ([]entities.Clipping, error) {
	// BOMOverride strips a UTF-8 BOM and decodes BOM-marked UTF-16 exports.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	raw, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("error reading clippings: %w", err)
	}
	return p.ParseString(string(raw)), nil
}

// ParseString parses an already-decoded export.
func (p *Parser) ParseString(text string) []entities.Clipping {
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	rawEntries := strings.Split(text, entrySeparator)

	var clippings []entities.Clipping
	for i, rawEntry := range rawEntries {
		entry := strings.TrimSpace(rawEntry)
		if entry == "" {
			continue
		}
		clipping, err := p.parseEntry(entry)
		if err != nil {
			p.trace("skipping entry %d: %v", i+1, err)
			continue
		}
		clippings = append(clippings, *clipping)
	}

	p.trace("parsed %d clippings from %d raw entries", len(clippings), len(rawEntries))
	return clippings
}

func (p *Parser) parseEntry(entry string) (*entities.Clipping, error) {
	lines := strings.Split(entry, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("entry too short (%d line)", len(lines))
	}

	// First line: Title (Author) or just Title
	titleLine := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[0]), byteOrderMark))
	title, author, ok := parseTitleAuthor(titleLine)
	if !ok {
		return nil, fmt.Errorf("invalid title line %q", titleLine)
	}

	// Second line: Metadata (type, page, location, date)
	metadataLine := strings.TrimSpace(lines[1])
	matches := metadataPattern.FindStringSubmatch(metadataLine)
	if matches == nil {
		return nil, fmt.Errorf("invalid metadata line %q", metadataLine)
	}

	kind := entities.ClipKind(matches[1])
	page := matches[2]
	locationStart := matches[3]
	locationEnd := matches[4]
	if locationEnd == "" {
		locationEnd = locationStart
	}

	addedAt := parseDate(matches[5])
	if addedAt == nil {
		p.trace("could not parse date %q for %q", matches[5], title)
	}

	// Remaining lines: text content (Kindle puts a blank line first, trimming drops it)
	body := strings.TrimSpace(strings.Join(lines[2:], "\n"))

	return &entities.Clipping{
		BookTitle:     title,
		Author:        author,
		Kind:          kind,
		Page:          page,
		LocationStart: locationStart,
		LocationEnd:   locationEnd,
		AddedAt:       addedAt,
		Body:          body,
		ContentHash:   ContentHash(title, locationStart, locationEnd, body),
	}, nil
}

func parseTitleAuthor(line string) (title, author string, ok bool) {
	matches := titleAuthorPattern.FindStringSubmatch(line)
	if matches == nil {
		return "", "", false
	}
	title = strings.TrimSpace(matches[1])
	author = strings.TrimSpace(matches[2])
	if title == "" {
		return "", "", false
	}
	return title, author, true
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return &t
		}
	}
	return nil
}

// ContentHash fingerprints a clipping as the hex MD5 of "title|start-end|body".
// It is the value embedded in rendered documents as the dedup marker.
func ContentHash(title, locationStart, locationEnd, body string) string {
	sum := md5.Sum([]byte(title + "|" + locationStart + "-" + locationEnd + "|" + body))
	return hex.EncodeToString(sum[:])
}
