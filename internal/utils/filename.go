package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 200

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename turns a document title into a file name that is valid on
// common filesystems and safe to link to from Markdown (no slashes, colons,
// quotes, hashtags or brackets). The result never starts with a dot, so it
// cannot collide with the vault's hidden index files.
func SanitizeFilename(title string) string {
	// Whitespace control characters become spaces before the rest are removed
	filename := strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(title)
	filename = invalidFilenameChars.ReplaceAllString(filename, "")

	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")

	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimLeft(strings.TrimSpace(filename), ".")
	filename = strings.TrimSpace(filename)

	// Leave room for the extension, and never split a multi-byte character
	if len(filename) > maxFilenameBytes {
		cut := maxFilenameBytes
		for cut > 0 && !utf8.RuneStart(filename[cut]) {
			cut--
		}
		filename = strings.TrimSpace(filename[:cut])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}
