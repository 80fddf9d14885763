package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/clippings/internal/audit"
	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/entities"
	"github.com/mrlokans/clippings/internal/kindle"
)

const clippingsExport = `The_Power_of_Now (Eckhart Tolle)
- Your Highlight on page 8 | Location 64-64 | Added on Tuesday, April 15, 2025 10:16:21 PM

would change for the better. Values would shift in the flotsam
==========
Fahrenheit 451 (Ray Bradbury)
- Your Bookmark at location 346 | Added on Saturday, 26 March 2016 15:46:21


==========
Fahrenheit 451 (Ray Bradbury)
- Your Highlight at location 784-785 | Added on Saturday, 26 March 2016 18:37:26

Who knows who might be the target of the well-read man?
==========
The_Power_of_Now (Eckhart Tolle)
- Your Note on page 31 | Location 307 | Added on Tuesday, April 15, 2025 11:33:26 PM

Watch the thinker or be present in the moment
==========
`

func defaultExportConfig() config.Export {
	return config.Export{
		CollectionName: "Kindle Highlights",
		SkipDuplicates: true,
		TagWithAuthor:  true,
		BaseTags:       []string{"kindle", "book", "highlights"},
	}
}

type testEnv struct {
	service  *ImportService
	store    *database.NoteStore
	auditDir string
}

func setupService(t *testing.T, defaults config.Export) testEnv {
	t.Helper()
	dir := t.TempDir()
	db, err := database.NewDatabase(filepath.Join(dir, "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditDir := filepath.Join(dir, "audit")
	store := db.NoteStore()
	return testEnv{
		service:  NewImportService(store, "sqlite", defaults, audit.NewAuditor(auditDir), nil),
		store:    store,
		auditDir: auditDir,
	}
}

func auditFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestImportService_Preview(t *testing.T) {
	env := setupService(t, defaultExportConfig())

	preview, err := env.service.Preview(strings.NewReader(clippingsExport))
	require.NoError(t, err)

	assert.Equal(t, 4, preview.ClippingsFound)
	require.Len(t, preview.Books, 2)
	assert.Equal(t, BookSummary{
		Title: "The_Power_of_Now", Author: "Eckhart Tolle", DocumentTitle: "The_Power_of_Now - Eckhart Tolle",
		Highlights: 1, Notes: 1,
	}, preview.Books[0])
	assert.Equal(t, 1, preview.Books[1].Bookmarks)
	assert.Empty(t, auditFiles(t, env.auditDir))
}

func TestImportService_Import(t *testing.T) {
	ctx := context.Background()
	env := setupService(t, defaultExportConfig())

	var labels []string
	report, err := env.service.Import(ctx, ImportRequest{
		Source: audit.SourceCLI,
		File:   "My Clippings.txt",
		Input:  strings.NewReader(clippingsExport),
		Progress: func(current, total int, label string) {
			labels = append(labels, label)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, report.ClippingsFound)
	assert.Equal(t, 2, report.BooksFound)
	assert.Equal(t, 2, report.BooksSelected)
	assert.Equal(t, 2, report.Result.BooksCreated)
	assert.Equal(t, 3, report.Result.ClippingsAdded)
	assert.NotEmpty(t, report.Result.CollectionID)
	assert.Equal(t, []string{"The_Power_of_Now - Eckhart Tolle", "Fahrenheit 451 - Ray Bradbury"}, labels)
	assert.Equal(t, []string{report.AuditFile}, auditFiles(t, env.auditDir))

	note, err := env.store.FindNoteByTitle(ctx, "Fahrenheit 451 - Ray Bradbury")
	require.NoError(t, err)
	require.NotNil(t, note)
	assert.Equal(t, report.Result.CollectionID, note.ParentID)
	assert.Contains(t, note.Body, "### Location 784-785\n> Who knows who might be the target of the well-read man?\n*Added on 2016-03-26*\n")

	again, err := env.service.Import(ctx, ImportRequest{Source: audit.SourceCLI, Input: strings.NewReader(clippingsExport)})
	require.NoError(t, err)
	assert.Equal(t, 0, again.Result.ClippingsAdded)
	assert.Equal(t, 2, again.Result.BooksSkipped)

	unchanged, err := env.store.FindNoteByTitle(ctx, "Fahrenheit 451 - Ray Bradbury")
	require.NoError(t, err)
	assert.Equal(t, note.Body, unchanged.Body)
}

func TestImportService_Selection(t *testing.T) {
	ctx := context.Background()
	env := setupService(t, defaultExportConfig())
	noAuthorTag := false

	report, err := env.service.Import(ctx, ImportRequest{
		Source: audit.SourceHTTP,
		Input:  strings.NewReader(clippingsExport),
		Selection: entities.Selection{
			Books:         []string{"Fahrenheit 451"},
			Collection:    entities.CollectionRef{Name: "Classics"},
			Tags:          []string{"dystopia"},
			TagWithAuthor: &noAuthorTag,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.BooksSelected)
	require.Len(t, report.Result.Outcomes, 1)

	collections, err := env.store.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "Classics", collections[0].Title)

	missing, err := env.store.FindNoteByTitle(ctx, "The_Power_of_Now - Eckhart Tolle")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestImportService_Options(t *testing.T) {
	defaults := defaultExportConfig()
	defaults.AdditionalTags = []string{"imported"}
	service := NewImportService(nil, "test", defaults, nil, nil)
	off := false

	opts := service.Options(entities.Selection{
		Collection:     entities.CollectionRef{ID: "abc"},
		Tags:           []string{"extra"},
		TagWithAuthor:  &off,
		SkipDuplicates: &off,
	})

	assert.Equal(t, "abc", opts.CollectionID)
	assert.Empty(t, opts.CollectionName)
	assert.False(t, opts.TagWithAuthor)
	assert.False(t, opts.SkipDuplicates)
	assert.Equal(t, []string{"imported", "extra"}, opts.AdditionalTags)
	assert.Equal(t, []string{"imported"}, defaults.AdditionalTags)

	plain := service.Options(entities.Selection{})
	assert.Equal(t, "Kindle Highlights", plain.CollectionName)
	assert.True(t, plain.TagWithAuthor)
}

func TestImportService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no clippings", func(t *testing.T) {
		env := setupService(t, defaultExportConfig())

		report, err := env.service.Import(ctx, ImportRequest{Source: audit.SourceCLI, Input: strings.NewReader("garbage\n==========\n")})
		assert.ErrorIs(t, err, kindle.ErrNoClippings)
		require.NotNil(t, report)
		assert.Len(t, auditFiles(t, env.auditDir), 1)
	})

	t.Run("unknown book", func(t *testing.T) {
		env := setupService(t, defaultExportConfig())

		_, err := env.service.Import(ctx, ImportRequest{
			Input:     strings.NewReader(clippingsExport),
			Selection: entities.Selection{Books: []string{"Dune"}},
		})
		assert.ErrorIs(t, err, ErrNoBooksSelected)
	})

	t.Run("store failure", func(t *testing.T) {
		env := setupService(t, defaultExportConfig())
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		report, err := env.service.Import(cancelled, ImportRequest{Input: strings.NewReader(clippingsExport)})
		assert.ErrorIs(t, err, ErrExportFailed)
		require.NotNil(t, report)
		assert.Equal(t, 2, report.BooksFound)
	})

	t.Run("unreadable input", func(t *testing.T) {
		env := setupService(t, defaultExportConfig())

		_, err := env.service.Import(ctx, ImportRequest{Input: iotest.ErrReader(errors.New("disk gone"))})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrExportFailed)
		assert.NotErrorIs(t, err, kindle.ErrNoClippings)
	})

	t.Run("missing file", func(t *testing.T) {
		env := setupService(t, defaultExportConfig())

		_, err := env.service.ImportFile(ctx, filepath.Join(t.TempDir(), "nope.txt"), ImportRequest{})
		assert.Error(t, err)
		assert.Empty(t, auditFiles(t, env.auditDir))
	})
}

func TestImportService_ImportFileDryRun(t *testing.T) {
	ctx := context.Background()
	env := setupService(t, defaultExportConfig())
	path := filepath.Join(t.TempDir(), "My Clippings.txt")
	require.NoError(t, os.WriteFile(path, []byte(clippingsExport), 0644))

	report, err := env.service.ImportFile(ctx, path, ImportRequest{Source: audit.SourceCLI, DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Result.BooksCreated)
	note, err := env.store.FindNoteByTitle(ctx, "Fahrenheit 451 - Ray Bradbury")
	require.NoError(t, err)
	assert.Nil(t, note)
}
