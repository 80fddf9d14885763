// Package store opens the NoteStore selected by configuration.
package store

import (
	"context"
	"fmt"
	"os"

	"github.com/mrlokans/clippings/internal/config"
	"github.com/mrlokans/clippings/internal/database"
	"github.com/mrlokans/clippings/internal/exporters"
	"github.com/mrlokans/clippings/internal/joplin"
	"github.com/mrlokans/clippings/internal/vault"
)

// Backend is an opened NoteStore plus the lifecycle hooks the server needs.
type Backend struct {
	exporters.NoteStore

	Name  string
	ping  func(ctx context.Context) error
	close func() error
}

// Ping checks that the store is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open creates the store named by cfg.Backend.
func Open(cfg config.Store) (*Backend, error) {
	switch cfg.Backend {
	case config.StoreBackendSQLite, "":
		db, err := database.NewDatabase(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		return &Backend{
			NoteStore: db.NoteStore(),
			Name:      config.StoreBackendSQLite,
			ping:      func(context.Context) error { return db.Ping() },
			close:     db.Close,
		}, nil

	case config.StoreBackendJoplin:
		if cfg.JoplinToken == "" {
			return nil, fmt.Errorf("JOPLIN_TOKEN is required for the joplin store")
		}
		client := joplin.NewClient(cfg.JoplinURL, cfg.JoplinToken)
		return &Backend{
			NoteStore: client,
			Name:      config.StoreBackendJoplin,
			ping:      client.Ping,
		}, nil

	case config.StoreBackendVault:
		v, err := vault.NewStore(cfg.VaultDir)
		if err != nil {
			return nil, err
		}
		return &Backend{
			NoteStore: v,
			Name:      config.StoreBackendVault,
			ping: func(context.Context) error {
				_, err := os.Stat(v.Root())
				return err
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q (want sqlite, joplin or vault)", cfg.Backend)
	}
}
