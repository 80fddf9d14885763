package config

// Default paths and names
const (
	// DefaultDatabasePath is the default path for the SQLite note store
	DefaultDatabasePath = "./clippings.db"

	// DefaultVaultDir is the default root of the Markdown vault store
	DefaultVaultDir = "./vault"

	// DefaultCollectionName is the collection books go to when none is configured
	DefaultCollectionName = "Kindle Highlights"

	// DefaultBaseTags are attached to every exported note
	DefaultBaseTags = "kindle,book,highlights"
)

// Store backends
const (
	StoreBackendSQLite = "sqlite"
	StoreBackendJoplin = "joplin"
	StoreBackendVault  = "vault"
)
