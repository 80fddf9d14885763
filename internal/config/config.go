package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Store
		Export
		Sync
		Watch
		Audit
		Global
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Store struct {
		Backend      string // sqlite, joplin or vault
		DatabasePath string
		JoplinURL    string
		JoplinToken  string
		VaultDir     string
	}
	Export struct {
		CollectionID   string // wins over CollectionName
		CollectionName string
		SkipDuplicates bool
		TagWithAuthor  bool
		BaseTags       []string
		AdditionalTags []string
	}
	Sync struct {
		ClippingsPath string // My Clippings.txt to re-import
		Enabled       bool
		Schedule      string // Cron format: "0 * * * *" = hourly
	}
	Watch struct {
		Enabled  bool
		Debounce time.Duration
	}
	Audit struct {
		Dir           string
		RetentionDays int // Days to keep import records (default: 30)
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

// splitList parses a comma-separated setting, dropping blanks
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("store_backend", StoreBackendSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("joplin_url", "http://localhost:41184")
	v.SetDefault("joplin_token", "")
	v.SetDefault("vault_dir", DefaultVaultDir)

	v.SetDefault("collection_id", "")
	v.SetDefault("collection_name", DefaultCollectionName)
	v.SetDefault("skip_duplicates", true)
	v.SetDefault("tag_with_author", true)
	v.SetDefault("base_tags", DefaultBaseTags)
	v.SetDefault("additional_tags", "")

	v.SetDefault("clippings_path", "")
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("watch_enabled", false)
	v.SetDefault("watch_debounce", "2s")

	v.SetDefault("audit_dir", "./audit")
	v.SetDefault("audit_retention_days", 30)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Store: Store{
			Backend:      strings.ToLower(v.GetString("STORE_BACKEND")),
			DatabasePath: v.GetString("DATABASE_PATH"),
			JoplinURL:    v.GetString("JOPLIN_URL"),
			JoplinToken:  v.GetString("JOPLIN_TOKEN"),
			VaultDir:     v.GetString("VAULT_DIR"),
		},
		Export: Export{
			CollectionID:   v.GetString("COLLECTION_ID"),
			CollectionName: v.GetString("COLLECTION_NAME"),
			SkipDuplicates: v.GetBool("SKIP_DUPLICATES"),
			TagWithAuthor:  v.GetBool("TAG_WITH_AUTHOR"),
			BaseTags:       splitList(v.GetString("BASE_TAGS")),
			AdditionalTags: splitList(v.GetString("ADDITIONAL_TAGS")),
		},
		Sync: Sync{
			ClippingsPath: v.GetString("CLIPPINGS_PATH"),
			Enabled:       v.GetBool("SYNC_ENABLED"),
			Schedule:      v.GetString("SYNC_SCHEDULE"),
		},
		Watch: Watch{
			Enabled:  v.GetBool("WATCH_ENABLED"),
			Debounce: v.GetDuration("WATCH_DEBOUNCE"),
		},
		Audit: Audit{
			Dir:           v.GetString("AUDIT_DIR"),
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}
