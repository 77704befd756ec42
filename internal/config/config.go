package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required (default)
	AuthModeToken AuthMode = "token" // Bearer-token authentication with roles
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Import
		FetchProxy
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Auth struct {
		Mode       AuthMode
		BcryptCost int

		// Initial administrator created at startup when the user table
		// is empty. Ignored once any user exists.
		BootstrapUsername string
		BootstrapPassword string
	}

	Import struct {
		// CatalogBaseURL points the pipeline at a remote catalog service.
		// Empty means the in-process catalog backed by the local database.
		CatalogBaseURL string
		CatalogToken   string

		// Batch sizing per import mode. Voice payloads carry long prompts,
		// so their batches stay small.
		VoiceBatchSize   int
		FileBatchSize    int
		BulkURLBatchSize int

		URLPoolSize    int           // concurrent URL fetches per group
		GroupDelay     time.Duration // pause between concurrent groups
		RequestTimeout time.Duration
		MaxRetries     int
		RetryDelay     time.Duration

		// Finished runs are kept in memory for this long so clients can
		// fetch the result, then swept by the retention job.
		RunRetention      time.Duration
		RetentionSchedule string // cron format
	}

	FetchProxy struct {
		Timeout      time.Duration
		MaxBodyBytes int64
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_bootstrap_username", "admin")
	v.SetDefault("auth_bootstrap_password", "")

	// Import pipeline defaults
	v.SetDefault("import_catalog_base_url", "")
	v.SetDefault("import_catalog_token", "")
	v.SetDefault("import_voice_batch_size", 10)
	v.SetDefault("import_file_batch_size", 25)
	v.SetDefault("import_bulk_url_batch_size", 50)
	v.SetDefault("import_url_pool_size", 3)
	v.SetDefault("import_group_delay", "500ms")
	v.SetDefault("import_request_timeout", "30s")
	v.SetDefault("import_max_retries", 3)
	v.SetDefault("import_retry_delay", "1s")
	v.SetDefault("import_run_retention", "1h")
	v.SetDefault("import_retention_schedule", "*/10 * * * *")

	// Fetch proxy defaults
	v.SetDefault("fetch_proxy_timeout", "20s")
	v.SetDefault("fetch_proxy_max_body_bytes", 2<<20)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Mode:              AuthMode(v.GetString("AUTH_MODE")),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			BootstrapUsername: v.GetString("AUTH_BOOTSTRAP_USERNAME"),
			BootstrapPassword: v.GetString("AUTH_BOOTSTRAP_PASSWORD"),
		},
		Import: Import{
			CatalogBaseURL:    v.GetString("IMPORT_CATALOG_BASE_URL"),
			CatalogToken:      v.GetString("IMPORT_CATALOG_TOKEN"),
			VoiceBatchSize:    v.GetInt("IMPORT_VOICE_BATCH_SIZE"),
			FileBatchSize:     v.GetInt("IMPORT_FILE_BATCH_SIZE"),
			BulkURLBatchSize:  v.GetInt("IMPORT_BULK_URL_BATCH_SIZE"),
			URLPoolSize:       v.GetInt("IMPORT_URL_POOL_SIZE"),
			GroupDelay:        v.GetDuration("IMPORT_GROUP_DELAY"),
			RequestTimeout:    v.GetDuration("IMPORT_REQUEST_TIMEOUT"),
			MaxRetries:        v.GetInt("IMPORT_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("IMPORT_RETRY_DELAY"),
			RunRetention:      v.GetDuration("IMPORT_RUN_RETENTION"),
			RetentionSchedule: v.GetString("IMPORT_RETENTION_SCHEDULE"),
		},
		FetchProxy: FetchProxy{
			Timeout:      v.GetDuration("FETCH_PROXY_TIMEOUT"),
			MaxBodyBytes: v.GetInt64("FETCH_PROXY_MAX_BODY_BYTES"),
		},
	}
}
