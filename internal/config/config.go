package config

import (
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Database
		Auth
		Sync
		Quota
		Global
	}

	HTTP struct {
		Port int32
		Host string
	}
	Database struct {
		Path string
	}
	Auth struct {
		Secret string // HMAC secret for verifying Bearer tokens
	}
	Sync struct {
		Enabled   bool
		Schedule  string // Cron format: "*/5 * * * *" = every 5 minutes
		ServerURL string
		Token     string // Access token presented to the sync server
		UserID    string // Local replica's user identity
	}
	Quota struct {
		LedgerURL string // Usage ledger base URL; empty disables reporting
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("auth_secret", "")
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", "*/5 * * * *") // Every 5 minutes
	v.SetDefault("sync_server_url", "")
	v.SetDefault("sync_token", "")
	v.SetDefault("sync_user_id", "")
	v.SetDefault("quota_ledger_url", "")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Secret: v.GetString("AUTH_SECRET"),
		},
		Sync: Sync{
			Enabled:   v.GetBool("SYNC_ENABLED"),
			Schedule:  v.GetString("SYNC_SCHEDULE"),
			ServerURL: v.GetString("SYNC_SERVER_URL"),
			Token:     v.GetString("SYNC_TOKEN"),
			UserID:    v.GetString("SYNC_USER_ID"),
		},
		Quota: Quota{
			LedgerURL: v.GetString("QUOTA_LEDGER_URL"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
	}
}
