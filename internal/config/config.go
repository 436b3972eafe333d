package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Config is the full boundary configuration. Values come from an
// optional TOML file (FITRACKER_CONFIG) with environment variables
// layered on top, so a bare environment is always enough.
type Config struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
	Locale     string `toml:"locale"`

	// Store selection and addressing.
	StoreBackend string `toml:"store_backend"` // github | git | postgres
	FilePath     string `toml:"file_path"`
	Branch       string `toml:"branch"`
	CommitAuthor string `toml:"commit_author"`

	// GitHub backend.
	GitHubToken string `toml:"github_token"`
	GitHubOwner string `toml:"github_owner"`
	GitHubRepo  string `toml:"github_repo"`

	// Local git backend.
	RepoDir string `toml:"repo_dir"`

	// Postgres backend.
	DatabaseURL string `toml:"database_url"`

	// Editor credential. Auth is disabled when both are empty.
	EditorPasswordHash string `toml:"editor_password_hash"`
	EditorPassword     string `toml:"editor_password"`

	// Object storage for exercise images; disabled when endpoint is
	// empty.
	S3Endpoint      string `toml:"s3_endpoint"`
	S3AccessKey     string `toml:"s3_access_key"`
	S3SecretKey     string `toml:"s3_secret_key"`
	S3Bucket        string `toml:"s3_bucket"`
	S3PublicBaseURL string `toml:"s3_public_base_url"`
	S3UseSSL        bool   `toml:"s3_use_ssl"`
}

func Load() (Config, error) {
	cfg := Config{
		Addr:         ":8080",
		CORSOrigin:   "*",
		Locale:       "en",
		StoreBackend: "github",
		FilePath:     "data/exercises.json",
		Branch:       "main",
		CommitAuthor: "fitracker-editor",
		RepoDir:      "./data/repo",
		S3Bucket:     "fitracker-images",
	}

	if path := os.Getenv("FITRACKER_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	cfg.Addr = getenv("FITRACKER_ADDR", cfg.Addr)
	cfg.CORSOrigin = getenv("FITRACKER_CORS_ORIGIN", cfg.CORSOrigin)
	cfg.Locale = getenv("FITRACKER_LOCALE", cfg.Locale)
	cfg.StoreBackend = getenv("FITRACKER_STORE", cfg.StoreBackend)
	cfg.FilePath = getenv("FITRACKER_FILE_PATH", cfg.FilePath)
	cfg.Branch = getenv("FITRACKER_BRANCH", cfg.Branch)
	cfg.CommitAuthor = getenv("FITRACKER_COMMIT_AUTHOR", cfg.CommitAuthor)
	cfg.GitHubToken = getenv("GITHUB_TOKEN", cfg.GitHubToken)
	cfg.GitHubOwner = getenv("GITHUB_OWNER", cfg.GitHubOwner)
	cfg.GitHubRepo = getenv("GITHUB_REPO", cfg.GitHubRepo)
	cfg.RepoDir = getenv("FITRACKER_REPO_DIR", cfg.RepoDir)
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.EditorPasswordHash = getenv("FITRACKER_PASSWORD_HASH", cfg.EditorPasswordHash)
	cfg.EditorPassword = getenv("FITRACKER_PASSWORD", cfg.EditorPassword)
	cfg.S3Endpoint = getenv("FITRACKER_S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3AccessKey = getenv("FITRACKER_S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = getenv("FITRACKER_S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3Bucket = getenv("FITRACKER_S3_BUCKET", cfg.S3Bucket)
	cfg.S3PublicBaseURL = getenv("FITRACKER_S3_PUBLIC_BASE_URL", cfg.S3PublicBaseURL)
	cfg.S3UseSSL = getenvBool("FITRACKER_S3_USE_SSL", cfg.S3UseSSL)

	return cfg, nil
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
