package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

const (
	CascadeBestEffort = "best-effort"
	CascadeStrict     = "strict"
)

// Settings is the typed runtime configuration of the server.
type Settings struct {
	Port        string
	LogLevel    string
	DBDriver    string
	DatabaseURL string

	JWTSecret string
	Issuer    string

	MediaBackend      string
	MediaRoot         string
	MediaAsyncCleanup bool
	MediaWorkers      int
	CascadePolicy     string

	GCSBucket          string
	GCSPrefix          string
	GCSCredentialsFile string

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
	S3Prefix       string
}

var loadEnvOnce sync.Once

// loadEnv reads .env once. A missing file is fine, the process
// environment is used as is.
func loadEnv() {
	loadEnvOnce.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	})
}

// Config returns a required variable and exits when it is not set.
func Config(envVar string) string {
	loadEnv()

	envVarValue := os.Getenv(envVar)
	if envVarValue == "" {
		fmt.Fprintf(os.Stderr, "%s not set\n", envVar)
		os.Exit(1)
	}

	return envVarValue
}

// Get returns the variable or def when it is empty.
func Get(envVar, def string) string {
	loadEnv()

	if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
		return v
	}
	return def
}

// Load builds Settings from defaults, .env and the environment.
func Load() (*Settings, error) {
	s := &Settings{
		Port:        Get("PORT", "3000"),
		LogLevel:    Get("LOG_LEVEL", "info"),
		DBDriver:    Get("DB_DRIVER", "postgres"),
		DatabaseURL: Get("DATABASE_URL", ""),

		JWTSecret: Get("JWT_SECRET", ""),
		Issuer:    Get("JWT_ISSUER", "snap-social"),

		MediaBackend:  Get("MEDIA_BACKEND", "local"),
		MediaRoot:     Get("MEDIA_ROOT", "image/profile"),
		CascadePolicy: Get("CASCADE_POLICY", CascadeBestEffort),

		GCSBucket:          Get("GCS_BUCKET_NAME", ""),
		GCSPrefix:          Get("GCS_PREFIX", "images/"),
		GCSCredentialsFile: Get("GOOGLE_APPLICATION_CREDENTIALS", ""),

		S3Bucket:       Get("S3_BUCKET", ""),
		S3Region:       Get("S3_REGION", "us-east-1"),
		S3AccessKey:    Get("S3_ACCESS_KEY", ""),
		S3SecretKey:    Get("S3_SECRET_KEY", ""),
		S3BaseEndpoint: Get("S3_BASE_ENDPOINT", ""),
		S3Prefix:       Get("S3_PREFIX", "images/"),
	}

	var err error
	if s.MediaAsyncCleanup, err = strconv.ParseBool(Get("MEDIA_ASYNC_CLEANUP", "false")); err != nil {
		return nil, fmt.Errorf("MEDIA_ASYNC_CLEANUP: %w", err)
	}
	if s.MediaWorkers, err = strconv.Atoi(Get("MEDIA_WORKERS", "2")); err != nil {
		return nil, fmt.Errorf("MEDIA_WORKERS: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if s.JWTSecret == "" {
		return errors.New("JWT_SECRET not set")
	}
	if s.DatabaseURL == "" {
		return errors.New("DATABASE_URL not set")
	}
	switch s.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", s.DBDriver)
	}
	switch s.MediaBackend {
	case "local":
	case "gcs":
		if s.GCSBucket == "" {
			return errors.New("GCS_BUCKET_NAME not set")
		}
	case "s3":
		if s.S3Bucket == "" {
			return errors.New("S3_BUCKET not set")
		}
	default:
		return fmt.Errorf("unsupported MEDIA_BACKEND %q", s.MediaBackend)
	}
	switch s.CascadePolicy {
	case CascadeBestEffort, CascadeStrict:
	default:
		return fmt.Errorf("unsupported CASCADE_POLICY %q", s.CascadePolicy)
	}
	if s.MediaWorkers < 1 {
		return errors.New("MEDIA_WORKERS must be positive")
	}
	return nil
}
