package main

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	defaultSource   = "data"
	defaultDBSchema = "circulation_analytics"
	defaultTopN     = 10
)

type Config struct {
	Source       string
	SourceSchema string
	DBURL        string
	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3PathStyle  bool
	S3Prefix     string
	MetricsFile  string
	LogLevel     string
}

// loadConfig reads the environment after folding in a .env file, if any.
// Variables already set in the environment win over the file.
func loadConfig() Config {
	_ = godotenv.Load()
	return Config{
		Source:       env("CIRCULATION_SOURCE", defaultSource),
		SourceSchema: env("CIRCULATION_SOURCE_SCHEMA", ""),
		DBURL:        dbURLFromEnv(),
		S3Bucket:     env("CIRCULATION_S3_BUCKET", ""),
		S3Region:     env("CIRCULATION_S3_REGION", "us-east-1"),
		S3Endpoint:   env("CIRCULATION_S3_ENDPOINT", ""),
		S3PathStyle:  strings.EqualFold(env("CIRCULATION_S3_PATH_STYLE", "false"), "true"),
		S3Prefix:     env("CIRCULATION_S3_PREFIX", "circulation-reports"),
		MetricsFile:  env("CIRCULATION_METRICS_FILE", ""),
		LogLevel:     env("CIRCULATION_LOG_LEVEL", "info"),
	}
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func dbURLFromEnv() string {
	if value := env("CIRCULATION_DB_URL", ""); value != "" {
		return value
	}
	return env("DATABASE_URL", "")
}

func newLogger(level string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsed = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(parsed).
		With().
		Timestamp().
		Logger()
}
