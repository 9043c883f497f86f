package config

import (
	"os"
	"path"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/yumyai/pfamscan/logger"
	"github.com/yumyai/pfamscan/pkg/hmmer"
	"go.uber.org/zap"
)

const (
	defaultDataDir     = "./data"
	defaultAddr        = "0.0.0.0:8080"
	defaultScanTimeout = 2 * time.Minute
)

type Config struct {
	DataDir     string
	Addr        string
	ServiceURL  string
	Database    string
	CutGA       bool
	ScanTimeout time.Duration
	LogLevel    string
}

// StorePath is where finished scans are kept.
func (c *Config) StorePath() string {
	return path.Join(c.DataDir, "db", "scans.db")
}

// LoadDotEnv reads .env files into the environment. A missing file is not an
// error; the process environment is used as is.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		logger.Warn("No .env found, using local environment")
	}
}

// FromEnv builds the configuration from the environment, falling back to
// defaults for anything unset or unparseable.
func FromEnv() *Config {
	return &Config{
		DataDir:     getString("PFAMSCAN_DATA", defaultDataDir),
		Addr:        getString("PFAMSCAN_ADDR", defaultAddr),
		ServiceURL:  getString("HMMER_SERVICE", hmmer.DefaultServiceURL),
		Database:    getString("HMMER_DB", hmmer.DefaultDatabase),
		CutGA:       getBool("HMMER_CUT_GA", true),
		ScanTimeout: getDuration("PFAMSCAN_SCAN_TIMEOUT", defaultScanTimeout),
		LogLevel:    getString("PFAMSCAN_LOG_LEVEL", "info"),
	}
}

func getString(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Debug("Environment variable not set, using default",
			zap.String("key", key), zap.String("default", fallback))
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("Invalid boolean in environment, using default",
			zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration in environment, using default",
			zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return d
}
