package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	envServerAddress   = "SERVER_ADDRESS"
	envBaseURL         = "BASE_URL"
	envFileStoragePath = "FILE_STORAGE_PATH"
	envDatabaseDSN     = "DATABASE_DSN"
	envSizeLimit       = "SIZE_LIMIT"
	envSweepInterval   = "SWEEP_INTERVAL"
	envDefaultTTL      = "DEFAULT_TTL"
)

const (
	defaultServerAddress   = "localhost:3000"
	defaultBaseURL         = "http://localhost:3000"
	defaultFileStoragePath = "tmpbin-db.json"
	defaultDatabaseDSN     = ""
	defaultSizeLimit       = int64(10 * 1024 * 1024)
	defaultSweepInterval   = time.Minute
	defaultTTL             = time.Hour
)

type Config struct {
	ServerAddress   string
	BaseURL         string
	FileStoragePath string // in-memory snapshot location, ignored with a DSN
	DatabaseDSN     string // non-empty selects the postgres backend
	SizeLimit       int64  // max payload bytes
	SweepInterval   time.Duration
	DefaultTTL      time.Duration
}

// NewConfig builds the runtime configuration: defaults, then flags, then an
// optional .env file and the environment. All values are fixed at startup.
func NewConfig() *Config {
	cfg := New()
	if err := cfg.ParseFlags(os.Args[1:]); err != nil {
		panic(err)
	}
	cfg.ApplyEnv()
	cfg.normalize()
	return cfg
}

// New returns a Config populated with defaults only.
func New() *Config {
	return &Config{
		ServerAddress:   defaultServerAddress,
		BaseURL:         defaultBaseURL,
		FileStoragePath: defaultFileStoragePath,
		DatabaseDSN:     defaultDatabaseDSN,
		SizeLimit:       defaultSizeLimit,
		SweepInterval:   defaultSweepInterval,
		DefaultTTL:      defaultTTL,
	}
}

// ParseFlags overlays command-line flags. A private FlagSet keeps the parse
// testable and clear of the test binary's own flags.
func (c *Config) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("tmpbin", flag.ContinueOnError)

	fs.StringVar(&c.ServerAddress, "server-address", c.ServerAddress, "Server address")
	fs.StringVar(&c.BaseURL, "base-url", c.BaseURL, "Base URL")
	fs.StringVar(&c.FileStoragePath, "file-storage-path", c.FileStoragePath, "Snapshot file path")
	fs.StringVar(&c.DatabaseDSN, "database-dsn", c.DatabaseDSN, "Database DSN")
	fs.Int64Var(&c.SizeLimit, "size-limit", c.SizeLimit, "Payload size limit in bytes")
	fs.DurationVar(&c.SweepInterval, "sweep-interval", c.SweepInterval, "Expiry sweep interval")
	fs.DurationVar(&c.DefaultTTL, "default-ttl", c.DefaultTTL, "Default entry time-to-live")

	return fs.Parse(args)
}

// ApplyEnv overlays an optional .env file and the process environment.
// Environment values win over flags.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	applyEnv(envServerAddress, &c.ServerAddress)
	applyEnv(envBaseURL, &c.BaseURL)
	applyEnv(envFileStoragePath, &c.FileStoragePath)
	applyEnv(envDatabaseDSN, &c.DatabaseDSN)
	applyEnvInt64(envSizeLimit, &c.SizeLimit)
	applyEnvDuration(envSweepInterval, &c.SweepInterval)
	applyEnvDuration(envDefaultTTL, &c.DefaultTTL)
}

func applyEnv(key string, target *string) {
	if val, ok := os.LookupEnv(key); ok {
		*target = val
	}
}

func applyEnvInt64(key string, target *int64) {
	if val, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			*target = n
		}
	}
}

func applyEnvDuration(key string, target *time.Duration) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			*target = d
		}
	}
}

func (c *Config) normalize() {
	c.FileStoragePath = c.resolveFilePath()
	c.normalizeServerAddress()
}

func (c *Config) resolveFilePath() string {
	if c.FileStoragePath == "" || filepath.IsAbs(c.FileStoragePath) {
		return c.FileStoragePath
	}

	absPath, err := filepath.Abs(c.FileStoragePath)
	if err != nil {
		return filepath.Clean(c.FileStoragePath)
	}
	return absPath
}

func (c *Config) normalizeServerAddress() {
	if strings.HasPrefix(c.ServerAddress, ":") {
		c.ServerAddress = "localhost" + c.ServerAddress
	}
}
