package config

import (
	"fmt"
	"net/url"
	"strings"
)

// MigrationConfig is the subset the migration command needs. It skips the
// service checks in Load so schema changes can run before the service is
// configured.
type MigrationConfig struct {
	DBURL              string
	DBBinaryParameters bool
	MigrationsDir      string
	LogLevel           string
}

func LoadMigration() (MigrationConfig, error) {
	cfg := MigrationConfig{
		DBURL:         strings.TrimSpace(getEnv("DB_URL", "")),
		MigrationsDir: strings.TrimSpace(getEnv("MIGRATIONS_DIR", "")),
		LogLevel:      getEnv("APP_LOG_LEVEL", "info"),
	}
	if cfg.DBURL == "" {
		return MigrationConfig{}, fmt.Errorf("DB_URL is required")
	}

	var err error
	if cfg.DBBinaryParameters, err = getEnvAsBool("DB_BINARY_PARAMETERS", "false"); err != nil {
		return MigrationConfig{}, err
	}
	return cfg, nil
}

func (c MigrationConfig) DatabaseURL() string {
	return withBinaryParameters(c.DBURL, c.DBBinaryParameters)
}

// DatabaseURL is DB_URL with DB_BINARY_PARAMETERS applied.
func (c Config) DatabaseURL() string {
	return withBinaryParameters(c.DBURL, c.DBBinaryParameters)
}

// withBinaryParameters turns on lib/pq binary parameters so queries with
// arguments skip the named prepare step, which transaction-pooling proxies
// reject. Key/value DSNs and explicit settings are left alone.
func withBinaryParameters(raw string, enabled bool) string {
	if !enabled {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Has("binary_parameters") {
		return raw
	}
	query.Set("binary_parameters", "yes")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
