// Package config loads the controller's process configuration from
// environment variables, per the external interfaces the spec defines.
// There is no config file: every setting is optional and falls back to the
// default given in Load, the same override-from-env discipline the teacher's loader
// applied to a handful of sensitive fields, now covering every setting.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is the controller's immutable, process-wide configuration.
type Config struct {
	Namespace     string
	ConfigMapName string

	DBHost string
	DBPort int
	DBName string
	DBUser string
	DBPass string

	SyncInterval int
	StateFile    string
	DryRun       bool
	MetricsAddr  string

	MaxRetries       int
	RetryBackoffBase float64

	DBPoolMinConn int
	DBPoolMaxConn int
}

// Load reads Config from the environment, applying the defaults named in
// the external interfaces section.
func Load() (*Config, error) {
	cfg := &Config{
		Namespace:     getenv("NAMESPACE", "postgres"),
		ConfigMapName: getenv("CONFIGMAP_NAME", "postgres-users-config"),
		DBHost:        getenv("DB_HOST", ""),
		DBName:        getenv("DB_NAME", "postgres"),
		DBUser:        getenv("DB_USER", "postgres"),
		DBPass:        getenv("DB_PASS", ""),
		StateFile:     getenv("STATE_FILE", "/tmp/users_state.json"),
		MetricsAddr:   getenv("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.DBPort, err = getenvInt("DB_PORT", 5432); err != nil {
		return nil, err
	}
	if cfg.SyncInterval, err = getenvInt("SYNC_INTERVAL", 30); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = getenvInt("MAX_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.DBPoolMinConn, err = getenvInt("DB_POOL_MIN_CONN", 1); err != nil {
		return nil, err
	}
	if cfg.DBPoolMaxConn, err = getenvInt("DB_POOL_MAX_CONN", 5); err != nil {
		return nil, err
	}
	if cfg.RetryBackoffBase, err = getenvFloat("RETRY_BACKOFF_BASE", 2.0); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = getenvBool("DRY_RUN", false); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return f, nil
}

func getenvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return b, nil
}
