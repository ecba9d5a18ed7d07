package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tideline-io/metricsink/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "metricsink.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
web:
  address: "0.0.0.0:9104"
logs:
  log_level: debug
rate:
  cache_size: 1024
databases:
  - host: db1
    user: collectd
    password: s3cret
    database: metrics
  - host: db2
    port: 3307
    user: collectd
    database: metrics
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9104", cfg.WebConfig.Address)
	require.Equal(t, "debug", cfg.LogConfig.LogLevel)
	require.Equal(t, 1024, cfg.Rate.CacheSize)
	require.Len(t, cfg.Databases, 2)

	// Defaulted port.
	require.Equal(t, 3306, cfg.Databases[0].Port)
	require.Equal(t, 3307, cfg.Databases[1].Port)

	require.Equal(t, "collectd:s3cret@tcp(db1:3306)/metrics", cfg.Databases[0].DSN())
	require.Equal(t, "collectd@tcp(db2:3307)/metrics", cfg.Databases[1].DSN())
	require.Equal(t, "mysql/db1:3306/metrics", cfg.Databases[0].TargetName())
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
databases:
  - host: db1
    user: root
    database: metrics
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultMetricSinkConfig.WebConfig.Address, cfg.WebConfig.Address)
	require.Equal(t, "info", cfg.LogConfig.LogLevel)
}

func TestLoadConfigRejectsEmptyTargets(t *testing.T) {
	_, err := config.LoadConfig(writeConfig(t, "web:\n  address: \"0.0.0.0:9103\"\n"))
	require.Error(t, err)

	_, err = config.LoadConfig(writeConfig(t, "databases:\n  - host: db1\n"))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
