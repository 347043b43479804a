package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.User.ID)
	assert.Equal(t, filepath.Join(home, ".local/share/taskly/tasks.db"), cfg.Storage.Path)
	assert.Equal(t, filepath.Join(home, ".config/taskly/settings.json"), cfg.Settings.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 64, cfg.Notifications.Buffer)
	assert.False(t, cfg.Notifications.Desktop)
	assert.Empty(t, cfg.Changefeed.NATSURL)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user:
  id: alice
log:
  level: debug
  format: console
calendar:
  locale: en-US
  timezone: UTC
notifications:
  buffer: 8
`), 0o600))

	t.Setenv("TASKLY_STORAGE_PATH", "/tmp/taskly-env.db")
	t.Setenv("TASKLY_NOTIFICATIONS_DESKTOP", "true")
	t.Setenv("TASKLY_CHANGEFEED_NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User.ID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "en-US", cfg.Calendar.Locale)
	assert.Equal(t, 8, cfg.Notifications.Buffer)
	assert.Equal(t, "/tmp/taskly-env.db", cfg.Storage.Path)
	assert.True(t, cfg.Notifications.Desktop)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Changefeed.NATSURL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	isolateHome(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	isolateHome(t)
	cases := map[string]string{
		"TASKLY_USER_ID":              " ",
		"TASKLY_LOG_LEVEL":            "loud",
		"TASKLY_LOG_FORMAT":           "xml",
		"TASKLY_CALENDAR_TIMEZONE":    "Mars/Olympus",
		"TASKLY_NOTIFICATIONS_BUFFER": "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

// Env overrides produce lowercase keys, so defaults must use them too or
// the two end up as separate entries.
func TestDefaultsUseLowercaseKeys(t *testing.T) {
	k := koanf.New(".")
	require.NoError(t, k.Load(rawbytes.Provider(defaultsYAML), yaml.Parser()))
	for _, key := range k.Keys() {
		assert.Equal(t, strings.ToLower(key), key)
	}
	assert.True(t, k.Exists("user.id"))
}
