package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const minimalConfig = `
integrity: off
line:
  channel_secret: "secret"
  channel_access_token: "token"
  reply_endpoint: "https://api.line.me/v2/bot/message/reply"
  content_endpoint: "https://api-data.line.me/v2/bot/message"
`

func TestLoad_Minimal(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.Line.ChannelSecret)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	assert.Equal(t, "./data/linegate.db", cfg.Storage.Path)
	assert.Equal(t, "./data/content", cfg.Storage.ContentDir)
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_CHANNEL_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, `
integrity: off
line:
  channel_secret: "${TEST_CHANNEL_SECRET}"
  channel_access_token: "token"
  reply_endpoint: "https://api.line.me/v2/bot/message/reply"
  content_endpoint: "https://api-data.line.me/v2/bot/message"
`))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Line.ChannelSecret)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	_, err := Load(writeConfig(t, `
integrity: off
line:
  channel_access_token: "token"
  reply_endpoint: "https://api.line.me/v2/bot/message/reply"
  content_endpoint: "https://api-data.line.me/v2/bot/message"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_secret")
}

func TestLoad_UnsetEnvVarFailsValidation(t *testing.T) {
	_, err := Load(writeConfig(t, `
integrity: off
line:
  channel_secret: "${DEFINITELY_NOT_SET_VAR_12345}"
  channel_access_token: "token"
  reply_endpoint: "https://api.line.me/v2/bot/message/reply"
  content_endpoint: "https://api-data.line.me/v2/bot/message"
`))
	require.Error(t, err)
}

func TestLoad_InvalidIntegrityMode(t *testing.T) {
	_, err := Load(writeConfig(t, `
integrity: sometimes
line:
  channel_secret: "secret"
  channel_access_token: "token"
  reply_endpoint: "https://api.line.me/v2/bot/message/reply"
  content_endpoint: "https://api-data.line.me/v2/bot/message"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "integrity")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_PublishSubjectDefault(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
publish:
  url: "nats://localhost:4222"
`))
	require.NoError(t, err)
	assert.Equal(t, "line.messages", cfg.Publish.Subject)
}
