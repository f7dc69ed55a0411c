package migrationbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SLACK_BOT_TOKEN", "xoxb-test")
	t.Setenv("SLACK_SIGNING_SECRET", "shhh")
	t.Setenv("QUEUE_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AWS_REGION", "")

	cfg, err := LoadConfig("SLACK_BOT_TOKEN", "SLACK_SIGNING_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "xoxb-test", cfg.SlackToken)
	assert.Equal(t, "shhh", cfg.SigningSecret)

	_, err = LoadConfig("SLACK_BOT_TOKEN", "QUEUE_URL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUEUE_URL")
}
