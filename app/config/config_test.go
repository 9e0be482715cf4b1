package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("CHANNEL_ID", "-1001")
	t.Setenv("ADMINS_CHAT_ID", "-1002")
	t.Setenv("MESSAGE_PREFIX", "Admin: ")

	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramAPIToken)
	assert.Equal(t, Chats{ChannelID: -1001, ReviewChatID: -1002}, cfg.Chats())
	assert.Equal(t, "Admin: ", cfg.MsgPrefix)
	assert.Equal(t, 5, cfg.TelegramWorkersNum)
	assert.Equal(t, 720*time.Hour, cfg.LedgerRetention)
	assert.Equal(t, "./db/moderation.sqlite", cfg.DBPath)
}

func TestParseFlagsOverrideDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("CHANNEL_ID", "1")
	t.Setenv("ADMINS_CHAT_ID", "2")

	cfg, err := Parse([]string{"--db-path", "/tmp/x.sqlite", "--ledger-retention", "48h"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.sqlite", cfg.DBPath)
	assert.Equal(t, 48*time.Hour, cfg.LedgerRetention)
}

func TestParseMissingRequired(t *testing.T) {
	for _, key := range []string{"TELEGRAM_API_TOKEN", "CHANNEL_ID", "ADMINS_CHAT_ID"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	_, err := Parse([]string{"--channel-id", "1"})
	assert.Error(t, err)
}

func TestParseRejectsSameChats(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("CHANNEL_ID", "1")
	t.Setenv("ADMINS_CHAT_ID", "1")

	_, err := Parse(nil)
	assert.Error(t, err)
}

func TestParseRejectsNonPositiveRetention(t *testing.T) {
	t.Setenv("TELEGRAM_API_TOKEN", "token")
	t.Setenv("CHANNEL_ID", "-1001")
	t.Setenv("ADMINS_CHAT_ID", "-1002")

	for _, retention := range []string{"0s", "-1h"} {
		t.Setenv("LEDGER_RETENTION", retention)

		_, err := Parse(nil)
		assert.ErrorContains(t, err, "ledger retention", retention)
	}
}
