package config

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Config is read once at startup and handed to components by value.
type Config struct {
	TelegramAPIToken   string `long:"telegram-api-token" env:"TELEGRAM_API_TOKEN" required:"true" description:"telegram api token"`
	TelegramWorkersNum int    `long:"telegram-workers-num" env:"TELEGRAM_WORKERS_NUM" default:"5" description:"number of workers for telegram bot"`

	ChannelID    int64  `long:"channel-id" env:"CHANNEL_ID" required:"true" description:"public channel accepted posts are published to"`
	AdminsChatID int64  `long:"admins-chat-id" env:"ADMINS_CHAT_ID" required:"true" description:"review chat where submissions are moderated"`
	MsgPrefix    string `long:"message-prefix" env:"MESSAGE_PREFIX" default:"" description:"prefix of messages sent to submitters with /msg"`

	AcceptPoolDir  string `long:"accept-pool-dir" env:"ACCEPT_POOL_DIR" description:"directory of accept response clips imported at startup"`
	DeclinePoolDir string `long:"decline-pool-dir" env:"DECLINE_POOL_DIR" description:"directory of decline response clips imported at startup"`

	DBPath string `long:"db-path" env:"DB_PATH" default:"./db/moderation.sqlite" description:"path to the sqlite database file"`

	LedgerRetention       time.Duration `long:"ledger-retention" env:"LEDGER_RETENTION" default:"720h" description:"age after which pending submissions are purged"`
	LedgerJanitorInterval time.Duration `long:"ledger-janitor-interval" env:"LEDGER_JANITOR_INTERVAL" default:"1h" description:"how often stale submissions are purged"`

	HandleCacheSize int           `long:"handle-cache-size" env:"HANDLE_CACHE_SIZE" default:"256" description:"in-memory file handle cache entries"`
	HandleCacheTTL  time.Duration `long:"handle-cache-ttl" env:"HANDLE_CACHE_TTL" default:"24h" description:"in-memory file handle cache ttl"`

	MetricsAddr string `long:"metrics-addr" env:"METRICS_ADDR" description:"listen address of the prometheus endpoint, disabled if empty"`
	SentryDSN   string `long:"sentry-dsn" env:"SENTRY_DSN" description:"sentry dsn, error reporting is disabled if empty"`
	LogLevel    string `long:"log-level" env:"LOG_LEVEL" default:"debug" choice:"debug" choice:"info" choice:"warn" choice:"error" description:"log level"`
}

// Chats are the two chat identities the relay routes between.
type Chats struct {
	ChannelID    int64
	ReviewChatID int64
}

func (c *Config) Chats() Chats {
	return Chats{
		ChannelID:    c.ChannelID,
		ReviewChatID: c.AdminsChatID,
	}
}

// Parse reads flags and environment into a Config.
func Parse(args []string) (*Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramWorkersNum <= 0 {
		return fmt.Errorf("telegram workers number must be greater than 0")
	}
	if c.ChannelID == c.AdminsChatID {
		return fmt.Errorf("channel and admins chat must differ")
	}
	if c.HandleCacheSize <= 0 {
		return fmt.Errorf("handle cache size must be greater than 0")
	}
	if c.LedgerRetention <= 0 {
		return fmt.Errorf("ledger retention must be positive")
	}
	if c.LedgerJanitorInterval <= 0 {
		return fmt.Errorf("ledger janitor interval must be positive")
	}
	return nil
}
