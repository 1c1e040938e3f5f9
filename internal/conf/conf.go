package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hiji-labs/feedback-relay/internal/biz/domain"
)

// Config is the application configuration. Values come from an optional YAML
// file, then environment variables on top, then defaults.
type Config struct {
	// Telegram configuration
	Telegram TelegramConfig `yaml:"telegram"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Intake timer configuration
	Intake IntakeConfig `yaml:"intake"`

	// Contest configuration
	Contest ContestConfig `yaml:"contest"`

	// Housekeeping configuration
	Housekeeping HousekeepingConfig `yaml:"housekeeping"`

	// Watermark configuration
	Watermark WatermarkConfig `yaml:"watermark"`

	// HTTPPort serves the keep-alive and metrics endpoints.
	HTTPPort int `yaml:"http_port"`

	// Debug mode
	Debug bool `yaml:"debug"`
}

// TelegramConfig contains platform credentials and well-known chats.
type TelegramConfig struct {
	Token string `yaml:"token"`
	// OwnerID always passes privileged-command checks.
	OwnerID int64 `yaml:"owner_id"`
	// TargetChatID is the fallback curation channel; /settarget overrides it
	// at runtime.
	TargetChatID int64 `yaml:"target_chat_id"`
	// RelayChatID is a bot-owned chat used for photo byte access. Defaults
	// to the owner's private chat.
	RelayChatID int64 `yaml:"relay_chat_id"`
	// Marker tags a message as a submission.
	Marker string `yaml:"marker"`
}

// StorageConfig contains database settings.
type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

// IntakeConfig contains the aggregation and delivery timers.
type IntakeConfig struct {
	SettleSeconds    int `yaml:"settle_seconds"`
	ForwardSeconds   int `yaml:"forward_seconds"`
	RetentionHours   int `yaml:"retention_hours"`
	ItemGapSeconds   int `yaml:"item_gap_seconds"`
	StatsWindowDays  int `yaml:"stats_window_days"`
	LedgerKeepDays   int `yaml:"ledger_keep_days"`
	ReminderInterval int `yaml:"reminder_interval_hours"`
}

// ContestConfig contains the daily contest boundaries, in UTC.
type ContestConfig struct {
	RolloverHour   int `yaml:"rollover_hour"`
	AnnounceHour   int `yaml:"announce_hour"`
	AnnounceMinute int `yaml:"announce_minute"`
}

// HousekeepingConfig contains the daily cleanup time, in UTC.
type HousekeepingConfig struct {
	CleanupHour   int `yaml:"cleanup_hour"`
	CleanupMinute int `yaml:"cleanup_minute"`
}

// WatermarkConfig contains the overlay asset settings.
type WatermarkConfig struct {
	// FallbackPath is an optional on-disk asset used until one is uploaded.
	FallbackPath string `yaml:"fallback_path"`
	MaxBytes     int    `yaml:"max_bytes"`
}

// Load reads the optional YAML file named by CONFIG_PATH, applies environment
// variables on top, and fills the rest with defaults.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		_ = cfg.loadFile(path)
	}
	cfg.applyEnv()
	return cfg
}

func defaults() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Telegram: TelegramConfig{
			Marker: domain.DefaultMarker,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join(homeDir, ".feedback-relay", "feedback.db"),
		},
		Intake: IntakeConfig{
			SettleSeconds:    10,
			ForwardSeconds:   3,
			RetentionHours:   6,
			ItemGapSeconds:   2,
			StatsWindowDays:  3,
			LedgerKeepDays:   5,
			ReminderInterval: 2,
		},
		Contest: ContestConfig{
			RolloverHour:   domain.DefaultRolloverHour,
			AnnounceHour:   domain.DefaultRolloverHour,
			AnnounceMinute: 5,
		},
		Housekeeping: HousekeepingConfig{
			CleanupHour:   3,
			CleanupMinute: 0,
		},
		Watermark: WatermarkConfig{
			MaxBytes: 5 << 20,
		},
		HTTPPort: 8080,
	}
}

func (c *Config) applyEnv() {
	setString(&c.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setInt64(&c.Telegram.OwnerID, "OWNER_ID")
	setInt64(&c.Telegram.TargetChatID, "TARGET_CHAT_ID")
	setInt64(&c.Telegram.RelayChatID, "RELAY_CHAT_ID")
	setString(&c.Telegram.Marker, "FEEDBACK_MARKER")
	setString(&c.Storage.DBPath, "DB_PATH")
	setInt(&c.Intake.SettleSeconds, "SETTLE_SECONDS")
	setInt(&c.Intake.ForwardSeconds, "FORWARD_SECONDS")
	setInt(&c.Intake.RetentionHours, "AGGREGATE_RETENTION_HOURS")
	setInt(&c.Intake.ItemGapSeconds, "ITEM_GAP_SECONDS")
	setInt(&c.Intake.StatsWindowDays, "STATS_WINDOW_DAYS")
	setInt(&c.Intake.LedgerKeepDays, "LEDGER_KEEP_DAYS")
	setInt(&c.Intake.ReminderInterval, "REMINDER_INTERVAL_HOURS")
	setInt(&c.Contest.RolloverHour, "CONTEST_ROLLOVER_HOUR")
	setInt(&c.Contest.AnnounceHour, "CONTEST_ANNOUNCE_HOUR")
	setInt(&c.Contest.AnnounceMinute, "CONTEST_ANNOUNCE_MINUTE")
	setInt(&c.Housekeeping.CleanupHour, "CLEANUP_HOUR")
	setInt(&c.Housekeeping.CleanupMinute, "CLEANUP_MINUTE")
	setString(&c.Watermark.FallbackPath, "WATERMARK_PATH")
	setInt(&c.Watermark.MaxBytes, "WATERMARK_MAX_BYTES")
	setInt(&c.HTTPPort, "HTTP_PORT")
	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func setInt64(dst *int64, key string) {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

// SettleDelay returns the marker-to-accept delay.
func (c *IntakeConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleSeconds) * time.Second
}

// ForwardDelay returns the accept-to-delivery delay.
func (c *IntakeConfig) ForwardDelay() time.Duration {
	return time.Duration(c.ForwardSeconds) * time.Second
}

// AggregateRetention returns how long an aggregate stays addressable.
func (c *IntakeConfig) AggregateRetention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// ItemGap returns the minimum spacing between delivered items.
func (c *IntakeConfig) ItemGap() time.Duration {
	return time.Duration(c.ItemGapSeconds) * time.Second
}

// StatsWindow returns the stats lookback window.
func (c *IntakeConfig) StatsWindow() time.Duration {
	return time.Duration(c.StatsWindowDays) * 24 * time.Hour
}

// LedgerRetention returns how long ledger events are kept.
func (c *IntakeConfig) LedgerRetention() time.Duration {
	return time.Duration(c.LedgerKeepDays) * 24 * time.Hour
}

// ReminderEvery returns the reminder broadcast interval.
func (c *IntakeConfig) ReminderEvery() time.Duration {
	return time.Duration(c.ReminderInterval) * time.Hour
}

// Validate checks the required settings.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return &ConfigError{Field: "TELEGRAM_BOT_TOKEN", Message: "required"}
	}
	if c.Contest.RolloverHour < 0 || c.Contest.RolloverHour > 23 {
		return &ConfigError{Field: "CONTEST_ROLLOVER_HOUR", Message: "must be 0-23"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
