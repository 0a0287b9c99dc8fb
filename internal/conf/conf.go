package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kykmenu/yemekbot/internal/dispatch"
	"github.com/kykmenu/yemekbot/internal/gate"
)

// Config represents application configuration
type Config struct {
	// Gateway configuration
	Gateway GatewayConfig

	// Menu API configuration
	Menu MenuConfig

	// Admin panel configuration
	Panel PanelConfig

	// Throttling configuration
	Throttle ThrottleConfig

	// Activity log configuration
	Log LogConfig

	// Daily notification configuration
	Notify NotifyConfig

	// Debug mode
	Debug bool
}

// GatewayConfig contains WhatsApp gateway configuration
type GatewayConfig struct {
	URL           string
	BotNumber     string
	BlockedNumber string
}

// MenuConfig contains menu API configuration
type MenuConfig struct {
	BaseURL       string
	City          string
	Timeout       time.Duration
	WeeklyTimeout time.Duration
}

// PanelConfig contains admin panel configuration
type PanelConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ThrottleConfig contains admission and dispatch pacing configuration
type ThrottleConfig struct {
	UserCooldown    time.Duration
	ChatCooldown    time.Duration
	UserHourlyLimit int
	DailyLimit      int
	HourlyLimit     int

	PreSendDelayMin time.Duration
	PreSendDelayMax time.Duration
	InterItemDelay  time.Duration
}

// LogConfig contains activity log configuration
type LogConfig struct {
	DBPath string
}

// NotifyConfig contains daily notification configuration
type NotifyConfig struct {
	Enabled        bool
	BreakfastHour  int
	DinnerHour     int
	InterGroupWait time.Duration
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Activity log DB path
	logDBPath := os.Getenv("LOG_DB_PATH")
	if logDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		logDBPath = filepath.Join(homeDir, ".yemekbot", "activity.db")
	}

	gatewayURL := os.Getenv("GATEWAY_URL")
	if gatewayURL == "" {
		gatewayURL = "ws://127.0.0.1:8765/ws"
	}

	menuURL := os.Getenv("YEMEK_API_URL")
	if menuURL == "" {
		menuURL = "http://localhost:3000/yemek"
	}

	menuCity := os.Getenv("YEMEK_API_CITY")
	if menuCity == "" {
		menuCity = "balikesir"
	}

	panelURL := os.Getenv("ADMIN_API_URL")
	if panelURL == "" {
		panelURL = "http://localhost:3001"
	}

	blockedNumber := os.Getenv("BLOCKED_NUMBER")
	if blockedNumber == "" {
		blockedNumber = "5428055983"
	}

	return &Config{
		Gateway: GatewayConfig{
			URL:           gatewayURL,
			BotNumber:     os.Getenv("BOT_NUMBER"),
			BlockedNumber: blockedNumber,
		},
		Menu: MenuConfig{
			BaseURL:       menuURL,
			City:          menuCity,
			Timeout:       envDuration("YEMEK_API_TIMEOUT_SECONDS", 10*time.Second),
			WeeklyTimeout: envDuration("YEMEK_API_WEEKLY_TIMEOUT_SECONDS", 5*time.Second),
		},
		Panel: PanelConfig{
			BaseURL: panelURL,
			Timeout: envDuration("ADMIN_API_TIMEOUT_SECONDS", time.Second),
		},
		Throttle: ThrottleConfig{
			UserCooldown:    envDuration("USER_COOLDOWN_SECONDS", 3*time.Second),
			ChatCooldown:    envDuration("GROUP_COOLDOWN_SECONDS", time.Second),
			UserHourlyLimit: envInt("MAX_REQUESTS_PER_USER_PER_HOUR", 20),
			DailyLimit:      envInt("DAILY_MESSAGE_LIMIT", 200),
			HourlyLimit:     envInt("HOURLY_MESSAGE_LIMIT", 1000),
			PreSendDelayMin: envMillis("MIN_MESSAGE_DELAY_MS", 500*time.Millisecond),
			PreSendDelayMax: envMillis("MAX_MESSAGE_DELAY_MS", 1000*time.Millisecond),
			InterItemDelay:  envMillis("QUEUE_ITEM_DELAY_MS", 200*time.Millisecond),
		},
		Log: LogConfig{
			DBPath: logDBPath,
		},
		Notify: NotifyConfig{
			Enabled:        os.Getenv("DAILY_NOTIFICATIONS") != "false",
			BreakfastHour:  envInt("BREAKFAST_NOTIFY_HOUR", 7),
			DinnerHour:     envInt("DINNER_NOTIFY_HOUR", 16),
			InterGroupWait: envMillis("NOTIFY_GROUP_DELAY_MS", 2*time.Second),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// ToGateConfig converts to admission gate configuration
func (c *ThrottleConfig) ToGateConfig() gate.Config {
	return gate.Config{
		UserCooldown:    c.UserCooldown,
		ChatCooldown:    c.ChatCooldown,
		UserHourlyLimit: c.UserHourlyLimit,
		DailyLimit:      c.DailyLimit,
		HourlyLimit:     c.HourlyLimit,
	}
}

// ToQueueConfig converts to dispatch queue configuration
func (c *ThrottleConfig) ToQueueConfig() dispatch.Config {
	return dispatch.Config{
		PreSendDelayMin: c.PreSendDelayMin,
		PreSendDelayMax: c.PreSendDelayMax,
		InterItemDelay:  c.InterItemDelay,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gateway.BotNumber == "" {
		return &ConfigError{Field: "BOT_NUMBER", Message: "required"}
	}
	if c.Throttle.PreSendDelayMax < c.Throttle.PreSendDelayMin {
		return &ConfigError{Field: "MAX_MESSAGE_DELAY_MS", Message: "must be >= MIN_MESSAGE_DELAY_MS"}
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

func envInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return time.Duration(parsed) * time.Second
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return time.Duration(parsed) * time.Millisecond
		}
	}
	return def
}
