package config

import (
	"crypto-tracker-bot/internal/types"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"sync"
	"time"
)

const (
	DefaultNewsAPIURL = "https://min-api.cryptocompare.com/data/v2/news/?lang=EN"
	MinCheckInterval  = time.Second
)

// RunMode selects how Telegram updates reach the bot
type RunMode string

const (
	ModePolling RunMode = "polling"
	ModeWebhook RunMode = "webhook"
)

// Config is built once at startup and passed to every component
type Config struct {
	TelegramToken  string
	WebhookURL     string
	Port           int
	DatabasePath   string
	Debug          bool
	Lang           string
	APIProKey      string
	NewsAPIURL     string
	NewsAPIKey     string
	CheckInterval  time.Duration
	RequestTimeout time.Duration
	CacheTTL       time.Duration
}

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("webhook_url", "WEBHOOK_URL")
		viper.BindEnv("port", "PORT")
		viper.BindEnv("database_name", "DATABASE_NAME")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("news_api_url", "NEWS_API_URL")
		viper.BindEnv("news_api_key", "NEWS_API_KEY")
		viper.BindEnv("check_interval", "CHECK_INTERVAL")
		viper.BindEnv("request_timeout", "REQUEST_TIMEOUT")
		viper.BindEnv("cache_ttl", "CACHE_TTL")

		viper.SetDefault("port", 8080)
		viper.SetDefault("database_name", "alerts.db")
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("news_api_url", DefaultNewsAPIURL)
		viper.SetDefault("check_interval", time.Minute)
		viper.SetDefault("request_timeout", 10*time.Second)
		viper.SetDefault("cache_ttl", 60*time.Second)
	})
}

// RegisterFlags adds command line overrides for the most used settings.
// Flags win over environment variables once bound.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("db", "", "path to the sqlite database (DATABASE_NAME)")
	fs.Bool("debug", false, "enable debug logging (DEBUG)")
	fs.String("webhook-url", "", "public base url for webhook mode (WEBHOOK_URL)")
}

// BindFlags binds flags that were explicitly set on the command line
func BindFlags(fs *pflag.FlagSet) {
	InitConfig()
	bind := map[string]string{
		"db":          "database_name",
		"debug":       "debug",
		"webhook-url": "webhook_url",
	}
	for flag, key := range bind {
		if f := fs.Lookup(flag); f != nil && f.Changed {
			viper.BindPFlag(key, f)
		}
	}
}

// Load reads the configuration from the environment and validates it
func Load() (Config, error) {
	InitConfig()

	c := Config{
		TelegramToken:  viper.GetString("telegram_bot_token"),
		WebhookURL:     viper.GetString("webhook_url"),
		Port:           viper.GetInt("port"),
		DatabasePath:   viper.GetString("database_name"),
		Debug:          viper.GetBool("debug"),
		Lang:           viper.GetString("lang"),
		APIProKey:      viper.GetString("api_pro_key"),
		NewsAPIURL:     viper.GetString("news_api_url"),
		NewsAPIKey:     viper.GetString("news_api_key"),
		CheckInterval:  viper.GetDuration("check_interval"),
		RequestTimeout: viper.GetDuration("request_timeout"),
		CacheTTL:       viper.GetDuration("cache_ttl"),
	}

	return c, c.Validate()
}

// Validate reports the first setting that prevents startup
func (c Config) Validate() error {
	switch {
	case c.TelegramToken == "":
		return &types.ConfigurationError{Key: "TELEGRAM_BOT_TOKEN", Reason: "must be set"}
	case c.Port <= 0 || c.Port > 65535:
		return &types.ConfigurationError{Key: "PORT", Reason: "must be between 1 and 65535"}
	case c.DatabasePath == "":
		return &types.ConfigurationError{Key: "DATABASE_NAME", Reason: "must not be empty"}
	case c.CheckInterval < 0:
		return &types.ConfigurationError{Key: "CHECK_INTERVAL", Reason: "must not be negative"}
	case c.CheckInterval > 0 && c.CheckInterval < MinCheckInterval:
		// a bare number such as 60 parses as nanoseconds
		return &types.ConfigurationError{Key: "CHECK_INTERVAL", Reason: "must be 0 or at least 1s, with a unit such as 60s or 5m"}
	case c.RequestTimeout <= 0:
		return &types.ConfigurationError{Key: "REQUEST_TIMEOUT", Reason: "must be positive"}
	case c.CacheTTL < 0:
		return &types.ConfigurationError{Key: "CACHE_TTL", Reason: "must not be negative"}
	}
	return nil
}

// Mode is webhook when a public url is configured, polling otherwise
func (c Config) Mode() RunMode {
	if c.WebhookURL != "" {
		return ModeWebhook
	}
	return ModePolling
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
