package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Mode selects where the dashboard state lives
type Mode string

const (
	ModeLocal Mode = "local" // in-memory ledger is the source of truth
	ModeAPI   Mode = "api"   // Backend Gateway is the source of truth
)

// Config is the process configuration
type Config struct {
	Mode Mode `mapstructure:"mode"`
	GRPC struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"grpc"`
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	Auth struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"auth"`
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
	Gateway struct {
		BaseURL string `mapstructure:"base_url"`
		UserID  string `mapstructure:"user_id"`
	} `mapstructure:"gateway"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Ledger struct {
		Currency            string `mapstructure:"currency"`
		AccountNumberPrefix string `mapstructure:"account_number_prefix"`
	} `mapstructure:"ledger"`
	Quest struct {
		PremiumPrice int64 `mapstructure:"premium_price"`
	} `mapstructure:"quest"`
	Cards struct {
		DedicatedBackingAccount bool `mapstructure:"dedicated_backing_account"`
	} `mapstructure:"cards"`
	History struct {
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"history"`
}

// EnvPrefix prefixes every environment override, e.g. MULTIBANK_GRPC_ADDR
const EnvPrefix = "MULTIBANK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(ModeLocal))
	v.SetDefault("grpc.addr", ":8080")
	v.SetDefault("http.addr", ":8081")
	v.SetDefault("auth.token", "dev-token")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("gateway.base_url", "http://localhost:8090/api/v1")
	v.SetDefault("gateway.user_id", "team086-1")
	v.SetDefault("db.dsn", "")
	v.SetDefault("ledger.currency", "RUB")
	v.SetDefault("ledger.account_number_prefix", "4")
	v.SetDefault("quest.premium_price", 299)
	v.SetDefault("cards.dedicated_backing_account", false)
	v.SetDefault("history.page_size", 20)
}

// Load reads config.yaml from the given paths (or . and ./configs), then
// applies MULTIBANK_* environment overrides. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./configs"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values viper cannot type-check on its own
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeLocal, ModeAPI:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if p := c.Ledger.AccountNumberPrefix; len(p) != 1 || p[0] < '1' || p[0] > '9' {
		return fmt.Errorf("ledger.account_number_prefix must be a single non-zero digit, got %q", p)
	}
	if c.Quest.PremiumPrice <= 0 {
		return errors.New("quest.premium_price must be positive")
	}
	if c.History.PageSize <= 0 {
		return errors.New("history.page_size must be positive")
	}
	if c.Mode == ModeAPI && c.Gateway.BaseURL == "" {
		return errors.New("gateway.base_url is required in api mode")
	}
	return nil
}

// NumberPrefix returns the first digit of generated account numbers
func (c *Config) NumberPrefix() byte {
	return c.Ledger.AccountNumberPrefix[0]
}
