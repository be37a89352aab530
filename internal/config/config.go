package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "COACH"

type Config struct {
	Mode string `mapstructure:"mode"`

	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	State    StateConfig    `mapstructure:"state"`
	Redis    RedisConfig    `mapstructure:"redis"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`

	// BankFile replaces the built-in question bank when set.
	BankFile string `mapstructure:"bank_file"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite or postgres
	Path     string `mapstructure:"path"`   // sqlite file
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"` // sql, redis or memory
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LLMConfig struct {
	Tutor           string `mapstructure:"tutor"`    // rule or llm
	Provider        string `mapstructure:"provider"` // mock, anthropic, openai or cli
	Model           string `mapstructure:"model"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string `mapstructure:"openai_base_url"`
	CLIPath         string `mapstructure:"cli_path"`
	MaxTokens       int    `mapstructure:"max_tokens"`
}

type ChatConfig struct {
	RatePerMinute int `mapstructure:"rate_per_minute"`
	Burst         int `mapstructure:"burst"`
}

// SetDefaults registers every key so env overrides resolve during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", "dev")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 72*time.Hour)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "coach.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "coach")
	v.SetDefault("database.password", "coach")
	v.SetDefault("database.name", "study_coach")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("state.backend", "sql")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "")

	v.SetDefault("llm.tutor", "rule")
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.anthropic_api_key", "")
	v.SetDefault("llm.openai_api_key", "")
	v.SetDefault("llm.openai_base_url", "")
	v.SetDefault("llm.cli_path", "")
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("chat.rate_per_minute", 20)
	v.SetDefault("chat.burst", 5)

	v.SetDefault("bank_file", "")
}

// New returns a viper instance reading COACH_* variables, where nested keys
// use underscores: COACH_DATABASE_DRIVER sets database.driver.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file and decodes the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.Errorf("unknown database driver %q: only sqlite and postgres are supported", c.Database.Driver)
	}
	switch c.State.Backend {
	case "sql", "redis", "memory":
	default:
		return errors.Errorf("unknown state backend %q", c.State.Backend)
	}
	switch c.LLM.Tutor {
	case "rule", "llm":
	default:
		return errors.Errorf("unknown tutor %q", c.LLM.Tutor)
	}
	if c.Mode == "prod" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in prod mode")
	}
	if c.Chat.RatePerMinute <= 0 {
		return errors.New("chat.rate_per_minute must be positive")
	}
	return nil
}
