// Package config resolves settings from defaults, an optional config file,
// ADVISOR_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix  = "ADVISOR"
	configName = "advisor"
)

// Keys
const (
	KeyServerAddr         = "server.addr"
	KeyCatalogSource      = "catalog.source"
	KeyStorePath          = "store.path"
	KeyChatEndpoint       = "chat.endpoint"
	KeyChatTimeout        = "chat.timeout"
	KeyChatHistoryWindow  = "chat.history_window"
	KeyAssistantEnabled   = "assistant.enabled"
	KeyAssistantProvider  = "assistant.provider"
	KeyAssistantModel     = "assistant.model"
	KeyAssistantTemp      = "assistant.temperature"
	KeyAssistantPrompt    = "assistant.system_prompt"
	KeySessionIdleTimeout = "session.idle_timeout"
	KeySessionCookie      = "session.cookie"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Store     StoreConfig     `mapstructure:"store"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Session   SessionConfig   `mapstructure:"session"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type CatalogConfig struct {
	Source string `mapstructure:"source"`
}

// StoreConfig locates the durable selection store. An empty path keeps
// selections in memory.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// ChatConfig configures the remote chat endpoint. An empty endpoint sends
// conversations to the in-process assistant.
type ChatConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	HistoryWindow int           `mapstructure:"history_window"`
}

type AssistantConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	Provider     string  `mapstructure:"provider"`
	Model        string  `mapstructure:"model"`
	Temperature  float64 `mapstructure:"temperature"`
	SystemPrompt string  `mapstructure:"system_prompt"`
}

type SessionConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	Cookie      string        `mapstructure:"cookie"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment binding set
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyServerAddr, ":8888")
	v.SetDefault(KeyCatalogSource, "products.json")
	v.SetDefault(KeyStorePath, filepath.Join("data", "selections.toml"))
	v.SetDefault(KeyChatEndpoint, "")
	v.SetDefault(KeyChatTimeout, 30*time.Second)
	v.SetDefault(KeyChatHistoryWindow, 50)
	v.SetDefault(KeyAssistantEnabled, true)
	v.SetDefault(KeyAssistantProvider, "ollama")
	v.SetDefault(KeyAssistantModel, "")
	v.SetDefault(KeyAssistantTemp, 0.7)
	v.SetDefault(KeyAssistantPrompt, "")
	v.SetDefault(KeySessionIdleTimeout, 24*time.Hour)
	v.SetDefault(KeySessionCookie, "advisor_visitor")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// BindFlags binds the named flags to config keys. Flags that are not
// defined on fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file, if any, and decodes the result. With an empty
// file, advisor.{toml,yaml,json} is searched for in the working directory and
// in $HOME/.config/advisor; not finding one is not an error.
func Load(v *viper.Viper, file string) (Config, error) {
	var cfg Config
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values that have no usable interpretation
func (c Config) Validate() error {
	var errs []error
	if c.Chat.HistoryWindow < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyChatHistoryWindow))
	}
	if c.Chat.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyChatTimeout))
	}
	switch c.Assistant.Provider {
	case "openai", "ollama", "gemini":
	default:
		errs = append(errs, fmt.Errorf("%s: unsupported provider %q", KeyAssistantProvider, c.Assistant.Provider))
	}
	if c.Catalog.Source == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyCatalogSource))
	}
	if c.Session.Cookie == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeySessionCookie))
	}
	return errors.Join(errs...)
}
