package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/routine-advisor/advisor/internal/config"
)

// flagKeys maps config keys to the flags that override them
var flagKeys = map[string]string{
	config.KeyServerAddr:        "addr",
	config.KeyCatalogSource:     "catalog",
	config.KeyStorePath:         "store",
	config.KeyChatEndpoint:      "endpoint",
	config.KeyChatHistoryWindow: "history-window",
	config.KeyAssistantProvider: "provider",
	config.KeyAssistantModel:    "model",
	config.KeyLogLevel:          "log-level",
	config.KeyLogFormat:         "log-format",
}

type rootOptions struct {
	v          *viper.Viper
	configFile string
	cfg        config.Config
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "advisor",
		Short: "Product picker and AI routine advisor",
		Long: `Advisor serves a product catalog where visitors filter by category or
keyword, pick products and ask an AI assistant to turn the selection into a
step-by-step routine.

Selections are persisted per visitor (or per CLI profile) and the assistant is
reached either through a remote chat endpoint or in-process through Ollama,
OpenAI or Gemini.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if err := config.BindFlags(opts.v, cmd.Flags(), flagKeys); err != nil {
				return err
			}
			cfg, err := config.Load(opts.v, opts.configFile)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			return setupLogging(cfg.Log)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default advisor.{toml,yaml,json} in . or $HOME/.config/advisor)")
	cmd.PersistentFlags().String("catalog", "", "Catalog source path or URL (json, jsonl, yaml or parquet)")
	cmd.PersistentFlags().String("store", "", "Selection store TOML file (empty keeps selections in memory)")
	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newProductsCmd(opts))
	cmd.AddCommand(newSelectCmd(opts))
	cmd.AddCommand(newChatCmd(opts))
	cmd.AddCommand(newRoutineCmd(opts))

	return cmd
}

// addChatFlags registers the flags shared by commands that talk to the assistant
func addChatFlags(cmd *cobra.Command) {
	cmd.Flags().String("endpoint", "", "Remote chat endpoint URL (empty uses the in-process assistant)")
	cmd.Flags().Int("history-window", 50, "Messages sent with each request (0 sends the whole conversation)")
	cmd.Flags().String("provider", "", "LLM provider (ollama, openai, or gemini)")
	cmd.Flags().String("model", "", "Model name (defaults to provider's default)")
}

func setupLogging(cfg config.LogConfig) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		return fmt.Errorf("invalid log format %q", cfg.Format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
