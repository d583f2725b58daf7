package cmd

import (
	"fmt"

	"github.com/routine-advisor/advisor/internal/assistant"
	"github.com/routine-advisor/advisor/internal/catalog"
	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/config"
	"github.com/routine-advisor/advisor/internal/storage"
	"github.com/routine-advisor/advisor/internal/transcript"
)

type app struct {
	cfg        config.Config
	loader     *catalog.Loader
	store      storage.KeyValue
	assistant  *assistant.Service
	transport  chat.Transport
	transcript transcript.Config
}

func wireApp(cfg config.Config) (*app, error) {
	store, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:    cfg,
		loader: catalog.NewLoader(cfg.Catalog.Source, catalog.NewClient(nil)),
		store:  store,
	}

	if cfg.Assistant.Enabled || cfg.Chat.Endpoint == "" {
		svc, err := assistant.New(assistant.Options{
			Provider:     cfg.Assistant.Provider,
			Model:        cfg.Assistant.Model,
			Temperature:  cfg.Assistant.Temperature,
			SystemPrompt: cfg.Assistant.SystemPrompt,
		})
		if err != nil {
			return nil, fmt.Errorf("wire assistant: %w", err)
		}
		a.assistant = svc
	}

	if cfg.Chat.Endpoint != "" {
		a.transport = chat.NewClient(cfg.Chat.Endpoint, cfg.Chat.Timeout)
		a.transcript = transcript.Config{Endpoint: cfg.Chat.Endpoint}
	} else {
		a.transport = a.assistant.Transport()
		a.transcript = transcript.Config{Provider: a.assistant.Provider(), Model: a.assistant.Model()}
	}

	return a, nil
}

// openStore returns the selection store; an empty path keeps selections in memory
func openStore(cfg config.StoreConfig) (storage.KeyValue, error) {
	if cfg.Path == "" {
		return storage.NewMemory(), nil
	}
	store, err := storage.NewFile(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("wire selection store: %w", err)
	}
	return store, nil
}
