// Package transcript exports a conversation as YAML.
package transcript

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/routine-advisor/advisor/internal/models"
)

// Config represents the configuration section of an exported transcript
type Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Provider  string `yaml:"provider,omitempty"`
	Model     string `yaml:"model,omitempty"`
	Timestamp string `yaml:"timestamp"`
}

// Product is a selected product as listed in the export
type Product struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Brand    string `yaml:"brand"`
	Category string `yaml:"category"`
}

// Transcript represents the complete export
type Transcript struct {
	Config   Config               `yaml:"config"`
	Selected []Product            `yaml:"selected,omitempty"`
	Messages []models.ChatMessage `yaml:"messages"`
}

// New builds a transcript stamped with at
func New(cfg Config, selected []models.Product, messages []models.ChatMessage, at time.Time) Transcript {
	cfg.Timestamp = at.UTC().Format(time.RFC3339)
	t := Transcript{
		Config:   cfg,
		Messages: append([]models.ChatMessage{}, messages...),
	}
	for _, p := range selected {
		t.Selected = append(t.Selected, Product{ID: p.ID.String(), Name: p.Name, Brand: p.Brand, Category: p.Category})
	}
	return t
}

// Write encodes t as YAML
func Write(w io.Writer, t Transcript) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&t); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}

// Save writes t to path, creating parent directories
func Save(path string, t Transcript) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := yaml.Marshal(&t)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// Load reads a transcript written by Save
func Load(path string) (Transcript, error) {
	var t Transcript
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to parse transcript %s: %w", path, err)
	}
	return t, nil
}

// Filename returns a default export file name for at
func Filename(at time.Time) string {
	return fmt.Sprintf("routine-%s.yaml", at.UTC().Format("2006-01-02_15-04-05"))
}
