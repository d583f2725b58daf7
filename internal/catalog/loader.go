package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/routine-advisor/advisor/internal/models"
)

// Loader loads the product catalog at most once and caches it. A failed load
// is not cached, so the next caller tries again.
type Loader struct {
	source string
	client *Client

	group   singleflight.Group
	mu      sync.RWMutex
	catalog *models.Catalog
}

// NewLoader creates a loader for a local path or an http(s) URL
func NewLoader(source string, client *Client) *Loader {
	if client == nil {
		client = NewClient(nil)
	}
	return &Loader{
		source: strings.TrimSpace(source),
		client: client,
	}
}

// NewStaticLoader returns a loader that is already primed with products
func NewStaticLoader(products []models.Product) *Loader {
	return &Loader{
		source:  "static",
		catalog: models.NewCatalog(products),
	}
}

// Source returns the configured catalog source
func (l *Loader) Source() string { return l.source }

// Load returns the cached catalog, fetching it on first use. Concurrent first
// calls share a single fetch.
func (l *Loader) Load(ctx context.Context) (*models.Catalog, error) {
	l.mu.RLock()
	cached := l.catalog
	l.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := l.group.Do("catalog", func() (any, error) {
		l.mu.RLock()
		cached := l.catalog
		l.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		// The fetch is shared by every waiting caller, so it outlives the
		// first caller's cancellation. The HTTP client timeout still bounds it.
		products, err := l.read(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		catalog := models.NewCatalog(products)

		l.mu.Lock()
		l.catalog = catalog
		l.mu.Unlock()

		slog.Info("Catalog loaded", "source", l.source, "products", catalog.Len(), "categories", len(catalog.Categories()))
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Catalog), nil
}

func (l *Loader) read(ctx context.Context) ([]models.Product, error) {
	if l.source == "" {
		return nil, fmt.Errorf("catalog source is not configured")
	}

	var (
		data        []byte
		contentType string
		err         error
	)
	if isRemote(l.source) {
		data, contentType, err = l.client.Fetch(ctx, l.source)
		if err != nil {
			return nil, err
		}
	} else {
		data, err = os.ReadFile(l.source)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog file: %w", err)
		}
	}

	format, err := DetectFormat(l.source, contentType)
	if err != nil {
		return nil, err
	}
	slog.Debug("Decoding catalog", "source", l.source, "format", format, "size_bytes", len(data))

	return Decode(format, data)
}

func isRemote(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
