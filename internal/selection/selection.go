// Package selection holds the visitor's selected products. Every mutation
// persists the selected ids and notifies the change listener from a single
// code path, so stored state, in-memory state and rendered views move
// together.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/storage"
)

// StorageKey is the key the selected ids are persisted under
const StorageKey = "selectedProducts"

// ErrUnknownProduct is returned when toggling an id that is not in the catalog
var ErrUnknownProduct = errors.New("selection: unknown product")

// Listener is called after every mutation with the resulting selection
type Listener func(selected []models.Product)

// Store is the ordered set of selected products. It is not safe for
// concurrent use; callers serialize access.
type Store struct {
	catalog  *models.Catalog
	kv       storage.KeyValue
	items    []models.Product
	listener Listener
}

// New creates an empty store bound to a catalog and a key-value store. kv may
// be nil, in which case nothing is persisted.
func New(catalog *models.Catalog, kv storage.KeyValue) *Store {
	return &Store{catalog: catalog, kv: kv}
}

// Open creates a store and restores the selection persisted in kv.
func Open(ctx context.Context, catalog *models.Catalog, kv storage.KeyValue) *Store {
	s := New(catalog, kv)
	s.Restore(ctx, Load(ctx, kv), catalog)
	return s
}

// OnChange registers the listener fired after each mutation
func (s *Store) OnChange(l Listener) { s.listener = l }

// Toggle removes the product if selected, otherwise adds it. It reports
// whether the product is selected afterwards.
func (s *Store) Toggle(ctx context.Context, id models.ProductID) (bool, error) {
	if i := s.indexOf(id); i >= 0 {
		s.mutate(ctx, func() { s.items = deleteAt(s.items, i) })
		return false, nil
	}
	p, ok := s.catalog.Lookup(id)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	s.mutate(ctx, func() { s.items = append(s.items, p) })
	return true, nil
}

// Remove drops the product if selected. Removing an absent id is a no-op.
func (s *Store) Remove(ctx context.Context, id models.ProductID) {
	s.mutate(ctx, func() {
		if i := s.indexOf(id); i >= 0 {
			s.items = deleteAt(s.items, i)
		}
	})
}

// Clear empties the selection
func (s *Store) Clear(ctx context.Context) {
	s.mutate(ctx, func() { s.items = nil })
}

// Restore replaces the selection with the ids present in catalog, keeping the
// order of ids. Unknown and duplicate ids are dropped.
func (s *Store) Restore(ctx context.Context, ids []models.ProductID, catalog *models.Catalog) {
	s.mutate(ctx, func() {
		s.catalog = catalog
		seen := make(map[models.ProductID]struct{}, len(ids))
		items := make([]models.Product, 0, len(ids))
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			p, ok := catalog.Lookup(id)
			if !ok {
				continue
			}
			seen[id] = struct{}{}
			items = append(items, p)
		}
		s.items = items
	})
}

// Products returns a copy of the selected products in selection order
func (s *Store) Products() []models.Product {
	return append([]models.Product(nil), s.items...)
}

// IDs returns the selected ids in selection order
func (s *Store) IDs() []models.ProductID {
	ids := make([]models.ProductID, 0, len(s.items))
	for _, p := range s.items {
		ids = append(ids, p.ID)
	}
	return ids
}

// Contains reports whether id is selected
func (s *Store) Contains(id models.ProductID) bool { return s.indexOf(id) >= 0 }

// Len returns the number of selected products
func (s *Store) Len() int { return len(s.items) }

// mutate is the only path that changes the selection: apply, persist, notify.
func (s *Store) mutate(ctx context.Context, apply func()) {
	apply()
	s.persist(ctx)
	if s.listener != nil {
		s.listener(s.Products())
	}
}

func (s *Store) persist(ctx context.Context) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(s.IDs())
	if err != nil {
		slog.Warn("Unable to encode selection", "err", err)
		return
	}
	// The in-memory change has already happened; a cancelled caller must not
	// leave the stored ids behind it.
	if err := s.kv.Set(context.WithoutCancel(ctx), StorageKey, string(data)); err != nil {
		slog.Warn("Unable to persist selection", "err", err)
	}
}

// Load reads persisted ids from kv. Missing or malformed data yields nil.
func Load(ctx context.Context, kv storage.KeyValue) []models.ProductID {
	if kv == nil {
		return nil
	}
	raw, err := kv.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("Unable to read persisted selection", "err", err)
		}
		return nil
	}
	var ids []models.ProductID
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		slog.Debug("Ignoring malformed persisted selection", "err", err)
		return nil
	}
	return ids
}

func (s *Store) indexOf(id models.ProductID) int {
	for i, p := range s.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func deleteAt(items []models.Product, i int) []models.Product {
	out := make([]models.Product, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
