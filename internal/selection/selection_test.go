package selection

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routine-advisor/advisor/internal/models"
	"github.com/routine-advisor/advisor/internal/storage"
)

func testCatalog() *models.Catalog {
	return models.NewCatalog([]models.Product{
		{ID: "a", Name: "Cleanser", Brand: "CeraVe", Category: "cleanser"},
		{ID: "b", Name: "Serum", Brand: "L'Oreal", Category: "moisturizer"},
		{ID: "c", Name: "Sunscreen", Brand: "La Roche-Posay", Category: "suncare"},
		{ID: "d", Name: "Shampoo", Brand: "Kerastase", Category: "haircare"},
	})
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, error) { return "", errors.New("disk gone") }
func (failingKV) Set(context.Context, string, string) error    { return errors.New("disk gone") }
func (failingKV) Delete(context.Context, string) error         { return errors.New("disk gone") }

func TestToggle(t *testing.T) {
	ctx := context.Background()
	s := New(testCatalog(), storage.NewMemory())

	selected, err := s.Toggle(ctx, "b")
	require.NoError(t, err)
	assert.True(t, selected)
	assert.True(t, s.Contains("b"))

	selected, err = s.Toggle(ctx, "b")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Equal(t, 0, s.Len())
}

func TestToggleTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	s := New(testCatalog(), nil)
	_, _ = s.Toggle(ctx, "a")
	_, _ = s.Toggle(ctx, "c")
	before := s.IDs()

	_, err := s.Toggle(ctx, "b")
	require.NoError(t, err)
	_, err = s.Toggle(ctx, "b")
	require.NoError(t, err)

	assert.Equal(t, before, s.IDs())
}

func TestToggleUnknownProduct(t *testing.T) {
	s := New(testCatalog(), nil)
	_, err := s.Toggle(context.Background(), "zzz")
	require.ErrorIs(t, err, ErrUnknownProduct)
	assert.Equal(t, 0, s.Len())
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(testCatalog(), nil)
	for _, id := range []models.ProductID{"a", "b", "c"} {
		_, err := s.Toggle(ctx, id)
		require.NoError(t, err)
	}

	s.Remove(ctx, "b")
	assert.Equal(t, []models.ProductID{"a", "c"}, s.IDs())

	s.Remove(ctx, "missing")
	assert.Equal(t, []models.ProductID{"a", "c"}, s.IDs())

	s.Clear(ctx)
	assert.Empty(t, s.IDs())
	s.Clear(ctx)
	assert.Empty(t, s.IDs())
}

func TestEveryMutationPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	s := New(testCatalog(), kv)

	var notified [][]models.ProductID
	s.OnChange(func(selected []models.Product) {
		ids := make([]models.ProductID, 0, len(selected))
		for _, p := range selected {
			ids = append(ids, p.ID)
		}
		stored := Load(ctx, kv)
		assert.Equal(t, ids, append([]models.ProductID{}, stored...), "persisted before listener fires")
		notified = append(notified, ids)
	})

	_, _ = s.Toggle(ctx, "a")
	_, _ = s.Toggle(ctx, "d")
	s.Remove(ctx, "nope")
	s.Remove(ctx, "a")
	s.Clear(ctx)

	assert.Equal(t, [][]models.ProductID{
		{"a"},
		{"a", "d"},
		{"a", "d"},
		{"d"},
		{},
	}, notified)

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, raw)
}

func TestPersistenceFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	s := New(testCatalog(), failingKV{})

	selected, err := s.Toggle(ctx, "a")
	require.NoError(t, err)
	assert.True(t, selected)
	assert.Equal(t, []models.ProductID{"a"}, s.IDs())
}

func TestRestoreDropsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	require.NoError(t, kv.Set(ctx, StorageKey, `["a","b"]`))

	onlyA := models.NewCatalog([]models.Product{{ID: "a", Name: "Cleanser"}})
	s := Open(ctx, onlyA, kv)

	assert.Equal(t, []models.ProductID{"a"}, s.IDs())
	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["a"]`, raw)
}

func TestPersistOutlivesCancelledCaller(t *testing.T) {
	kv := storage.NewMemory()
	s := New(testCatalog(), kv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Toggle(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, s.IDs(), Load(context.Background(), kv))
}

func TestNumericCatalogIDsAreStoredAsStrings(t *testing.T) {
	ctx := context.Background()
	var products []models.Product
	require.NoError(t, json.Unmarshal([]byte(`[{"id": 7, "name": "Toner"}]`), &products))
	catalog := models.NewCatalog(products)

	kv := storage.NewMemory()
	s := New(catalog, kv)
	_, err := s.Toggle(ctx, "7")
	require.NoError(t, err)

	raw, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["7"]`, raw)

	// values written with numeric ids still restore
	require.NoError(t, kv.Set(ctx, StorageKey, `[7]`))
	assert.Equal(t, []models.ProductID{"7"}, Open(ctx, catalog, kv).IDs())
}

func TestRestorePreservesStoredOrderAndDropsDuplicates(t *testing.T) {
	s := New(nil, nil)
	s.Restore(context.Background(), []models.ProductID{"c", "a", "c", "x", "b"}, testCatalog())
	assert.Equal(t, []models.ProductID{"c", "a", "b"}, s.IDs())
}

func TestLoadMalformedDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		raw  string
		want []models.ProductID
	}{
		{name: "not json", raw: "{{{", want: nil},
		{name: "object instead of array", raw: `{"a":1}`, want: nil},
		{name: "numeric ids", raw: `[1, 2]`, want: []models.ProductID{"1", "2"}},
		{name: "mixed ids", raw: `["a", 3]`, want: []models.ProductID{"a", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			require.NoError(t, kv.Set(ctx, StorageKey, tt.raw))
			assert.Equal(t, tt.want, Load(ctx, kv))
		})
	}

	assert.Nil(t, Load(ctx, storage.NewMemory()))
	assert.Nil(t, Load(ctx, failingKV{}))
}

func TestRestoreOfPersistIsIdentity(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	ids := []models.ProductID{"a", "b", "c", "d", "unknown"}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		kv := storage.NewMemory()
		s := New(catalog, kv)

		steps := rng.Intn(20)
		for i := 0; i < steps; i++ {
			id := ids[rng.Intn(len(ids))]
			switch rng.Intn(6) {
			case 0:
				s.Clear(ctx)
			case 1, 2:
				s.Remove(ctx, id)
			default:
				_, _ = s.Toggle(ctx, id)
			}
		}

		restored := Open(ctx, catalog, kv)
		require.Equal(t, s.IDs(), restored.IDs(), "run %d", run)
	}
}
