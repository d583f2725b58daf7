package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/routine-advisor/advisor/internal/chat"
	"github.com/routine-advisor/advisor/internal/models"
)

const testCatalog = `{
  "products": [
    {"id": 1, "name": "Hydrating Cleanser", "brand": "CeraVe", "category": "cleanser", "description": "Gentle foaming cleanser"},
    {"id": 2, "name": "Night Serum", "brand": "L'Oreal", "category": "serum", "description": "Retinol night serum"},
    {"id": 3, "name": "Daily Moisturizer", "brand": "Neutrogena", "category": "moisturizer", "description": "Light gel cream"}
  ]
}`

type cliEnv struct {
	catalog string
	store   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	catalog := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(catalog, []byte(testCatalog), 0o644))
	return cliEnv{catalog: catalog, store: filepath.Join(dir, "selections.toml")}
}

func (e cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--catalog", e.catalog, "--store", e.store, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProductsCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "products")
	require.NoError(t, err)
	assert.Contains(t, out, "Hydrating Cleanser")
	assert.Contains(t, out, "Daily Moisturizer")

	out, err = env.run(t, "products", "--search", "RETINOL")
	require.NoError(t, err)
	assert.Contains(t, out, "Night Serum")
	assert.NotContains(t, out, "Hydrating Cleanser")

	out, err = env.run(t, "products", "--category", "toner")
	require.NoError(t, err)
	assert.Contains(t, out, "No products match your search.")

	out, err = env.run(t, "products", "--category", "cleanser", "--json")
	require.NoError(t, err)
	var products []models.Product
	require.NoError(t, json.Unmarshal([]byte(out), &products))
	require.Len(t, products, 1)
	assert.Equal(t, models.ProductID("1"), products[0].ID)
}

func TestSelectCommandPersistsPerProfile(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "select", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No products selected yet.")

	_, err = env.run(t, "select", "toggle", "2")
	require.NoError(t, err)
	out, err = env.run(t, "select", "toggle", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Night Serum (L'Oreal) [2]")
	assert.Contains(t, out, "2. Hydrating Cleanser (CeraVe) [1]")

	// other profiles are independent
	out, err = env.run(t, "select", "--profile", "evening")
	require.NoError(t, err)
	assert.Contains(t, out, "No products selected yet.")

	out, err = env.run(t, "select", "remove", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "Night Serum")
	assert.Contains(t, out, "1. Hydrating Cleanser")

	_, err = env.run(t, "select", "toggle", "99")
	require.Error(t, err)

	_, err = env.run(t, "select", "toggle")
	require.Error(t, err)

	_, err = env.run(t, "select", "shuffle")
	require.Error(t, err)

	out, err = env.run(t, "select", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "No products selected yet.")
}

type recorded struct {
	mu       sync.Mutex
	requests []chat.Request
}

func (r *recorded) all() []chat.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Request(nil), r.requests...)
}

func newChatEndpoint(t *testing.T, reply string) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chat.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rec.mu.Lock()
		rec.requests = append(rec.requests, req)
		rec.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chat.Response{Reply: reply})
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestChatCommand(t *testing.T) {
	env := newCLIEnv(t)
	srv, requests := newChatEndpoint(t, "Serum before moisturizer.")

	out, err := env.run(t, "chat", "--endpoint", srv.URL, "serum", "or", "moisturizer?")
	require.NoError(t, err)
	assert.Equal(t, "Serum before moisturizer.\n", out)

	reqs := requests.all()
	require.Len(t, reqs, 1)
	history := reqs[0].ChatHistory
	require.Len(t, history, 1)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "serum or moisturizer?", history[0].Content)
}

func TestChatCommandNoReply(t *testing.T) {
	env := newCLIEnv(t)
	srv, _ := newChatEndpoint(t, "")

	_, err := env.run(t, "chat", "--endpoint", srv.URL, "hello")
	require.Error(t, err)
	assert.Equal(t, chat.NoReplyText, err.Error())
}

func TestRoutineCommand(t *testing.T) {
	env := newCLIEnv(t)
	srv, requests := newChatEndpoint(t, "1. Cleanse\n2. Moisturize")

	_, err := env.run(t, "routine", "--endpoint", srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), chat.SelectSomethingTip)
	assert.Empty(t, requests.all())

	_, err = env.run(t, "select", "toggle", "1")
	require.NoError(t, err)
	_, err = env.run(t, "select", "toggle", "3")
	require.NoError(t, err)

	output := filepath.Join(t.TempDir(), "routine.yaml")
	out, err := env.run(t, "routine", "--endpoint", srv.URL, "--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, chat.RoutineLabel)
	assert.Contains(t, out, "2. Moisturize")

	reqs := requests.all()
	require.Len(t, reqs, 1)
	prompt := reqs[0].ChatHistory[0].Content
	assert.Contains(t, prompt, "Hydrating Cleanser")
	assert.Contains(t, prompt, "Daily Moisturizer")
	assert.NotContains(t, prompt, "Night Serum")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Contains(t, saved, "messages")
}
