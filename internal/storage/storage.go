// Package storage provides the durable key-value stores that back visitor
// selections.
package storage

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("storage: key not found")

// KeyValue is a string key-value store
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Namespaced scopes every key of kv under prefix
type Namespaced struct {
	kv     KeyValue
	prefix string
}

// Namespace returns a view of kv where every key is prefixed with the given
// path segments joined by "/".
func Namespace(kv KeyValue, segments ...string) *Namespaced {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	prefix := strings.Join(parts, "/")
	if prefix != "" {
		prefix += "/"
	}
	return &Namespaced{kv: kv, prefix: prefix}
}

func (n *Namespaced) Get(ctx context.Context, key string) (string, error) {
	return n.kv.Get(ctx, n.prefix+key)
}

func (n *Namespaced) Set(ctx context.Context, key, value string) error {
	return n.kv.Set(ctx, n.prefix+key, value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.kv.Delete(ctx, n.prefix+key)
}
