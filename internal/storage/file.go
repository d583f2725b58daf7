package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	storeFileMode      = 0o600
	storeDirMode       = 0o700
	tempFilePattern    = ".store-*.toml.tmp"
	currentFileVersion = 1
)

// File is a KeyValue store persisted as a TOML document. Every write replaces
// the file atomically.
type File struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ KeyValue = (*File)(nil)

type fileSchema struct {
	Version int               `toml:"version"`
	Entries map[string]string `toml:"entries"`
}

// NewFile opens a file-backed store. The file is created on first write.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	abs = filepath.Clean(abs)
	return &File{path: abs, mu: lockForPath(abs)}, nil
}

func (f *File) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	doc, err := f.read()
	if err != nil {
		return "", err
	}
	v, ok := doc.Entries[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if cur, ok := doc.Entries[key]; ok && cur == value {
		return nil
	}
	doc.Entries[key] = value
	return f.write(doc)
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	return f.write(doc)
}

func (f *File) read() (fileSchema, error) {
	doc := fileSchema{Version: currentFileVersion, Entries: map[string]string{}}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return doc, nil
		}
		return doc, fmt.Errorf("read store file: %w", err)
	}

	if err := toml.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode store file: %w", err)
	}
	if doc.Version > currentFileVersion {
		return doc, fmt.Errorf("unsupported store schema version %d (current %d)", doc.Version, currentFileVersion)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]string{}
	}
	return doc, nil
}

func (f *File) write(doc fileSchema) error {
	doc.Version = currentFileVersion

	if err := os.MkdirAll(filepath.Dir(f.path), storeDirMode); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(f.path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp store file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tempName, f.path); err != nil {
		return fmt.Errorf("replace store file: %w", err)
	}
	cleanup = false

	return nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}
	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
