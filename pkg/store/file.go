package store

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileStore keeps one JSON file per key under a directory. Files are spread
// over subdirectories named after the first two hex digits of the key hash.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *FileStore) read(path string) (fileEntry, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileEntry{}, false
	}
	var e fileEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		_ = os.Remove(path)
		return fileEntry{}, false
	}
	if expired(e.ExpiresAt) {
		_ = os.Remove(path)
		return fileEntry{}, false
	}
	return e, true
}

// Get returns the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.path(key)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, err
	}
	e, ok := s.read(path)
	if !ok {
		return nil, false, nil
	}
	return e.Data, true, nil
}

// Set writes the value through a temporary file.
func (s *FileStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := json.Marshal(fileEntry{Key: key, Data: data, ExpiresAt: expiry(ttl)})
	if err != nil {
		return err
	}
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing.
func (s *FileStore) Close() error {
	return nil
}

// Purge removes expired and unreadable entries.
func (s *FileStore) Purge(ctx context.Context) (int, error) {
	n := 0
	err := s.walk(ctx, func(path string) {
		if _, ok := s.read(path); !ok {
			n++
		}
	})
	return n, err
}

// Keys returns the live keys starting with prefix.
func (s *FileStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.walk(ctx, func(path string) {
		if e, ok := s.read(path); ok && strings.HasPrefix(e.Key, prefix) {
			keys = append(keys, e.Key)
		}
	})
	sort.Strings(keys)
	return keys, err
}

func (s *FileStore) walk(ctx context.Context, f func(path string)) error {
	return filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			f(path)
		}
		return nil
	})
}

func (s *FileStore) path(key string) string {
	h := Hash([]byte(key))
	return filepath.Join(s.dir, h[:2], h[2:]+".json")
}

var (
	_ Store  = (*FileStore)(nil)
	_ Purger = (*FileStore)(nil)
	_ Lister = (*FileStore)(nil)
)
