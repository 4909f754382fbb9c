package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	perrors "github.com/matzehuels/postkit/pkg/errors"
)

// conformance runs the behavior every backend shares.
func conformance(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("miss", func(t *testing.T) {
		data, ok, err := st.Get(ctx, "missing")
		if err != nil || ok || data != nil {
			t.Errorf("Get(missing) = %q, %v, %v, want miss", data, ok, err)
		}
	})

	t.Run("set get delete", func(t *testing.T) {
		if err := st.Set(ctx, "draft:a", []byte("alpha"), 0); err != nil {
			t.Fatal(err)
		}
		data, ok, err := st.Get(ctx, "draft:a")
		if err != nil || !ok || !bytes.Equal(data, []byte("alpha")) {
			t.Fatalf("Get(draft:a) = %q, %v, %v", data, ok, err)
		}
		if err := st.Set(ctx, "draft:a", []byte("beta"), time.Hour); err != nil {
			t.Fatal(err)
		}
		if data, _, _ := st.Get(ctx, "draft:a"); string(data) != "beta" {
			t.Errorf("overwrite: Get = %q, want beta", data)
		}
		if err := st.Delete(ctx, "draft:a"); err != nil {
			t.Fatal(err)
		}
		if _, ok, _ := st.Get(ctx, "draft:a"); ok {
			t.Error("key present after Delete")
		}
		if err := st.Delete(ctx, "draft:a"); err != nil {
			t.Errorf("Delete(missing) = %v, want nil", err)
		}
	})

	t.Run("expiry", func(t *testing.T) {
		if err := st.Set(ctx, "draft:short", []byte("x"), 50*time.Millisecond); err != nil {
			t.Fatal(err)
		}
		time.Sleep(100 * time.Millisecond)
		if _, ok, err := st.Get(ctx, "draft:short"); ok || err != nil {
			t.Errorf("expired Get = %v, %v, want miss", ok, err)
		}
	})

	if l, ok := st.(Lister); ok {
		t.Run("keys", func(t *testing.T) {
			for _, k := range []string{"draft:2", "draft:1", "other:1"} {
				if err := st.Set(ctx, k, []byte(k), 0); err != nil {
					t.Fatal(err)
				}
			}
			keys, err := l.Keys(ctx, "draft:")
			if err != nil {
				t.Fatal(err)
			}
			if len(keys) != 2 || keys[0] != "draft:1" || keys[1] != "draft:2" {
				t.Errorf("Keys(draft:) = %v, want [draft:1 draft:2]", keys)
			}
		})
	}
}

func TestNullStore(t *testing.T) {
	ctx := context.Background()
	st := NewNullStore()
	defer st.Close()

	if err := st.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Errorf("Set = %v", err)
	}
	if _, ok, _ := st.Get(ctx, "k"); ok {
		t.Error("NullStore kept a value")
	}
	if err := st.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete = %v", err)
	}
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	conformance(t, st)
}

func TestFileStorePurge(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	st, _ := NewFileStore(dir)

	_ = st.Set(ctx, "keep", []byte("k"), 0)
	_ = st.Set(ctx, "gone", []byte("g"), time.Millisecond)
	corrupt := st.path("corrupt")
	_ = os.MkdirAll(filepath.Dir(corrupt), 0755)
	_ = os.WriteFile(corrupt, []byte("{not json"), 0644)
	time.Sleep(5 * time.Millisecond)

	n, err := st.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Purge() = %d, want 2", n)
	}
	if _, ok, _ := st.Get(ctx, "keep"); !ok {
		t.Error("Purge removed a live entry")
	}
}

func TestSQLiteStore(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "drafts.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	conformance(t, st)

	ctx := context.Background()
	_ = st.Set(ctx, "old", []byte("o"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	n, err := st.Purge(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n < 1 {
		t.Errorf("Purge() = %d, want at least 1", n)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("POSTKIT_TEST_REDIS")
	if addr == "" {
		t.Skip("POSTKIT_TEST_REDIS not set")
	}
	st, err := NewRedisStore(context.Background(), addr)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	conformance(t, st)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("POSTKIT_TEST_MONGO")
	if uri == "" {
		t.Skip("POSTKIT_TEST_MONGO not set")
	}
	ctx := context.Background()
	db := "postkit_test_" + Hash([]byte(time.Now().String()))[:8]
	st, err := NewMongoStore(ctx, uri, db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = st.client.Database(db).Drop(ctx)
		st.Close()
	}()
	conformance(t, st)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
		want any
		code perrors.Code
	}{
		{name: "default", cfg: Config{}, want: &NullStore{}},
		{name: "file", cfg: Config{Backend: BackendFile, Dir: dir}, want: &FileStore{}},
		{name: "sqlite in dir", cfg: Config{Backend: BackendSQLite, Dir: dir}, want: &SQLiteStore{}},
		{name: "file without dir", cfg: Config{Backend: BackendFile}, code: perrors.ErrCodeInvalidConfig},
		{name: "redis without addr", cfg: Config{Backend: BackendRedis}, code: perrors.ErrCodeInvalidConfig},
		{name: "mongo without db", cfg: Config{Backend: BackendMongo, MongoURI: "mongodb://x"}, code: perrors.ErrCodeInvalidConfig},
		{name: "unknown", cfg: Config{Backend: "etcd"}, code: perrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := Open(ctx, tt.cfg)
			if tt.code != "" {
				if !perrors.Is(err, tt.code) {
					t.Errorf("Open() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer st.Close()
			switch tt.want.(type) {
			case *NullStore:
				_, ok := st.(*NullStore)
				if !ok {
					t.Errorf("Open() = %T", st)
				}
			case *FileStore:
				if _, ok := st.(*FileStore); !ok {
					t.Errorf("Open() = %T", st)
				}
			case *SQLiteStore:
				if _, ok := st.(*SQLiteStore); !ok {
					t.Errorf("Open() = %T", st)
				}
			}
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(boom)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("retryable: err = %v, calls = %d, want nil, 3", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("permanent: err = %v, calls = %d, want boom, 1", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, 2, time.Millisecond, func() error {
		calls++
		return Retryable(boom)
	})
	if !IsRetryable(err) || calls != 2 {
		t.Errorf("exhausted: err = %v, calls = %d", err, calls)
	}
}

func TestKeyAndHash(t *testing.T) {
	if got := Key("draft", "abc"); got != "draft:abc" {
		t.Errorf("Key() = %q, want draft:abc", got)
	}
	if h := Hash([]byte("hello")); len(h) != 64 || h != Hash([]byte("hello")) {
		t.Errorf("Hash() = %q", h)
	}
}
