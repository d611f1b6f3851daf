package store

import (
	"context"
	"path/filepath"
	"testing"
)

// kv はMemoryとSQLiteに共通する操作。
type kv interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var (
	_ kv = (*Memory)(nil)
	_ kv = (*SQLite)(nil)
)

func openTestSQLite(t *testing.T, path string) *SQLite {
	t.Helper()
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite がエラーを返した: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores_GetSetDelete(t *testing.T) {
	stores := map[string]kv{
		"memory": NewMemory(),
		"sqlite": openTestSQLite(t, filepath.Join(t.TempDir(), "state.db")),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, "token"); err != nil || ok {
				t.Fatalf("未設定のkeyはok=falseであるべき: ok=%v err=%v", ok, err)
			}

			if err := s.Set(ctx, "token", "a"); err != nil {
				t.Fatalf("Set がエラーを返した: %v", err)
			}
			if err := s.Set(ctx, "token", "b"); err != nil {
				t.Fatalf("上書きの Set がエラーを返した: %v", err)
			}
			v, ok, err := s.Get(ctx, "token")
			if err != nil || !ok || v != "b" {
				t.Fatalf("Get = %q, %v, %v, want b, true, nil", v, ok, err)
			}

			if err := s.Delete(ctx, "token"); err != nil {
				t.Fatalf("Delete がエラーを返した: %v", err)
			}
			if err := s.Delete(ctx, "token"); err != nil {
				t.Fatalf("存在しないkeyの Delete はエラーにしてはならない: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "token"); ok {
				t.Error("削除後もkeyが残っている")
			}
		})
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	ctx := context.Background()

	first, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite がエラーを返した: %v", err)
	}
	if err := first.Set(ctx, "user", `{"id":1}`); err != nil {
		t.Fatalf("Set がエラーを返した: %v", err)
	}
	first.Close()

	second := openTestSQLite(t, path)
	v, ok, err := second.Get(ctx, "user")
	if err != nil || !ok || v != `{"id":1}` {
		t.Errorf("再オープン後の Get = %q, %v, %v", v, ok, err)
	}
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	if _, err := OpenSQLite(""); err == nil {
		t.Fatal("空のパスはエラーになるべき")
	}
}
