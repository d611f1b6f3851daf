package authsession

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/Inilogicz/Nutri-food/internal/client"
	"github.com/Inilogicz/Nutri-food/internal/client/store"
)

var (
	_ Store = (*store.Memory)(nil)
	_ Store = (*store.SQLite)(nil)
	_ Store = (*failingStore)(nil)
)

// failingStore は指定したキーへの書き込み・削除を失敗させるストア。
type failingStore struct {
	*store.Memory
	failSet    map[string]bool
	failDelete map[string]bool
	failGet    bool
	writes     int
}

func newFailingStore() *failingStore {
	return &failingStore{
		Memory:     store.NewMemory(),
		failSet:    map[string]bool{},
		failDelete: map[string]bool{},
	}
}

func (f *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("disk unavailable")
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingStore) Set(ctx context.Context, key, value string) error {
	if f.failSet[key] {
		return errors.New("disk full")
	}
	f.writes++
	return f.Memory.Set(ctx, key, value)
}

func (f *failingStore) Delete(ctx context.Context, key string) error {
	if f.failDelete[key] {
		return errors.New("disk unavailable")
	}
	f.writes++
	return f.Memory.Delete(ctx, key)
}

// mockNavigator はToLoginの呼び出し回数を記録する。
type mockNavigator struct {
	calls int
}

func (n *mockNavigator) ToLogin() { n.calls++ }

func testIdentity() client.Identity {
	return client.Identity{
		ID:          7,
		Name:        "Ada",
		Email:       "ada@example.com",
		PhoneNumber: "+1-555-0100",
		DOB:         "1990-01-01",
		Gender:      "female",
	}
}

func newTestManager(s Store) (*Manager, *mockNavigator, *bytes.Buffer) {
	var buf bytes.Buffer
	nav := &mockNavigator{}
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewManager(s, nav, logger), nav, &buf
}

func TestManager_InitialStateIsAnonymous(t *testing.T) {
	m, _, _ := newTestManager(store.NewMemory())

	if m.Current().IsAuthenticated {
		t.Error("初期状態は匿名であるべき")
	}
	if _, ok := m.Credential(); ok {
		t.Error("匿名状態でトークンを返してはならない")
	}
}

func TestManager_Login_PersistsAndAuthenticates(t *testing.T) {
	s := store.NewMemory()
	m, _, _ := newTestManager(s)
	ctx := context.Background()

	if err := m.Login(ctx, "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	state := m.Current()
	if !state.IsAuthenticated || state.Identity.ID != 7 || state.Identity.Email != "ada@example.com" {
		t.Errorf("Current() = %+v", state)
	}
	if token, ok := m.Credential(); !ok || token != "jwt-token" {
		t.Errorf("Credential() = %q, %v", token, ok)
	}

	if v, ok, _ := s.Get(ctx, KeyToken); !ok || v != "jwt-token" {
		t.Errorf("永続化されたトークン = %q, %v", v, ok)
	}
	raw, ok, _ := s.Get(ctx, KeyUser)
	if !ok || !strings.Contains(raw, `"id":7`) {
		t.Errorf("永続化されたユーザー = %q", raw)
	}
}

func TestManager_Login_MissingID_NoStateChange(t *testing.T) {
	s := newFailingStore()
	m, _, logs := newTestManager(s)

	identity := testIdentity()
	identity.ID = 0
	err := m.Login(context.Background(), "jwt-token", identity)
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("err = %v, want ErrInvalidIdentity", err)
	}
	if m.Current().IsAuthenticated {
		t.Error("状態が変化してはならない")
	}
	if s.writes != 0 {
		t.Errorf("ストアへの書き込み回数 = %d, want 0", s.writes)
	}
	if !strings.Contains(logs.String(), "login rejected") {
		t.Errorf("診断ログが出力されていない: %s", logs.String())
	}
}

func TestManager_Login_EmptyCredential_Rejected(t *testing.T) {
	m, _, _ := newTestManager(store.NewMemory())

	if err := m.Login(context.Background(), "", testIdentity()); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("err = %v, want ErrInvalidIdentity", err)
	}
}

func TestManager_Login_UserWriteFails_RollsBackToken(t *testing.T) {
	s := newFailingStore()
	s.failSet[KeyUser] = true
	m, _, _ := newTestManager(s)
	ctx := context.Background()

	if err := m.Login(ctx, "jwt-token", testIdentity()); err == nil {
		t.Fatal("ユーザーの書き込み失敗時はエラーを返すべき")
	}
	if m.Current().IsAuthenticated {
		t.Error("書き込み失敗時に認証済みになってはならない")
	}
	if _, ok, _ := s.Get(ctx, KeyToken); ok {
		t.Error("書き込み済みのトークンが巻き戻されていない")
	}
}

func TestManager_Login_WriteFailsWhileAuthenticated_KeepsPreviousState(t *testing.T) {
	s := newFailingStore()
	m, _, _ := newTestManager(s)
	ctx := context.Background()

	if err := m.Login(ctx, "old-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	s.failSet[KeyUser] = true
	other := testIdentity()
	other.ID = 8
	if err := m.Login(ctx, "new-token", other); err == nil {
		t.Fatal("書き込み失敗時はエラーを返すべき")
	}

	if got := m.Current().Identity.ID; got != 7 {
		t.Errorf("Identity.ID = %d, want 7", got)
	}
	if v, _, _ := s.Get(ctx, KeyToken); v != "old-token" {
		t.Errorf("永続化されたトークン = %q, want old-token", v)
	}
}

func TestManager_Logout_ClearsStateRunsHooksAndNavigates(t *testing.T) {
	s := store.NewMemory()
	m, nav, _ := newTestManager(s)
	ctx := context.Background()

	hookCalls := 0
	m.OnLogout(func() { hookCalls++ })

	if err := m.Login(ctx, "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout がエラーを返した: %v", err)
	}

	if m.Current().IsAuthenticated {
		t.Error("ログアウト後は匿名であるべき")
	}
	if hookCalls != 1 {
		t.Errorf("後処理の呼び出し回数 = %d, want 1", hookCalls)
	}
	if nav.calls != 1 {
		t.Errorf("ToLogin の呼び出し回数 = %d, want 1", nav.calls)
	}
	for _, key := range []string{KeyToken, KeyUser} {
		if _, ok, _ := s.Get(ctx, key); ok {
			t.Errorf("%s が削除されていない", key)
		}
	}
}

func TestManager_Logout_DeleteFails_KeepsState(t *testing.T) {
	s := newFailingStore()
	m, nav, _ := newTestManager(s)
	ctx := context.Background()

	if err := m.Login(ctx, "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	s.failDelete[KeyToken] = true
	if err := m.Logout(ctx); err == nil {
		t.Fatal("削除失敗時はエラーを返すべき")
	}

	if !m.Current().IsAuthenticated {
		t.Error("削除失敗時は認証済みのままであるべき")
	}
	if nav.calls != 0 {
		t.Error("削除失敗時に画面遷移してはならない")
	}
	if _, ok, _ := s.Get(ctx, KeyUser); !ok {
		t.Error("削除済みのユーザーが巻き戻されていない")
	}
}

func TestManager_LogoutThenInitialize_IsAnonymous(t *testing.T) {
	s := store.NewMemory()
	m, _, _ := newTestManager(s)
	ctx := context.Background()

	if err := m.Login(ctx, "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout がエラーを返した: %v", err)
	}

	// リロード相当
	reloaded, _, _ := newTestManager(s)
	reloaded.Initialize(ctx)
	if reloaded.Current().IsAuthenticated {
		t.Error("ログアウト後の復元は匿名であるべき")
	}
}

func TestManager_Initialize_RestoresAuthenticated(t *testing.T) {
	s := store.NewMemory()
	ctx := context.Background()
	first, _, _ := newTestManager(s)
	if err := first.Login(ctx, "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	reloaded, _, _ := newTestManager(s)
	reloaded.Initialize(ctx)

	state := reloaded.Current()
	if !state.IsAuthenticated || state.Identity.ID != 7 || state.Identity.Gender != "female" {
		t.Errorf("Current() = %+v", state)
	}
	if token, ok := reloaded.Credential(); !ok || token != "jwt-token" {
		t.Errorf("Credential() = %q, %v", token, ok)
	}
}

func TestManager_Initialize_InvalidStoredData_IsAnonymous(t *testing.T) {
	tests := []struct {
		name  string
		token string
		user  string
	}{
		{"ユーザーなし", "jwt-token", ""},
		{"トークンなし", "", `{"id":7}`},
		{"不正なJSON", "jwt-token", `{"id":`},
		{"IDなし", "jwt-token", `{"name":"Ada"}`},
		{"IDが0", "jwt-token", `{"id":0,"name":"Ada"}`},
		{"IDが負", "jwt-token", `{"id":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			ctx := context.Background()
			if tt.token != "" {
				s.Set(ctx, KeyToken, tt.token)
			}
			if tt.user != "" {
				s.Set(ctx, KeyUser, tt.user)
			}

			m, _, _ := newTestManager(s)
			m.Initialize(ctx)

			if m.Current().IsAuthenticated {
				t.Error("不正な永続データは匿名として扱うべき")
			}
			if _, ok := m.Credential(); ok {
				t.Error("匿名状態でトークンを返してはならない")
			}
		})
	}
}

func TestManager_Initialize_ReadError_IsAnonymous(t *testing.T) {
	s := newFailingStore()
	s.failGet = true
	m, _, logs := newTestManager(s)

	m.Initialize(context.Background())

	if m.Current().IsAuthenticated {
		t.Error("読み取りエラー時は匿名であるべき")
	}
	if !strings.Contains(logs.String(), "failed to read stored credential") {
		t.Errorf("警告ログが出力されていない: %s", logs.String())
	}
}

func TestManager_Current_ReturnsCopy(t *testing.T) {
	m, _, _ := newTestManager(store.NewMemory())
	if err := m.Login(context.Background(), "jwt-token", testIdentity()); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	m.Current().Identity.Name = "Mallory"
	if got := m.Current().Identity.Name; got != "Ada" {
		t.Errorf("Name = %q, want Ada", got)
	}
}
