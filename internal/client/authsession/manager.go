// Package authsession はクライアント側の認証状態（匿名または認証済み）を管理する。
// 認証情報とユーザー情報は永続ストアとメモリで常に一致させる。ネットワーク通信は行わない。
package authsession

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Inilogicz/Nutri-food/internal/client"
)

// 永続ストアのキー
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrInvalidIdentity はユーザーIDまたは認証情報を欠くログインを表す。
var ErrInvalidIdentity = errors.New("invalid identity: id and credential are required")

// Store は認証状態を永続化するキーバリューストア。
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Navigator はログアウト後にログイン画面へ遷移させる。
type Navigator interface {
	ToLogin()
}

type noopNavigator struct{}

func (noopNavigator) ToLogin() {}

// State は現在の認証状態。
type State struct {
	IsAuthenticated bool
	Identity        *client.Identity
}

// Manager は認証状態を保持する。アプリケーションのルートが1つだけ生成して所有する。
type Manager struct {
	store  Store
	nav    Navigator
	logger *slog.Logger

	mu       sync.RWMutex
	identity *client.Identity
	token    string
	hooks    []func()
}

// NewManager はManagerを生成する。初期状態は匿名。
// navがnilの場合、ログアウト時の画面遷移は行わない。
func NewManager(store Store, nav Navigator, logger *slog.Logger) *Manager {
	if nav == nil {
		nav = noopNavigator{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, nav: nav, logger: logger}
}

// Initialize は永続ストアから認証状態を復元する。
// トークンとユーザーの両方が揃い、ユーザーIDが正の値の場合のみ認証済みになる。
// 読み取りエラーや不正なデータは未保存として扱い、呼び出し元には返さない。
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.identity, m.token = nil, ""

	token, ok, err := m.store.Get(ctx, KeyToken)
	if err != nil {
		m.logger.Warn("failed to read stored credential", slog.String("error", err.Error()))
		return
	}
	if !ok || token == "" {
		return
	}

	raw, ok, err := m.store.Get(ctx, KeyUser)
	if err != nil {
		m.logger.Warn("failed to read stored identity", slog.String("error", err.Error()))
		return
	}
	if !ok {
		return
	}

	var identity client.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		m.logger.Warn("stored identity is malformed", slog.String("error", err.Error()))
		return
	}
	if identity.ID <= 0 {
		m.logger.Warn("stored identity has no valid id")
		return
	}

	m.identity, m.token = &identity, token
	m.logger.Debug("restored authenticated session", slog.Int64("user_id", identity.ID))
}

// Login は認証情報とユーザー情報を永続化し、認証済み状態に切り替える。
// ユーザーIDが不正な場合は何も書き込まずErrInvalidIdentityを返す。
// 書き込みに失敗した場合は書き込み済みのキーを元に戻し、メモリ上の状態も変えない。
func (m *Manager) Login(ctx context.Context, credential string, identity client.Identity) error {
	if identity.ID <= 0 || credential == "" {
		m.logger.Warn("login rejected: identity id or credential missing",
			slog.Int64("user_id", identity.ID),
		)
		return ErrInvalidIdentity
	}

	minimized := client.Identity{
		ID:          identity.ID,
		Name:        identity.Name,
		Email:       identity.Email,
		PhoneNumber: identity.PhoneNumber,
		DOB:         identity.DOB,
		Gender:      identity.Gender,
	}
	raw, err := json.Marshal(minimized)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, KeyToken, credential); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	if err := m.store.Set(ctx, KeyUser, string(raw)); err != nil {
		m.restoreToken(ctx)
		return fmt.Errorf("persist identity: %w", err)
	}

	m.identity, m.token = &minimized, credential
	return nil
}

// restoreToken はトークンキーを現在のメモリ上の状態に戻す。m.muを保持して呼ぶこと。
func (m *Manager) restoreToken(ctx context.Context) {
	var err error
	if m.identity != nil {
		err = m.store.Set(ctx, KeyToken, m.token)
	} else {
		err = m.store.Delete(ctx, KeyToken)
	}
	if err != nil {
		m.logger.Error("failed to roll back stored credential", slog.String("error", err.Error()))
	}
}

// Logout は永続化された認証情報を削除して匿名状態に切り替え、
// 登録済みの後処理を実行してからログイン画面へ遷移する。
// 削除に失敗した場合はエラーを返し、メモリ上の状態は変えない。
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()

	if err := m.store.Delete(ctx, KeyUser); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("clear identity: %w", err)
	}
	if err := m.store.Delete(ctx, KeyToken); err != nil {
		m.restoreUser(ctx)
		m.mu.Unlock()
		return fmt.Errorf("clear credential: %w", err)
	}

	m.identity, m.token = nil, ""
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	m.nav.ToLogin()
	return nil
}

// restoreUser はユーザーキーを現在のメモリ上の状態に戻す。m.muを保持して呼ぶこと。
func (m *Manager) restoreUser(ctx context.Context) {
	if m.identity == nil {
		return
	}
	raw, err := json.Marshal(m.identity)
	if err == nil {
		err = m.store.Set(ctx, KeyUser, string(raw))
	}
	if err != nil {
		m.logger.Error("failed to roll back stored identity", slog.String("error", err.Error()))
	}
}

// OnLogout はログアウト時に実行する後処理を登録する。
func (m *Manager) OnLogout(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Current は現在の認証状態を返す。Identityは呼び出し元が変更しても影響しないコピー。
func (m *Manager) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return State{}
	}
	identity := *m.identity
	return State{IsAuthenticated: true, Identity: &identity}
}

// Credential は認証済みの場合のみトークンを返す。
func (m *Manager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.identity == nil {
		return "", false
	}
	return m.token, true
}

var _ client.TokenSource = (*Manager)(nil)
