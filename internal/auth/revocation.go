package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Revoker はログアウト済みトークン（jti）の失効を管理する。
type Revoker interface {
	// Revoke はjtiをexpiresAtまで失効扱いにする。
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	// IsRevoked はjtiが失効済みかどうかを返す。
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// RedisRevoker はRedisのTTL付きキーで失効リストを保持する。
// キーはトークンの有効期限で自然消滅する。
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevoker はRedisRevokerを生成する。
func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

func revokedKey(jti string) string {
	return "revoked_token:" + jti
}

// Revoke はjtiを残り有効期間のTTLで記録する。既に期限切れなら何もしない。
func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked はjtiのキーが存在するかを返す。
func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := r.client.Get(ctx, revokedKey(jti)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}

// NoopRevoker はRedis未設定時の失効管理。失効は記録されず、トークンは期限まで有効。
type NoopRevoker struct {
	once sync.Once
}

// Revoke は初回のみ警告ログを出して何もしない。
func (n *NoopRevoker) Revoke(_ context.Context, jti string, _ time.Time) error {
	n.once.Do(func() {
		slog.Warn("token revocation disabled: REDIS_ADDR is not set",
			slog.String("jti", jti),
		)
	})
	return nil
}

// IsRevoked は常にfalseを返す。
func (n *NoopRevoker) IsRevoked(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// compile-time interface checks
var (
	_ Revoker = (*RedisRevoker)(nil)
	_ Revoker = (*NoopRevoker)(nil)
)
