// Package auth はユーザー登録、パスワード認証、bearerトークンの発行と失効を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/repository"
)

// MinPasswordLength はパスワードの最小文字数。
const MinPasswordLength = 6

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhoneNumber string
	DOB         string
	Gender      string
}

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User  *model.User
	Token string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   *Hasher
	tokens   *TokenIssuer
	revoker  Revoker
}

// NewService はServiceを生成する。revokerがnilの場合は失効管理を無効化する。
func NewService(
	userRepo repository.UserRepository,
	hasher *Hasher,
	tokens *TokenIssuer,
	revoker Revoker,
) *Service {
	if revoker == nil {
		revoker = &NoopRevoker{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		revoker:  revoker,
	}
}

// Register はユーザーを登録する。
// 同一トランザクションで残高0のウォレットと空のプロフィールも作成される。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	// 1. 入力値の検証と正規化
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" {
		return nil, model.NewValidationError("name is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, model.NewValidationError("email is invalid")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, model.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	// 2. パスワードのハッシュ化
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. 永続化
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		DOB:          strings.TrimSpace(in.DOB),
		Gender:       strings.ToLower(strings.TrimSpace(in.Gender)),
	}
	if err := s.userRepo.CreateWithWallet(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
	)
	return user, nil
}

// Login はメールアドレスとパスワードで認証し、bearerトークンを発行する。
// メールアドレス不一致とパスワード不一致は区別せずINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, model.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return &LoginResult{User: user, Token: token}, nil
}

// Authenticate はbearerトークンを検証し、ユーザーIDを返す。
// 不正・期限切れ・失効済みのトークンはUNAUTHORIZEDとなる。
func (s *Service) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return 0, model.NewUnauthorizedError()
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return 0, model.NewUnauthorizedError()
	}

	userID, err := claims.UserID()
	if err != nil {
		return 0, model.NewUnauthorizedError()
	}
	return userID, nil
}

// Logout はトークンを有効期限まで失効させる。
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return model.NewUnauthorizedError()
	}

	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	slog.Info("user logged out", slog.String("subject", claims.Subject))
	return nil
}

// CurrentUser はユーザーIDからユーザーを取得する。存在しない場合はUSER_NOT_FOUNDを返す。
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}
