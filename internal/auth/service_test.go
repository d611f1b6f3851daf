package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn         func(ctx context.Context, id int64) (*model.User, error)
	findByEmailFn      func(ctx context.Context, email string) (*model.User, error)
	createWithWalletFn func(ctx context.Context, user *model.User) error
	updateContactFn    func(ctx context.Context, user *model.User) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithWallet(ctx context.Context, user *model.User) error {
	if m.createWithWalletFn != nil {
		return m.createWithWalletFn(ctx, user)
	}
	user.ID = 1
	return nil
}

func (m *mockUserRepo) UpdateContact(ctx context.Context, user *model.User) error {
	if m.updateContactFn != nil {
		return m.updateContactFn(ctx, user)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

// memoryRevoker はテスト用の失効リスト。
type memoryRevoker struct {
	revoked map[string]time.Time
	err     error
}

func (m *memoryRevoker) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	if m.revoked == nil {
		m.revoked = map[string]time.Time{}
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

const testSecret = "test-jwt-secret-32bytes-long!!!!"

func newTestService(repo *mockUserRepo, revoker Revoker) *Service {
	return NewService(repo, NewHasher(bcrypt.MinCost), NewTokenIssuer(testSecret, time.Hour), revoker)
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}

// --- Register ---

func TestRegister_CreatesUserWithHashedPassword(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createWithWalletFn: func(_ context.Context, user *model.User) error {
			user.ID = 42
			created = user
			return nil
		},
	}
	svc := newTestService(repo, nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:        "  Ada Lovelace ",
		Email:       "Ada@Example.com",
		Password:    "secret123",
		PhoneNumber: "08012345678",
		DOB:         "1990-05-01",
		Gender:      "Female",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID != 42 {
		t.Errorf("ID = %d, want 42", user.ID)
	}
	if created.Name != "Ada Lovelace" {
		t.Errorf("Name = %q, want trimmed", created.Name)
	}
	if created.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lower-cased", created.Email)
	}
	if created.Gender != "female" {
		t.Errorf("Gender = %q, want %q", created.Gender, "female")
	}
	if created.PasswordHash == "secret123" || created.PasswordHash == "" {
		t.Error("パスワードがハッシュ化されていない")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")); err != nil {
		t.Errorf("ハッシュが元のパスワードと一致しない: %v", err)
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"氏名なし", RegisterInput{Email: "a@example.com", Password: "secret123"}},
		{"メール形式不正", RegisterInput{Name: "A", Email: "not-an-email", Password: "secret123"}},
		{"パスワードが短い", RegisterInput{Name: "A", Email: "a@example.com", Password: "123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			repo := &mockUserRepo{
				createWithWalletFn: func(context.Context, *model.User) error {
					called = true
					return nil
				},
			}
			_, err := newTestService(repo, nil).Register(context.Background(), tt.in)
			assertAPIErrorCode(t, err, model.ErrCodeValidation)
			if called {
				t.Error("検証エラー時にリポジトリが呼ばれた")
			}
		})
	}
}

func TestRegister_DuplicateEmail_ReturnsEmailAlreadyRegistered(t *testing.T) {
	repo := &mockUserRepo{
		createWithWalletFn: func(context.Context, *model.User) error {
			return repository.ErrEmailTaken
		},
	}

	_, err := newTestService(repo, nil).Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@example.com", Password: "secret123",
	})
	assertAPIErrorCode(t, err, model.ErrCodeEmailAlreadyRegistered)
}

// --- Login ---

func registeredUser(t *testing.T, password string) *model.User {
	t.Helper()
	hash, err := NewHasher(bcrypt.MinCost).Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &model.User{ID: 7, Name: "Ada", Email: "ada@example.com", PasswordHash: hash}
}

func TestLogin_ValidCredentials_IssuesToken(t *testing.T) {
	user := registeredUser(t, "secret123")
	repo := &mockUserRepo{
		findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			if email != "ada@example.com" {
				t.Errorf("email = %q, want normalized", email)
			}
			return user, nil
		},
	}
	svc := newTestService(repo, nil)

	res, err := svc.Login(context.Background(), " ADA@example.com ", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Token == "" {
		t.Fatal("トークンが発行されていない")
	}
	if res.User.ID != 7 {
		t.Errorf("User.ID = %d, want 7", res.User.ID)
	}

	userID, err := svc.Authenticate(context.Background(), res.Token)
	if err != nil {
		t.Fatalf("発行したトークンで認証できない: %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}
}

func TestLogin_WrongPasswordAndUnknownEmail_AreIndistinguishable(t *testing.T) {
	user := registeredUser(t, "secret123")

	t.Run("パスワード不一致", func(t *testing.T) {
		repo := &mockUserRepo{findByEmailFn: func(context.Context, string) (*model.User, error) { return user, nil }}
		_, err := newTestService(repo, nil).Login(context.Background(), "ada@example.com", "wrong")
		assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
	})

	t.Run("未登録メール", func(t *testing.T) {
		repo := &mockUserRepo{}
		_, err := newTestService(repo, nil).Login(context.Background(), "nobody@example.com", "secret123")
		assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
	})
}

func TestLogin_RepositoryError_IsWrapped(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mockUserRepo{findByEmailFn: func(context.Context, string) (*model.User, error) { return nil, dbErr }}

	_, err := newTestService(repo, nil).Login(context.Background(), "ada@example.com", "secret123")
	if !errors.Is(err, dbErr) {
		t.Errorf("err = %v, want wrapped %v", err, dbErr)
	}
}

// --- Authenticate / Logout ---

func TestAuthenticate_InvalidToken_ReturnsUnauthorized(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, nil)

	_, err := svc.Authenticate(context.Background(), "not-a-jwt")
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestLogout_RevokesToken(t *testing.T) {
	revoker := &memoryRevoker{}
	svc := newTestService(&mockUserRepo{}, revoker)

	token, _, err := svc.tokens.Issue(7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(revoker.revoked) != 1 {
		t.Fatalf("失効リストの件数 = %d, want 1", len(revoker.revoked))
	}

	_, err = svc.Authenticate(context.Background(), token)
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

func TestLogout_RevokerError_IsReturned(t *testing.T) {
	revoker := &memoryRevoker{err: errors.New("redis down")}
	svc := newTestService(&mockUserRepo{}, revoker)
	token, _, _ := svc.tokens.Issue(7)

	if err := svc.Logout(context.Background(), token); err == nil {
		t.Error("失効ストアのエラーが返されていない")
	}
}

func TestLogout_WithoutRevoker_TokenStaysValid(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, nil)
	token, _, _ := svc.tokens.Issue(7)

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); err != nil {
		t.Errorf("Redisなしでは失効は記録されない: %v", err)
	}
}

// --- CurrentUser ---

func TestCurrentUser_NotFound_ReturnsUserNotFound(t *testing.T) {
	svc := newTestService(&mockUserRepo{}, nil)

	_, err := svc.CurrentUser(context.Background(), 99)
	assertAPIErrorCode(t, err, model.ErrCodeUserNotFound)
}
