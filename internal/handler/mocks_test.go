package handler

import (
	"context"
	"net/http"

	"github.com/Inilogicz/Nutri-food/internal/assistant"
	"github.com/Inilogicz/Nutri-food/internal/auth"
	"github.com/Inilogicz/Nutri-food/internal/middleware"
	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/profile"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn     func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn        func(ctx context.Context, email, password string) (*auth.LoginResult, error)
	authenticateFn func(ctx context.Context, token string) (int64, error)
	logoutFn       func(ctx context.Context, token string) error
	currentUserFn  func(ctx context.Context, userID int64) (*model.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

// Authenticate は既定で "valid-token" をユーザー1として受け付ける。
func (m *mockAuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	if token == "valid-token" {
		return 1, nil
	}
	return 0, model.NewUnauthorizedError()
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, token)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

type mockWalletService struct {
	balanceFn func(ctx context.Context, userID int64) (float64, error)
	verifyFn  func(ctx context.Context, userID int64, amount float64) (float64, error)
	topUpFn   func(ctx context.Context, userID int64, amount float64) (float64, error)
}

func (m *mockWalletService) Balance(ctx context.Context, userID int64) (float64, error) {
	if m.balanceFn != nil {
		return m.balanceFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockWalletService) Verify(ctx context.Context, userID int64, amount float64) (float64, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, userID, amount)
	}
	return 0, nil
}

func (m *mockWalletService) TopUp(ctx context.Context, userID int64, amount float64) (float64, error) {
	if m.topUpFn != nil {
		return m.topUpFn(ctx, userID, amount)
	}
	return 0, nil
}

type mockConsultationService struct {
	startFn       func(ctx context.Context, userID int64, dieticianID string) (*model.ConsultationSession, error)
	activeFn      func(ctx context.Context, userID int64) (*model.ConsultationSession, error)
	messagesFn    func(ctx context.Context, userID int64, sessionID string) ([]*model.SessionMessage, error)
	sendMessageFn func(ctx context.Context, userID int64, sessionID, content string) (*model.SessionMessage, error)
	endFn         func(ctx context.Context, userID int64, sessionID string) (*model.ConsultationSession, error)
}

func (m *mockConsultationService) Start(ctx context.Context, userID int64, dieticianID string) (*model.ConsultationSession, error) {
	if m.startFn != nil {
		return m.startFn(ctx, userID, dieticianID)
	}
	return nil, nil
}

func (m *mockConsultationService) Active(ctx context.Context, userID int64) (*model.ConsultationSession, error) {
	if m.activeFn != nil {
		return m.activeFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConsultationService) Messages(ctx context.Context, userID int64, sessionID string) ([]*model.SessionMessage, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, userID, sessionID)
	}
	return nil, nil
}

func (m *mockConsultationService) SendMessage(ctx context.Context, userID int64, sessionID, content string) (*model.SessionMessage, error) {
	if m.sendMessageFn != nil {
		return m.sendMessageFn(ctx, userID, sessionID, content)
	}
	return nil, nil
}

func (m *mockConsultationService) End(ctx context.Context, userID int64, sessionID string) (*model.ConsultationSession, error) {
	if m.endFn != nil {
		return m.endFn(ctx, userID, sessionID)
	}
	return nil, nil
}

type mockProfileService struct {
	getFn    func(ctx context.Context, userID int64) (*profile.View, error)
	updateFn func(ctx context.Context, userID int64, in profile.UpdateInput) (*profile.View, error)
}

func (m *mockProfileService) Get(ctx context.Context, userID int64) (*profile.View, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return &profile.View{}, nil
}

func (m *mockProfileService) Update(ctx context.Context, userID int64, in profile.UpdateInput) (*profile.View, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, in)
	}
	return &profile.View{}, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

// compile-time interface checks
var (
	_ AuthServiceInterface         = (*mockAuthService)(nil)
	_ WalletServiceInterface       = (*mockWalletService)(nil)
	_ ConsultationServiceInterface = (*mockConsultationService)(nil)
	_ ProfileServiceInterface      = (*mockProfileService)(nil)
	_ AssistantServiceInterface    = (*assistant.Service)(nil)
	_ HealthChecker                = (*mockHealthChecker)(nil)
)

// withUserID はテスト用にリクエストコンテキストへユーザーIDを注入する。
func withUserID(r *http.Request, userID int64) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}
