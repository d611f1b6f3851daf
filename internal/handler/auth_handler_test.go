package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Inilogicz/Nutri-food/internal/auth"
	"github.com/Inilogicz/Nutri-food/internal/middleware"
	"github.com/Inilogicz/Nutri-food/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:           7,
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secret",
		PhoneNumber:  "555-0100",
		DOB:          "1990-01-02",
		Gender:       "female",
	}
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestAuthHandler_Register_Success(t *testing.T) {
	var got auth.RegisterInput
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return testUser(), nil
		},
	}
	h := NewAuthHandler(svc)

	body := `{"name":"Ada","email":"ada@example.com","password":"secret1","phone_number":"555-0100","dob":"1990-01-02","gender":"Female"}`
	req := httptest.NewRequest(http.MethodPost, "/user/register", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got.Email != "ada@example.com" || got.Gender != "Female" || got.PhoneNumber != "555-0100" {
		t.Errorf("RegisterInput = %+v", got)
	}

	var resp struct {
		Status bool `json:"status"`
		Data   struct {
			User map[string]any `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Status {
		t.Error("status should be true")
	}
	if resp.Data.User["id"] != float64(7) {
		t.Errorf("user.id = %v, want 7", resp.Data.User["id"])
	}
	if _, ok := resp.Data.User["password_hash"]; ok {
		t.Error("password hash must not be exposed")
	}
}

func TestAuthHandler_Register_EmailTaken_Returns409(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
			return nil, model.NewEmailAlreadyRegisteredError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/user/register", strings.NewReader(`{"email":"a@b.c"}`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeEmailAlreadyRegistered || body.Status {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Register_MalformedJSON_Returns400(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest(http.MethodPost, "/user/register", strings.NewReader(`{"name":`))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// TestAuthHandler_Login_Success はログイン成功時に {status, message, data:{user, token}} が返ることを検証する。
func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			if email != "ada@example.com" || password != "secret1" {
				t.Errorf("Login(%q, %q)", email, password)
			}
			return &auth.LoginResult{User: testUser(), Token: "jwt-token"}, nil
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/user/login",
		strings.NewReader(`{"email":"ada@example.com","password":"secret1"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			User  userResponse `json:"user"`
			Token string       `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !resp.Status || resp.Message == "" {
		t.Errorf("status = %v, message = %q", resp.Status, resp.Message)
	}
	if resp.Data.Token != "jwt-token" {
		t.Errorf("token = %q, want %q", resp.Data.Token, "jwt-token")
	}
	if resp.Data.User.ID != 7 || resp.Data.User.Email != "ada@example.com" || resp.Data.User.DOB != "1990-01-02" {
		t.Errorf("user = %+v", resp.Data.User)
	}
}

func TestAuthHandler_Login_InvalidCredentials_Returns401(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, email, password string) (*auth.LoginResult, error) {
			return nil, model.NewInvalidCredentialsError()
		},
	}
	h := NewAuthHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/user/login", strings.NewReader(`{"email":"x@y.z","password":"nope"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	body := decodeErrorBody(t, w)
	if body.Status || body.Code != model.ErrCodeInvalidCredentials || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		logoutErr  error
		wantStatus int
	}{
		{name: "成功", header: "Bearer tok", wantStatus: http.StatusNoContent},
		{name: "トークンなし", header: "", wantStatus: http.StatusUnauthorized},
		{name: "無効なトークン", header: "Bearer tok", logoutErr: model.NewUnauthorizedError(), wantStatus: http.StatusUnauthorized},
		{name: "失効ストア障害", header: "Bearer tok", logoutErr: errors.New("redis down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotToken string
			svc := &mockAuthService{
				logoutFn: func(ctx context.Context, token string) error {
					gotToken = token
					return tt.logoutErr
				},
			}
			h := NewAuthHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/user/logout", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.Logout(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.header != "" && gotToken != "tok" {
				t.Errorf("token = %q, want %q", gotToken, "tok")
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &mockAuthService{
		currentUserFn: func(ctx context.Context, userID int64) (*model.User, error) {
			if userID != 7 {
				return nil, model.NewUserNotFoundError()
			}
			return testUser(), nil
		},
	}
	h := NewAuthHandler(svc)

	w := httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/user/me", nil), 7))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	w = httptest.NewRecorder()
	h.Me(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/user/me", nil), 8))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
