package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// serveLogged はhをロギングミドルウェア越しに1回呼び出し、出力されたログ1行を返す。
func serveLogged(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	w := httptest.NewRecorder()
	NewLoggingMiddleware(logger)(h).ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("JSONログの解析に失敗: %v\nraw: %s", err, buf.String())
	}
	return w, entry
}

func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true}`))
	})
	_, entry := serveLogged(t, h, httptest.NewRequest(http.MethodGet, "/api/sessions/active", nil))

	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["method"] != "GET" || entry["path"] != "/api/sessions/active" {
		t.Errorf("method/path = %v %v", entry["method"], entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["bytes"] != float64(len(`{"status":true}`)) {
		t.Errorf("bytes = %v, want %d", entry["bytes"], len(`{"status":true}`))
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v", entry["duration_ms"])
	}
	if _, ok := entry["user_id"]; ok {
		t.Errorf("未認証リクエストにuser_idが含まれています: %v", entry["user_id"])
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusCreated, "INFO"},
		{http.StatusPaymentRequired, "WARN"},
		{http.StatusConflict, "WARN"},
		{http.StatusBadGateway, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, entry := serveLogged(t, h, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))

			if entry["status"] != float64(tt.status) {
				t.Errorf("status = %v, want %d", entry["status"], tt.status)
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
		})
	}
}

// TestLoggingMiddleware_UserIDFromInnerAuth は内側の認証ミドルウェアで確定したユーザーIDがログに含まれることを検証する。
func TestLoggingMiddleware_UserIDFromInnerAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/user/balance", nil)
	req.Header.Set("Authorization", "Bearer t")

	_, entry := serveLogged(t, NewAuthMiddleware(acceptToken("t", 77))(okHandler), req)

	if entry["user_id"] != float64(77) {
		t.Errorf("user_id = %v, want 77", entry["user_id"])
	}
}

// TestLoggingMiddleware_UserIDFromOuterContext は外側で設定済みのユーザーIDも記録されることを検証する。
func TestLoggingMiddleware_UserIDFromOuterContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), 123))

	_, entry := serveLogged(t, okHandler, req)

	if entry["user_id"] != float64(123) {
		t.Errorf("user_id = %v, want 123", entry["user_id"])
	}
}

// TestLoggingMiddleware_GeneratesRequestID はリクエストIDが採番されヘッダー・ログ・コンテキストで一致することを検証する。
func TestLoggingMiddleware_GeneratesRequestID(t *testing.T) {
	var fromCtx string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = RequestIDFromContext(r.Context())
	})

	w, entry := serveLogged(t, h, httptest.NewRequest(http.MethodGet, "/api/dieticians", nil))

	header := w.Header().Get(RequestIDHeader)
	if _, err := uuid.Parse(header); err != nil {
		t.Fatalf("%s = %q はUUIDではありません", RequestIDHeader, header)
	}
	if entry["request_id"] != header || fromCtx != header {
		t.Errorf("request_id不一致: header=%q log=%v ctx=%q", header, entry["request_id"], fromCtx)
	}
}

// TestLoggingMiddleware_RequestIDPropagation は受け取ったリクエストIDの採否を検証する。
func TestLoggingMiddleware_RequestIDPropagation(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"そのまま引き継ぐ", "req-abc-123", true},
		{"長すぎる", strings.Repeat("a", maxRequestIDLen+1), false},
		{"空白を含む", "req 1", false},
		{"改行を含む", "req\n1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set(RequestIDHeader, tt.incoming)

			w, _ := serveLogged(t, okHandler, req)

			got := w.Header().Get(RequestIDHeader)
			if tt.keep && got != tt.incoming {
				t.Errorf("request id = %q, want %q", got, tt.incoming)
			}
			if !tt.keep && got == tt.incoming {
				t.Errorf("不正なリクエストID %q が採用されました", tt.incoming)
			}
		})
	}
}
