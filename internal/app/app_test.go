package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInit_WithValidConfig_Succeeds(t *testing.T) {
	setTestEnv(t)

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.DatabaseURL != testDatabaseURL {
		t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, testDatabaseURL)
	}

	// グローバルロガーがJSON出力に設定されていること
	slog.Default().Info("init test")
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log output, got error: %v\nraw: %s", err, buf.String())
	}
	if entry["msg"] != "init test" {
		t.Errorf("msg = %q, want %q", entry["msg"], "init test")
	}
}

func TestInit_AppliesConfiguredLogLevel(t *testing.T) {
	setTestEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	if _, err := Init(&buf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	slog.Default().Info("should be filtered")
	if buf.Len() != 0 {
		t.Errorf("INFOログはLOG_LEVEL=warnで抑制されるべき: %s", buf.String())
	}

	slog.Default().Warn("should be written")
	if !bytes.Contains(buf.Bytes(), []byte("should be written")) {
		t.Errorf("WARNログが出力されていない: %s", buf.String())
	}
}

func TestInit_WithMissingConfig_ReturnsError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	var buf bytes.Buffer
	cfg, err := Init(&buf)
	if err == nil {
		t.Fatal("expected error for missing required env vars, got nil")
	}
	if cfg != nil {
		t.Error("expected nil config on error")
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	got := maskDatabaseURL(testDatabaseURL)
	if bytes.Contains([]byte(got), []byte("pass")) {
		t.Errorf("マスク後のURLに認証情報が含まれている: %q", got)
	}
	if maskDatabaseURL("short") != "***" {
		t.Errorf("短いURLは全体をマスクすべき: %q", maskDatabaseURL("short"))
	}
}

func TestNewRegistry_IsIndependentPerCall(t *testing.T) {
	// 同一プロセスで複数回生成しても登録が衝突しないこと
	first := newRegistry()
	second := newRegistry()
	if first == second {
		t.Fatal("newRegistry should return a fresh registry")
	}
	if _, err := second.Gather(); err != nil {
		t.Errorf("Gather() error = %v", err)
	}
}
