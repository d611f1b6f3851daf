// Package client はNutri-food APIのHTTPクライアントを提供する。
// 認証セッション管理と相談セッションエンジンはこのクライアント経由でのみサーバーと通信する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxResponseBytes はレスポンスボディの読み取り上限。
const maxResponseBytes = 1 << 20

// TokenSource は認証必須リクエストに付与するBearerトークンを提供する。
// okがfalseの場合は未認証として扱う。
type TokenSource interface {
	Credential() (token string, ok bool)
}

// Client はNutri-food APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	tokens     TokenSource
}

// NewClient はClientの新しいインスタンスを生成する。
// tokensがnilの場合、認証必須の呼び出しはすべてErrNotAuthenticatedになる。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, tokens TokenSource) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
	}
}

// errorBody はサーバーのエラーレスポンス。
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// request は1回のAPI呼び出しの内容。
type request struct {
	op     string
	method string
	path   string
	authed bool
	in     any
	out    any
}

// do はリクエストを送信し、成功時はレスポンスをoutにデコードする。
// 残高不足はErrInsufficientBalance、それ以外の失敗は*TransportErrorとして返す。
func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.in != nil {
		b, err := json.Marshal(r.in)
		if err != nil {
			return fmt.Errorf("%s: リクエストのエンコードに失敗しました: %w", r.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("%s: HTTPリクエストの作成に失敗しました: %w", r.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nutrictl/1.0")

	if r.authed {
		token, ok := c.credential()
		if !ok {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIの呼び出しに失敗しました",
			slog.String("op", r.op),
			slog.String("error", err.Error()),
		)
		return &TransportError{Op: r.op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Error("レスポンスボディの読み取りに失敗しました",
			slog.String("op", r.op),
			slog.String("error", err.Error()),
		)
		return &TransportError{Op: r.op, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)

		if eb.Code == codeInsufficientBalance {
			c.logger.Info("残高不足のため操作が拒否されました", slog.String("op", r.op))
			return fmt.Errorf("%s: %w: %s", r.op, ErrInsufficientBalance, eb.Message)
		}

		c.logger.Warn("APIがエラーステータスを返しました",
			slog.String("op", r.op),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", eb.Code),
		)
		return &TransportError{Op: r.op, StatusCode: resp.StatusCode, Code: eb.Code, Message: eb.Message}
	}

	if r.out == nil {
		return nil
	}

	if err := json.Unmarshal(data, r.out); err != nil {
		c.logger.Error("レスポンスのパースに失敗しました",
			slog.String("op", r.op),
			slog.String("error", err.Error()),
		)
		return &TransportError{
			Op:         r.op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err),
		}
	}

	return nil
}

func (c *Client) credential() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	token, ok := c.tokens.Credential()
	if !ok || token == "" {
		return "", false
	}
	return token, true
}
