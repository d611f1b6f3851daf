package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
)

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type loginData struct {
	User  Identity `json:"user"`
	Token string   `json:"token"`
}

// Register はユーザーを登録する。
// 必須項目の欠落とパスワードの不一致は送信前にValidationErrorとなる。
func (c *Client) Register(ctx context.Context, in RegisterInput) (*Identity, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, &ValidationError{Field: "name", Message: "名前を入力してください"}
	case strings.TrimSpace(in.Email) == "":
		return nil, &ValidationError{Field: "email", Message: "メールアドレスを入力してください"}
	case in.Password == "":
		return nil, &ValidationError{Field: "password", Message: "パスワードを入力してください"}
	case in.Password != in.ConfirmPassword:
		return nil, &ValidationError{Field: "confirm_password", Message: "パスワードが一致しません"}
	}

	var resp envelope[struct {
		User Identity `json:"user"`
	}]
	if err := c.do(ctx, request{op: "register", method: http.MethodPost, path: "/user/register", in: in, out: &resp}); err != nil {
		return nil, err
	}
	return &resp.Data.User, nil
}

// Login はメールアドレスとパスワードでログインする。
// 非2xx応答、またはユーザーIDかトークンを欠く応答はLoginErrorとなる。
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &ValidationError{Message: "メールアドレスとパスワードを入力してください"}
	}

	in := map[string]string{"email": email, "password": password}
	var resp envelope[loginData]
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/user/login", in: in, out: &resp}); err != nil {
		return nil, &LoginError{Message: serverMessage(err), Err: err}
	}

	if !resp.Status || resp.Data.User.ID <= 0 || resp.Data.Token == "" {
		c.logger.Warn("ログイン応答にユーザーIDまたはトークンがありません")
		return nil, &LoginError{Message: "invalid login response"}
	}

	return &LoginResult{User: resp.Data.User, Token: resp.Data.Token}, nil
}

// Logout はサーバー側でトークンを失効させる。
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{op: "logout", method: http.MethodPost, path: "/user/logout", authed: true})
}

// RecommendedMeal は時間帯に応じたおすすめ食事を取得する。timeが空の場合はサーバー既定（morning）。
func (c *Client) RecommendedMeal(ctx context.Context, timeOfDay string) (*Meal, error) {
	path := "/api/meals/recommended"
	if timeOfDay != "" {
		path += "?time=" + url.QueryEscape(timeOfDay)
	}

	var resp struct {
		Meal Meal `json:"meal"`
	}
	if err := c.do(ctx, request{op: "recommended_meal", method: http.MethodGet, path: path, out: &resp}); err != nil {
		return nil, err
	}
	return &resp.Meal, nil
}

// Dieticians は栄養士一覧を取得する。
func (c *Client) Dieticians(ctx context.Context) ([]Dietician, error) {
	var resp struct {
		Dieticians []Dietician `json:"dieticians"`
	}
	if err := c.do(ctx, request{op: "dieticians", method: http.MethodGet, path: "/api/dieticians", out: &resp}); err != nil {
		return nil, err
	}
	return resp.Dieticians, nil
}

// Balance は残高を取得する。
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp struct {
		Balance float64 `json:"balance"`
	}
	if err := c.do(ctx, request{op: "balance", method: http.MethodGet, path: "/api/user/balance", authed: true, out: &resp}); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// VerifyBalance は残高がamount以上あることをサーバーに確認する。
// 不足している場合はErrInsufficientBalanceを返す。
func (c *Client) VerifyBalance(ctx context.Context, amount float64) (float64, error) {
	var resp struct {
		Balance float64 `json:"balance"`
	}
	in := map[string]float64{"amount": amount}
	if err := c.do(ctx, request{op: "verify_balance", method: http.MethodPost, path: "/api/user/balance/verify", authed: true, in: in, out: &resp}); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// TopUp は残高をチャージし、チャージ後の残高を返す。
func (c *Client) TopUp(ctx context.Context, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, &ValidationError{Field: "amount", Message: "チャージ額は0より大きい値を指定してください"}
	}

	var resp struct {
		Balance float64 `json:"balance"`
	}
	in := map[string]float64{"amount": amount}
	if err := c.do(ctx, request{op: "topup", method: http.MethodPost, path: "/api/user/balance/topup", authed: true, in: in, out: &resp}); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// ActiveSession は進行中の相談セッションを取得する。存在しない場合はnilを返す。
func (c *Client) ActiveSession(ctx context.Context) (*Session, error) {
	var resp struct {
		Session *Session `json:"session"`
	}
	if err := c.do(ctx, request{op: "active_session", method: http.MethodGet, path: "/api/sessions/active", authed: true, out: &resp}); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// CreateSession は栄養士との相談セッションを開始する。
// 残高不足はErrInsufficientBalance、その他の失敗はSessionCreationErrorとなる。
func (c *Client) CreateSession(ctx context.Context, dieticianID string) (*Session, error) {
	var session Session
	in := map[string]string{"dieticianId": dieticianID}
	err := c.do(ctx, request{op: "create_session", method: http.MethodPost, path: "/api/sessions", authed: true, in: in, out: &session})
	switch {
	case err == nil:
		return &session, nil
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrNotAuthenticated):
		return nil, err
	default:
		return nil, &SessionCreationError{Message: serverMessage(err), Err: err}
	}
}

// SessionMessages はセッションのメッセージ履歴をサーバーの受理順で取得する。
func (c *Client) SessionMessages(ctx context.Context, sessionID string) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, request{op: "session_messages", method: http.MethodGet, path: path, authed: true, out: &resp}); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage はセッションにメッセージを送信し、サーバーが受理したメッセージを返す。
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) (*Message, error) {
	var msg Message
	in := map[string]string{"sessionId": sessionID, "content": content}
	if err := c.do(ctx, request{op: "send_message", method: http.MethodPost, path: "/api/sessions/messages", authed: true, in: in, out: &msg}); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CompleteSession はセッションを終了し、サーバーが確定した終了時刻と料金を含むセッションを返す。
func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*Session, error) {
	var session Session
	in := map[string]string{"status": SessionStatusCompleted}
	path := "/api/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, request{op: "complete_session", method: http.MethodPatch, path: path, authed: true, in: in, out: &session}); err != nil {
		return nil, err
	}
	return &session, nil
}

// Profile は健康プロフィールを取得する。
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, request{op: "profile", method: http.MethodGet, path: "/api/profile", authed: true, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile は健康プロフィールを更新する。
func (c *Client) UpdateProfile(ctx context.Context, in Profile) (*Profile, error) {
	if in.Height < 0 || in.Weight < 0 {
		return nil, &ValidationError{Message: "身長と体重は0以上の値を指定してください"}
	}

	var p Profile
	if err := c.do(ctx, request{op: "update_profile", method: http.MethodPut, path: "/api/profile", authed: true, in: in, out: &p}); err != nil {
		return nil, err
	}
	return &p, nil
}

// Chat はAIアシスタントにメッセージを送る。
func (c *Client) Chat(ctx context.Context, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &ValidationError{Field: "message", Message: "メッセージを入力してください"}
	}

	var reply ChatReply
	in := map[string]string{"message": message}
	if err := c.do(ctx, request{op: "chat", method: http.MethodPost, path: "/api/ai/chat", in: in, out: &reply}); err != nil {
		return nil, err
	}
	return &reply, nil
}
