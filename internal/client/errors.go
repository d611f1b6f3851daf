package client

import (
	"errors"
	"fmt"
)

// codeInsufficientBalance はサーバーが残高不足を示すエラーコード。
const codeInsufficientBalance = "INSUFFICIENT_BALANCE"

var (
	// ErrNotAuthenticated は認証情報がない状態で認証必須の操作を行った場合のエラー。
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInsufficientBalance はサーバーが残高不足を報告した場合のエラー。
	// 致命的ではなく、チャージを促す回復可能な状態として扱う。
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// ValidationError はネットワーク呼び出し前に検出したローカル入力の不備を表す。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// LoginError はログインが成立しなかったことを表す。
// 非2xx応答に加え、ユーザーIDやトークンを欠く応答も含む。
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string {
	return "login failed: " + e.Message
}

func (e *LoginError) Unwrap() error { return e.Err }

// SessionCreationError は残高不足以外の理由で相談セッションを開始できなかったことを表す。
// Messageにはサーバーが返したメッセージを保持する。
type SessionCreationError struct {
	Message string
	Err     error
}

func (e *SessionCreationError) Error() string {
	return "session creation failed: " + e.Message
}

func (e *SessionCreationError) Unwrap() error { return e.Err }

// TransportError は通信失敗、非2xx応答、不正なJSONを表す。
type TransportError struct {
	Op         string // 呼び出した操作名
	StatusCode int    // 応答がない場合は0
	Code       string // サーバーのエラーコード
	Message    string // サーバーのエラーメッセージ
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s: status %d [%s] %s", e.Op, e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// serverMessage はエラーからユーザーに提示するメッセージを取り出す。
func serverMessage(err error) string {
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}
