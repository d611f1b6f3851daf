// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, billing, consultation, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation             = "VALIDATION_FAILED"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeInsufficientBalance    = "INSUFFICIENT_BALANCE"
	ErrCodeDieticianNotFound      = "DIETICIAN_NOT_FOUND"
	ErrCodeDieticianUnavailable   = "DIETICIAN_UNAVAILABLE"
	ErrCodeSessionAlreadyActive   = "SESSION_ALREADY_ACTIVE"
	ErrCodeSessionNotFound        = "SESSION_NOT_FOUND"
	ErrCodeSessionNotActive       = "SESSION_NOT_ACTIVE"
	ErrCodeRateLimited            = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容が正しくありません: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無を推測されないよう、原因は区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "ログインするか、別のメールアドレスで登録してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewInsufficientBalanceError は残高不足エラーを生成する。
// 致命的なエラーではなく、チャージを促すための回復可能な状態として扱う。
func NewInsufficientBalanceError(required, balance float64) *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientBalance,
		Message:  fmt.Sprintf("残高が不足しています（必要額: %.2f、残高: %.2f）。", required, balance),
		Category: "billing",
		Action:   "残高をチャージしてから再度お試しください。",
	}
}

// NewDieticianNotFoundError は栄養士が見つからない場合のエラーを生成する。
func NewDieticianNotFoundError(dieticianID string) *APIError {
	return &APIError{
		Code:     ErrCodeDieticianNotFound,
		Message:  fmt.Sprintf("指定された栄養士が見つかりません: %s", dieticianID),
		Category: "consultation",
		Action:   "栄養士一覧から選択し直してください。",
	}
}

// NewDieticianUnavailableError は栄養士が相談受付中でない場合のエラーを生成する。
func NewDieticianUnavailableError(dieticianID string) *APIError {
	return &APIError{
		Code:     ErrCodeDieticianUnavailable,
		Message:  fmt.Sprintf("指定された栄養士は現在相談を受け付けていません: %s", dieticianID),
		Category: "consultation",
		Action:   "別の栄養士を選択するか、時間をおいて再度お試しください。",
	}
}

// NewSessionAlreadyActiveError は進行中のセッションが既に存在する場合のエラーを生成する。
func NewSessionAlreadyActiveError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionAlreadyActive,
		Message:  "進行中の相談セッションが既に存在します。",
		Category: "consultation",
		Action:   "現在のセッションを終了してから新しいセッションを開始してください。",
	}
}

// NewSessionNotFoundError はセッションが見つからない場合のエラーを生成する。
func NewSessionNotFoundError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  fmt.Sprintf("指定されたセッションが見つかりません: %s", sessionID),
		Category: "consultation",
		Action:   "セッションIDを確認してください。",
	}
}

// NewSessionNotActiveError はセッションが終了済みの場合のエラーを生成する。
func NewSessionNotActiveError(sessionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotActive,
		Message:  fmt.Sprintf("セッションは既に終了しています: %s", sessionID),
		Category: "consultation",
		Action:   "新しいセッションを開始してください。",
	}
}

// NewRateLimitedError はリクエスト過多のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
