package model

import "time"

// SessionStatus は相談セッションの状態を表す。
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// CompletionReason はセッションが完了した理由を表す。メトリクスのラベルに使う。
type CompletionReason string

const (
	CompletionReasonUser             CompletionReason = "user"
	CompletionReasonBalanceExhausted CompletionReason = "balance_exhausted"
)

// ConsultationSession は栄養士との有料ライブ相談セッションを表す。
// 1ユーザーにつきactiveなセッションは最大1件。
type ConsultationSession struct {
	ID            string
	UserID        int64
	DieticianID   string
	DieticianName string
	RatePerMinute float64
	StartTime     time.Time
	EndTime       *time.Time
	Status        SessionStatus
	Cost          float64 // 完了時に確定した請求額。active中は0
	CreatedAt     time.Time
}

// IsActive はセッションがactive状態かどうかを返す。
func (s *ConsultationSession) IsActive() bool {
	return s.Status == SessionStatusActive
}

// MessageSender はメッセージの送信者種別を表す。
type MessageSender string

const (
	SenderUser      MessageSender = "user"
	SenderDietician MessageSender = "dietician"
)

// SessionMessage はセッション内のメッセージを表す。
// 並び順はサーバーが受理した時刻（CreatedAt）で全順序が決まる。
type SessionMessage struct {
	ID        string
	SessionID string
	Sender    MessageSender
	Content   string
	CreatedAt time.Time
}

// ActiveSessionBalance は精算ワーカーが参照する、activeセッションと所有者の残高の組。
type ActiveSessionBalance struct {
	Session ConsultationSession
	Balance float64
}
