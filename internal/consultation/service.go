// Package consultation は栄養士との有料ライブ相談セッションのサーバー側ロジックを提供する。
// 開始時の残高確認、メッセージ受付、経過分数に基づく精算を扱う。
package consultation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Inilogicz/Nutri-food/internal/billing"
	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/repository"
	"github.com/Inilogicz/Nutri-food/internal/security"
)

// DieticianLookup は栄養士をIDで検索する。
type DieticianLookup interface {
	Dietician(id string) (model.Dietician, bool)
}

// MetricsRecorder は相談セッションに関するメトリクスを記録する。
type MetricsRecorder interface {
	RecordSessionStarted()
	RecordSessionCompleted(reason model.CompletionReason, billed float64)
	RecordMessageSent()
	RecordInsufficientBalance(action string)
}

// Service は相談セッションに関するビジネスロジックを提供する。
type Service struct {
	sessions   repository.ConsultationRepository
	messages   repository.MessageRepository
	wallets    repository.WalletRepository
	dieticians DieticianLookup
	sanitizer  security.TextSanitizerService
	metrics    MetricsRecorder
	now        func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	sessions repository.ConsultationRepository,
	messages repository.MessageRepository,
	wallets repository.WalletRepository,
	dieticians DieticianLookup,
	sanitizer security.TextSanitizerService,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		sessions:   sessions,
		messages:   messages,
		wallets:    wallets,
		dieticians: dieticians,
		sanitizer:  sanitizer,
		metrics:    metrics,
		now:        time.Now,
	}
}

// Start は栄養士との相談セッションを開始する。
// 残高が少なくとも1分間の料金を賄えない場合はINSUFFICIENT_BALANCEとなる。
func (s *Service) Start(ctx context.Context, userID int64, dieticianID string) (*model.ConsultationSession, error) {
	// 1. 栄養士の確認
	d, ok := s.dieticians.Dietician(dieticianID)
	if !ok {
		return nil, model.NewDieticianNotFoundError(dieticianID)
	}
	if !d.Available {
		return nil, model.NewDieticianUnavailableError(dieticianID)
	}

	// 2. 既存のactiveセッション確認
	active, err := s.sessions.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	if active != nil {
		return nil, model.NewSessionAlreadyActiveError()
	}

	// 3. 残高確認
	balance, err := s.balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance < d.RatePerMinute {
		s.metrics.RecordInsufficientBalance("start")
		return nil, model.NewInsufficientBalanceError(d.RatePerMinute, balance)
	}

	// 4. 作成（同時開始は部分ユニークインデックスで弾かれる）
	session := &model.ConsultationSession{
		UserID:        userID,
		DieticianID:   d.ID,
		DieticianName: d.Name,
		RatePerMinute: d.RatePerMinute,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, repository.ErrActiveSessionExists) {
			return nil, model.NewSessionAlreadyActiveError()
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.metrics.RecordSessionStarted()
	slog.Info("consultation session started",
		slog.Int64("user_id", userID),
		slog.String("session_id", session.ID),
		slog.String("dietician_id", d.ID),
		slog.Float64("rate_per_minute", d.RatePerMinute),
	)
	return session, nil
}

// Active はユーザーのactiveセッションを返す。存在しない場合はnilを返す。
func (s *Service) Active(ctx context.Context, userID int64) (*model.ConsultationSession, error) {
	session, err := s.sessions.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return session, nil
}

// Messages はセッションのメッセージを受理順に返す。所有者以外にはSESSION_NOT_FOUNDを返す。
func (s *Service) Messages(ctx context.Context, userID int64, sessionID string) ([]*model.SessionMessage, error) {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// SendMessage はactiveなセッションにユーザーのメッセージを追加する。
// 発生済み料金が残高を超えている場合は受け付けない。
func (s *Service) SendMessage(ctx context.Context, userID int64, sessionID, content string) (*model.SessionMessage, error) {
	clean := s.sanitizer.Sanitize(content)
	if clean == "" {
		return nil, model.NewValidationError("message content is required")
	}

	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, model.NewSessionNotActiveError(sessionID)
	}

	accrual := billing.Accrue(s.now(), session.StartTime, session.RatePerMinute)
	balance, err := s.balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accrual.Cost > balance {
		s.metrics.RecordInsufficientBalance("send")
		return nil, model.NewInsufficientBalanceError(accrual.Cost, balance)
	}

	msg := &model.SessionMessage{
		SessionID: sessionID,
		Sender:    model.SenderUser,
		Content:   clean,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	s.metrics.RecordMessageSent()
	return msg, nil
}

// End はユーザー操作でセッションを終了し、経過分数に応じた料金を精算する。
func (s *Service) End(ctx context.Context, userID int64, sessionID string) (*model.ConsultationSession, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, model.NewSessionNotActiveError(sessionID)
	}
	return s.complete(ctx, session, model.CompletionReasonUser)
}

// SettleExhausted は発生料金が残高に達したactiveセッションを全て精算し、精算件数を返す。
// 個別の失敗はログに残して処理を続ける。
func (s *Service) SettleExhausted(ctx context.Context) (int, error) {
	list, err := s.sessions.ListActiveWithBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active sessions: %w", err)
	}

	settled := 0
	for i := range list {
		session := &list[i].Session
		accrual := billing.Accrue(s.now(), session.StartTime, session.RatePerMinute)
		if accrual.Cost <= 0 || accrual.Cost < list[i].Balance {
			continue
		}

		if _, err := s.complete(ctx, session, model.CompletionReasonBalanceExhausted); err != nil {
			slog.Error("failed to settle session",
				slog.String("session_id", session.ID),
				slog.Int64("user_id", session.UserID),
				slog.String("error", err.Error()),
			)
			continue
		}
		settled++
	}
	return settled, nil
}

// complete は終了時刻時点の料金で精算する。
func (s *Service) complete(ctx context.Context, session *model.ConsultationSession, reason model.CompletionReason) (*model.ConsultationSession, error) {
	end := s.now()
	accrual := billing.Accrue(end, session.StartTime, session.RatePerMinute)

	done, err := s.sessions.Complete(ctx, session.ID, end, accrual.Cost)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotActive) {
			return nil, model.NewSessionNotActiveError(session.ID)
		}
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	s.metrics.RecordSessionCompleted(reason, done.Cost)
	slog.Info("consultation session completed",
		slog.Int64("user_id", done.UserID),
		slog.String("session_id", done.ID),
		slog.String("reason", string(reason)),
		slog.Int64("minutes", accrual.Minutes),
		slog.Float64("accrued", accrual.Cost),
		slog.Float64("billed", done.Cost),
	)
	return done, nil
}

// owned はセッションを取得し、所有者を確認する。
// 他人のセッションの存在は明かさずSESSION_NOT_FOUNDとする。
func (s *Service) owned(ctx context.Context, userID int64, sessionID string) (*model.ConsultationSession, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, model.NewSessionNotFoundError(sessionID)
	}
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return nil, model.NewSessionNotFoundError(sessionID)
	}
	return session, nil
}

func (s *Service) balance(ctx context.Context, userID int64) (float64, error) {
	w, err := s.wallets.FindByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to find wallet: %w", err)
	}
	if w == nil {
		return 0, model.NewUserNotFoundError()
	}
	return w.Balance, nil
}
