// Package consultation はクライアント側の有料相談セッションエンジンを提供する。
// 1件のactiveセッションについて、開始、経過料金の再計算、送信前の残高確認、終了を扱う。
// 料金はあくまで表示用で、残高の確認と減算は常にサーバーが行う。
package consultation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Inilogicz/Nutri-food/internal/billing"
	"github.com/Inilogicz/Nutri-food/internal/client"
)

var (
	// ErrSessionAlreadyActive はactiveなセッションがある状態で開始しようとした場合のエラー。
	ErrSessionAlreadyActive = errors.New("a consultation session is already active")
	// ErrNoActiveSession はactiveなセッションがない状態で送信・終了しようとした場合のエラー。
	ErrNoActiveSession = errors.New("no active consultation session")
	// ErrClosed はClose後に届いた応答を破棄したことを表す。
	ErrClosed = errors.New("consultation engine closed")
)

// State はエンジンの状態。
type State int

const (
	StateNoSession State = iota
	StateActive
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	default:
		return "no_session"
	}
}

// API はエンジンが利用するサーバーAPI。*client.Clientが実装する。
type API interface {
	Balance(ctx context.Context) (float64, error)
	VerifyBalance(ctx context.Context, amount float64) (float64, error)
	ActiveSession(ctx context.Context) (*client.Session, error)
	CreateSession(ctx context.Context, dieticianID string) (*client.Session, error)
	SessionMessages(ctx context.Context, sessionID string) ([]client.Message, error)
	SendMessage(ctx context.Context, sessionID, content string) (*client.Message, error)
	CompleteSession(ctx context.Context, sessionID string) (*client.Session, error)
}

var _ API = (*client.Client)(nil)

// EngineConfig はエンジンの設定。
type EngineConfig struct {
	// AccrualInterval は経過料金を再計算する間隔。0以下の場合は1分。
	AccrualInterval time.Duration
	// OnAccrual は定期再計算のたびに呼ばれる。nil可。
	OnAccrual func(billing.Accrual)
}

// Engine は相談セッションの状態機械。
// 操作（Load/StartSession/SendMessage/EndSession）は1つずつ直列に実行される。
type Engine struct {
	api       API
	auth      client.TokenSource
	logger    *slog.Logger
	interval  time.Duration
	onAccrual func(billing.Accrual)
	now       func() time.Time

	// opMu は操作を直列化する。ネットワーク呼び出し中も保持する。
	opMu sync.Mutex

	// mu は以下の状態を保護する。ネットワーク呼び出し中は保持しない。
	mu          sync.Mutex
	state       State
	session     *client.Session
	messages    []client.Message
	balance     float64
	accrual     billing.Accrual
	ready       bool
	closed      bool
	stopAccrual context.CancelFunc
}

// NewEngine はEngineを生成する。初期状態はStateNoSession。
func NewEngine(api API, auth client.TokenSource, logger *slog.Logger, cfg EngineConfig) *Engine {
	if cfg.AccrualInterval <= 0 {
		cfg.AccrualInterval = billing.DefaultAccrualInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		api:       api,
		auth:      auth,
		logger:    logger,
		interval:  cfg.AccrualInterval,
		onAccrual: cfg.OnAccrual,
		now:       time.Now,
	}
}

func (e *Engine) requireAuth() error {
	if e.auth == nil {
		return client.ErrNotAuthenticated
	}
	if _, ok := e.auth.Credential(); !ok {
		return client.ErrNotAuthenticated
	}
	return nil
}

// Load は残高と進行中のセッションを取得する。
// 進行中のセッションがあれば採用し、メッセージ履歴をすべて読み込んで料金の再計算を開始してから戻る。
func (e *Engine) Load(ctx context.Context) error {
	if err := e.requireAuth(); err != nil {
		return err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	balance, err := e.api.Balance(ctx)
	if err != nil {
		return err
	}

	active, err := e.api.ActiveSession(ctx)
	if err != nil {
		return err
	}

	var messages []client.Message
	if active.IsActive() {
		messages, err = e.api.SessionMessages(ctx, active.ID)
		if err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.stopAccrualLocked()
	e.balance = balance
	e.accrual = billing.Accrual{}
	if active.IsActive() {
		e.session = active
		e.messages = messages
		e.state = StateActive
		e.startAccrualLocked()
		e.logger.Info("adopted active consultation session",
			slog.String("session_id", active.ID),
			slog.Int("messages", len(messages)),
		)
	} else {
		e.session = nil
		e.messages = nil
		e.state = StateNoSession
	}
	e.ready = true
	return nil
}

// StartSession は栄養士との相談セッションを開始する。
// activeなセッションがある場合はネットワーク呼び出しを行わずErrSessionAlreadyActiveを返す。
// 完了済みのセッションは破棄して新しいセッションを開始する。
// 残高不足はclient.ErrInsufficientBalanceとなり、状態は変わらない。
func (e *Engine) StartSession(ctx context.Context, dieticianID string) (*client.Session, error) {
	dieticianID = strings.TrimSpace(dieticianID)
	if dieticianID == "" {
		return nil, &client.ValidationError{Field: "dieticianId", Message: "栄養士を選択してください"}
	}
	if err := e.requireAuth(); err != nil {
		return nil, err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.state == StateActive {
		e.mu.Unlock()
		return nil, ErrSessionAlreadyActive
	}
	e.mu.Unlock()

	session, err := e.api.CreateSession(ctx, dieticianID)
	if err != nil {
		if errors.Is(err, client.ErrInsufficientBalance) {
			e.logger.Info("session start blocked by insufficient balance",
				slog.String("dietician_id", dieticianID),
			)
		}
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	e.session = session
	e.messages = nil
	e.state = StateActive
	e.startAccrualLocked()

	e.logger.Info("consultation session started",
		slog.String("session_id", session.ID),
		slog.String("dietician_id", session.DieticianID),
		slog.Float64("rate_per_minute", session.RatePerMinute),
	)
	return copySession(session), nil
}

// SendMessage は残高を確認してからメッセージを送信する。
// 空のメッセージはネットワーク呼び出しを行わずclient.ValidationErrorとなる。
// 現在の経過料金で残高確認を行い、不足していればclient.ErrInsufficientBalanceで送信しない。
// 残高確認がそれ以外の理由で失敗した場合もclient.TransportErrorとして送信しない。
func (e *Engine) SendMessage(ctx context.Context, content string) (*client.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, &client.ValidationError{Field: "content", Message: "メッセージを入力してください"}
	}
	if err := e.requireAuth(); err != nil {
		return nil, err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	sessionID := e.session.ID
	accrual := e.recomputeLocked()
	e.mu.Unlock()

	balance, err := e.api.VerifyBalance(ctx, accrual.Cost)
	if err != nil {
		if errors.Is(err, client.ErrInsufficientBalance) {
			e.logger.Info("message blocked by insufficient balance",
				slog.String("session_id", sessionID),
				slog.Float64("amount", accrual.Cost),
			)
			return nil, err
		}
		return nil, asTransportError("verify_balance", err)
	}

	msg, err := e.api.SendMessage(ctx, sessionID, content)
	if err != nil {
		e.logger.Warn("message dropped",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	e.balance = balance
	e.messages = append(e.messages, *msg)

	m := *msg
	return &m, nil
}

// asTransportError は未認証以外のエラーを*client.TransportErrorに揃える。
func asTransportError(op string, err error) error {
	var te *client.TransportError
	if errors.As(err, &te) || errors.Is(err, client.ErrNotAuthenticated) {
		return err
	}
	return &client.TransportError{Op: op, Err: err}
}

// EndSession はセッションを終了する。
// 成功時はサーバーが確定したセッションに置き換えて再計算を止める。
// 失敗時はactiveのまま（再試行可能）。
func (e *Engine) EndSession(ctx context.Context) (*client.Session, error) {
	if err := e.requireAuth(); err != nil {
		return nil, err
	}

	e.opMu.Lock()
	defer e.opMu.Unlock()

	e.mu.Lock()
	if e.state != StateActive {
		e.mu.Unlock()
		return nil, ErrNoActiveSession
	}
	sessionID := e.session.ID
	e.mu.Unlock()

	done, err := e.api.CompleteSession(ctx, sessionID)
	if err != nil {
		e.logger.Warn("failed to end consultation session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	e.stopAccrualLocked()
	e.session = done
	e.state = StateCompleted

	end := e.now()
	if done.EndTime != nil {
		end = *done.EndTime
	}
	e.accrual = billing.Accrual{
		Minutes: billing.ElapsedMinutes(end, done.StartTime),
		Cost:    done.Cost,
	}
	e.mu.Unlock()

	e.logger.Info("consultation session completed",
		slog.String("session_id", done.ID),
		slog.Float64("cost", done.Cost),
	)

	// 精算後の残高表示用。失敗しても終了自体は成功として扱う。
	if balance, err := e.api.Balance(ctx); err != nil {
		e.logger.Warn("failed to refresh balance after session end", slog.String("error", err.Error()))
	} else {
		e.mu.Lock()
		e.balance = balance
		e.mu.Unlock()
	}

	return copySession(done), nil
}

// RefreshBalance はサーバーから残高を取得し直す。チャージ後の表示更新に使う。
func (e *Engine) RefreshBalance(ctx context.Context) (float64, error) {
	if err := e.requireAuth(); err != nil {
		return 0, err
	}

	balance, err := e.api.Balance(ctx)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0, ErrClosed
	}
	e.balance = balance
	return balance, nil
}

// Reset は完了済みのセッションを破棄してStateNoSessionに戻す。
// それ以外の状態では何もしない。
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateCompleted {
		return
	}
	e.state = StateNoSession
	e.session = nil
	e.messages = nil
	e.accrual = billing.Accrual{}
}

// Close は料金の再計算を止める。以降に届いた応答は破棄される。
// ログアウト時の後処理として登録して使う。
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.stopAccrualLocked()
}

// Recompute は開始時刻から経過料金をゼロから再計算する。
// activeでない場合は最後の値を返す。
func (e *Engine) Recompute() billing.Accrual {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recomputeLocked()
}

func (e *Engine) recomputeLocked() billing.Accrual {
	if e.state != StateActive || e.session == nil {
		return e.accrual
	}
	e.accrual = billing.Accrue(e.now(), e.session.StartTime, e.session.RatePerMinute)
	return e.accrual
}

// startAccrualLocked は再計算を即時に1回行い、以降は一定間隔で繰り返す。
func (e *Engine) startAccrualLocked() {
	e.stopAccrualLocked()
	e.recomputeLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.stopAccrual = cancel
	go e.runAccrual(ctx)
}

func (e *Engine) stopAccrualLocked() {
	if e.stopAccrual != nil {
		e.stopAccrual()
		e.stopAccrual = nil
	}
}

func (e *Engine) runAccrual(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			// キャンセルとtickが同時に届いた場合はtickを捨てる
			if ctx.Err() != nil {
				e.mu.Unlock()
				return
			}
			accrual := e.recomputeLocked()
			e.mu.Unlock()

			if e.onAccrual != nil {
				e.onAccrual(accrual)
			}
		}
	}
}

// State は現在の状態を返す。
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Ready はLoadが完了しているかどうかを返す。
func (e *Engine) Ready() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

// Session は追跡中のセッションのコピーを返す。ない場合はnil。
func (e *Engine) Session() *client.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySession(e.session)
}

// Messages はメッセージ履歴のコピーをサーバーの受理順で返す。
func (e *Engine) Messages() []client.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]client.Message, len(e.messages))
	copy(out, e.messages)
	return out
}

// Accrual は最後に計算した経過分数と料金を返す。
func (e *Engine) Accrual() billing.Accrual {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accrual
}

// Balance は最後にサーバーから取得した残高を返す。
func (e *Engine) Balance() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balance
}

func copySession(s *client.Session) *client.Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.EndTime != nil {
		end := *s.EndTime
		c.EndTime = &end
	}
	return &c
}
