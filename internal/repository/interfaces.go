// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

var (
	// ErrEmailTaken はメールアドレスのユニーク制約違反を表す。
	ErrEmailTaken = errors.New("email already registered")

	// ErrActiveSessionExists はユーザーのactiveセッションが既に存在することを表す。
	// 部分ユニークインデックス違反から変換される。
	ErrActiveSessionExists = errors.New("active session already exists")

	// ErrSessionNotActive は更新対象のセッションがactiveでないことを表す。
	ErrSessionNotActive = errors.New("session is not active")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithWallet はユーザー、残高0のウォレット、空のプロフィールを同一トランザクションで作成する。
	// 採番したIDはuser.IDに設定される。メールアドレス重複時は ErrEmailTaken を返す。
	CreateWithWallet(ctx context.Context, user *model.User) error

	// UpdateContact は氏名・電話番号・生年月日・性別を更新する。
	UpdateContact(ctx context.Context, user *model.User) error
}

// ProfileRepository は健康プロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByUserID はユーザーのプロフィールを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.Profile, error)

	// Upsert はプロフィールを作成または上書きする。
	Upsert(ctx context.Context, profile *model.Profile) error
}

// WalletRepository は残高の永続化インターフェース。
type WalletRepository interface {
	// FindByUserID はユーザーのウォレットを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID int64) (*model.Wallet, error)

	// Credit は残高にamountを加算し、加算後の残高を返す。
	Credit(ctx context.Context, userID int64, amount float64) (float64, error)
}

// ConsultationRepository は相談セッションの永続化インターフェース。
type ConsultationRepository interface {
	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ConsultationSession, error)

	// FindActiveByUserID はユーザーのactiveセッションを取得する。存在しない場合はnilを返す。
	FindActiveByUserID(ctx context.Context, userID int64) (*model.ConsultationSession, error)

	// Create はactiveセッションを作成する。ID・開始時刻はDBで採番される。
	// 同一ユーザーのactiveセッションが既にある場合は ErrActiveSessionExists を返す。
	Create(ctx context.Context, session *model.ConsultationSession) error

	// Complete はセッションをcompletedに更新し、請求額をウォレットから差し引く。
	// 請求額はcostとウォレット残高の小さい方に丸められ、同一トランザクションで処理される。
	// セッションがactiveでない場合は ErrSessionNotActive を返す。
	Complete(ctx context.Context, id string, endTime time.Time, cost float64) (*model.ConsultationSession, error)

	// ListActiveWithBalance は全activeセッションを所有者の残高とともに返す。
	ListActiveWithBalance(ctx context.Context) ([]model.ActiveSessionBalance, error)
}

// MessageRepository はセッションメッセージの永続化インターフェース。
type MessageRepository interface {
	// Create はメッセージを追加する。ID・受理時刻はDBで採番される。
	Create(ctx context.Context, message *model.SessionMessage) error

	// ListBySessionID はセッションのメッセージを受理順に返す。
	ListBySessionID(ctx context.Context, sessionID string) ([]*model.SessionMessage, error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
