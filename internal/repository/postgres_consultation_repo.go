package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// PostgresConsultationRepo はPostgreSQLを使用した相談セッションリポジトリ。
type PostgresConsultationRepo struct {
	db *sql.DB
}

// NewPostgresConsultationRepo はPostgresConsultationRepoを生成する。
func NewPostgresConsultationRepo(db *sql.DB) *PostgresConsultationRepo {
	return &PostgresConsultationRepo{db: db}
}

const sessionColumns = `id, user_id, dietician_id, dietician_name, rate_per_minute, start_time, end_time, status, cost, created_at`

func scanSession(row interface{ Scan(...any) error }) (*model.ConsultationSession, error) {
	s := &model.ConsultationSession{}
	var endTime sql.NullTime
	var status string
	err := row.Scan(&s.ID, &s.UserID, &s.DieticianID, &s.DieticianName, &s.RatePerMinute,
		&s.StartTime, &endTime, &status, &s.Cost, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	if endTime.Valid {
		t := endTime.Time
		s.EndTime = &t
	}
	s.Status = model.SessionStatus(status)
	return s, nil
}

// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
func (r *PostgresConsultationRepo) FindByID(ctx context.Context, id string) (*model.ConsultationSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM consultation_sessions WHERE id = $1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return s, nil
}

// FindActiveByUserID はユーザーのactiveセッションを取得する。存在しない場合はnilを返す。
func (r *PostgresConsultationRepo) FindActiveByUserID(ctx context.Context, userID int64) (*model.ConsultationSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM consultation_sessions WHERE user_id = $1 AND status = 'active'`, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return s, nil
}

// Create はactiveセッションを作成する。
func (r *PostgresConsultationRepo) Create(ctx context.Context, s *model.ConsultationSession) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO consultation_sessions (user_id, dietician_id, dietician_name, rate_per_minute, status)
		 VALUES ($1, $2, $3, $4, 'active')
		 RETURNING id, start_time, created_at`,
		s.UserID, s.DieticianID, s.DieticianName, s.RatePerMinute,
	).Scan(&s.ID, &s.StartTime, &s.CreatedAt)
	if isUniqueViolation(err) {
		return ErrActiveSessionExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	s.Status = model.SessionStatusActive
	s.Cost = 0
	s.EndTime = nil
	return nil
}

// Complete はセッションを完了させ、残高を上限として請求額を差し引く。
func (r *PostgresConsultationRepo) Complete(ctx context.Context, id string, endTime time.Time, cost float64) (*model.ConsultationSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. activeなセッションのみ完了させる（二重精算防止）
	var userID int64
	err = tx.QueryRowContext(ctx,
		`UPDATE consultation_sessions SET status = 'completed', end_time = $2
		 WHERE id = $1 AND status = 'active'
		 RETURNING user_id`,
		id, endTime,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return nil, ErrSessionNotActive
	}
	if err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	// 2. ウォレットをロックして請求額を残高で丸める
	var balance float64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}
	charge := math.Max(0, math.Min(cost, balance))

	// 3. 残高を差し引き、確定額を記録する
	if _, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = balance - $2, updated_at = now() WHERE user_id = $1`,
		userID, charge,
	); err != nil {
		return nil, fmt.Errorf("failed to debit wallet: %w", err)
	}

	s, err := scanSession(tx.QueryRowContext(ctx,
		`UPDATE consultation_sessions SET cost = $2 WHERE id = $1 RETURNING `+sessionColumns,
		id, charge,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to record session cost: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return s, nil
}

// ListActiveWithBalance は全activeセッションを所有者の残高とともに返す。
func (r *PostgresConsultationRepo) ListActiveWithBalance(ctx context.Context) ([]model.ActiveSessionBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, s.user_id, s.dietician_id, s.dietician_name, s.rate_per_minute, s.start_time,
		        s.end_time, s.status, s.cost, s.created_at, w.balance
		 FROM consultation_sessions s
		 JOIN wallets w ON w.user_id = s.user_id
		 WHERE s.status = 'active'
		 ORDER BY s.start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	defer rows.Close()

	var result []model.ActiveSessionBalance
	for rows.Next() {
		var (
			asb     model.ActiveSessionBalance
			endTime sql.NullTime
			status  string
		)
		s := &asb.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.DieticianID, &s.DieticianName, &s.RatePerMinute,
			&s.StartTime, &endTime, &status, &s.Cost, &s.CreatedAt, &asb.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan active session: %w", err)
		}
		s.Status = model.SessionStatus(status)
		result = append(result, asb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate active sessions: %w", err)
	}
	return result, nil
}

// compile-time interface check
var _ ConsultationRepository = (*PostgresConsultationRepo)(nil)
