package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用したセッションメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// Create はメッセージを追加する。受理時刻はDBのnow()で確定する。
func (r *PostgresMessageRepo) Create(ctx context.Context, m *model.SessionMessage) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO session_messages (session_id, sender, content)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		m.SessionID, string(m.Sender), m.Content,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListBySessionID はセッションのメッセージを受理順に返す。
// 同時刻のメッセージはIDで順序を固定する。
func (r *PostgresMessageRepo) ListBySessionID(ctx context.Context, sessionID string) ([]*model.SessionMessage, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, sender, content, created_at
		 FROM session_messages
		 WHERE session_id = $1
		 ORDER BY created_at ASC, id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []*model.SessionMessage{}
	for rows.Next() {
		m := &model.SessionMessage{}
		var sender string
		if err := rows.Scan(&m.ID, &m.SessionID, &sender, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Sender = model.MessageSender(sender)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
