package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// PostgresWalletRepo はPostgreSQLを使用したウォレットリポジトリ。
type PostgresWalletRepo struct {
	db *sql.DB
}

// NewPostgresWalletRepo はPostgresWalletRepoを生成する。
func NewPostgresWalletRepo(db *sql.DB) *PostgresWalletRepo {
	return &PostgresWalletRepo{db: db}
}

// FindByUserID はユーザーのウォレットを取得する。見つからない場合はnilを返す。
func (r *PostgresWalletRepo) FindByUserID(ctx context.Context, userID int64) (*model.Wallet, error) {
	w := &model.Wallet{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`,
		userID,
	).Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	}
	return w, nil
}

// Credit は残高にamountを加算し、加算後の残高を返す。
func (r *PostgresWalletRepo) Credit(ctx context.Context, userID int64, amount float64) (float64, error) {
	var balance float64
	err := r.db.QueryRowContext(ctx,
		`UPDATE wallets SET balance = balance + $2, updated_at = now()
		 WHERE user_id = $1
		 RETURNING balance`,
		userID, amount,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("wallet not found: %d", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return balance, nil
}

// compile-time interface check
var _ WalletRepository = (*PostgresWalletRepo)(nil)
