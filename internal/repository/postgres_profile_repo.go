package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
// 配列カラムはpq.Array、手術歴はJSONBで保持する。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByUserID はユーザーのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	p := &model.Profile{}
	var surgical []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, height, weight, health_conditions, surgical_history, food_allergies, updated_at
		 FROM profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Height, &p.Weight, pq.Array(&p.HealthConditions), &surgical, pq.Array(&p.FoodAllergies), &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if err := json.Unmarshal(surgical, &p.SurgicalHistory); err != nil {
		return nil, fmt.Errorf("failed to decode surgical history: %w", err)
	}
	return p, nil
}

// Upsert はプロフィールを作成または上書きする。
func (r *PostgresProfileRepo) Upsert(ctx context.Context, p *model.Profile) error {
	history := p.SurgicalHistory
	if history == nil {
		history = []model.SurgicalRecord{}
	}
	surgical, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to encode surgical history: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`INSERT INTO profiles (user_id, height, weight, health_conditions, surgical_history, food_allergies, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (user_id) DO UPDATE SET
		   height = EXCLUDED.height,
		   weight = EXCLUDED.weight,
		   health_conditions = EXCLUDED.health_conditions,
		   surgical_history = EXCLUDED.surgical_history,
		   food_allergies = EXCLUDED.food_allergies,
		   updated_at = now()
		 RETURNING updated_at`,
		p.UserID, p.Height, p.Weight, pq.Array(nonNil(p.HealthConditions)), surgical, pq.Array(nonNil(p.FoodAllergies)),
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// nonNil はNOT NULLの配列カラムに渡すためnilスライスを空スライスにする。
func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
