// Package cleanup は終了済み相談セッションの保持期間管理ジョブを提供する。
// session_messagesは外部キーのCASCADEで同時に削除される。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// DefaultRetentionDays は終了済みセッションの既定の保持日数。
	DefaultRetentionDays = 365
	// DefaultBatchSize は1回のDELETEで削除する最大件数。
	DefaultBatchSize = 500
)

// deleteExpiredQuery は保持期間を過ぎたcompletedセッションを最大$2件削除する。
// activeなセッションは終了時刻を持たないため対象にならない。
const deleteExpiredQuery = `DELETE FROM consultation_sessions
	WHERE id IN (
		SELECT id FROM consultation_sessions
		WHERE status = 'completed' AND end_time < now() - make_interval(days => $1)
		ORDER BY end_time
		LIMIT $2
	)`

// Executor はSQLのExecContextを抽象化するインターフェース。*sql.DB や *sql.Tx を受け付ける。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PurgeRecorder は削除件数の記録先。metrics.Collectorが実装する。
type PurgeRecorder interface {
	RecordSessionsPurged(n int)
}

// CleanupJob は保持期間を超過した終了済みセッションの削除ジョブ。
// 大量の削除で行ロックを長時間保持しないよう、BatchSize件ずつ削除する。
type CleanupJob struct {
	db            Executor
	logger        *slog.Logger
	recorder      PurgeRecorder
	RetentionDays int
	BatchSize     int
}

// NewCleanupJob は新しいCleanupJobを生成する。
// retentionDaysが0以下の場合はDefaultRetentionDaysを使う。recorderはnil可。
func NewCleanupJob(db Executor, logger *slog.Logger, recorder PurgeRecorder, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		db:            db,
		logger:        logger,
		recorder:      recorder,
		RetentionDays: retentionDays,
		BatchSize:     DefaultBatchSize,
	}
}

// Run は対象がなくなるまでバッチ削除を繰り返し、削除した件数を返す。
// 途中で失敗した場合もそれまでに削除した件数を返す。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	batch := j.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}

	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		result, err := j.db.ExecContext(ctx, deleteExpiredQuery, j.RetentionDays, batch)
		if err != nil {
			j.logger.Error("終了済みセッションの削除に失敗",
				slog.String("error", err.Error()),
				slog.Int("retention_days", j.RetentionDays),
				slog.Int64("deleted_count", total),
			)
			j.record(total)
			return total, fmt.Errorf("failed to delete expired sessions: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			j.record(total)
			return total, fmt.Errorf("failed to get deleted count: %w", err)
		}
		total += n
		if n < int64(batch) {
			break
		}
	}

	j.record(total)
	j.logger.Info("終了済みセッションのクリーンアップが完了",
		slog.Int64("deleted_count", total),
		slog.Int("retention_days", j.RetentionDays),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return total, nil
}

func (j *CleanupJob) record(n int64) {
	if j.recorder != nil && n > 0 {
		j.recorder.RecordSessionsPurged(int(n))
	}
}

// Start は起動直後に1回実行し、その後interval間隔で実行する。
// コンテキストがキャンセルされるまでブロックする。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		// 失敗はRun内でログ済み。次回の実行で残りを処理する。
		_, _ = j.Run(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
