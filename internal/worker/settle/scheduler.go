// Package settle は残高に到達した相談セッションを精算するバックグラウンドワーカーを提供する。
// クライアントが切断したままでもセッションが残高を超えて課金され続けないようにする。
package settle

import (
	"context"
	"log/slog"
	"time"
)

// Settler は精算対象のセッションを精算し、件数を返す。
// consultation.Serviceが満たす。
type Settler interface {
	SettleExhausted(ctx context.Context) (int, error)
}

// CycleRecorder は精算サイクルのメトリクスを記録する。
type CycleRecorder interface {
	RecordSettleCycle(duration time.Duration, settled int)
}

// Scheduler は一定間隔で精算サイクルを実行する。
type Scheduler struct {
	settler Settler
	metrics CycleRecorder
	logger  *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// metricsはnilでもよい。
func NewScheduler(settler Settler, metrics CycleRecorder, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		settler: settler,
		metrics: metrics,
		logger:  logger,
	}
}

// Start はinterval間隔のティッカーでスケジューラを起動する。
// 起動直後に1回実行し、コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("精算スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	s.runLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("精算スケジューラを停止しました")
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("精算サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}
}

// RunOnce は精算サイクルを1回実行し、精算したセッション数を返す。
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()

	settled, err := s.settler.SettleExhausted(ctx)
	if err != nil {
		return 0, err
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordSettleCycle(duration, settled)
	}

	level := slog.LevelDebug
	if settled > 0 {
		level = slog.LevelInfo
	}
	s.logger.Log(ctx, level, "精算サイクルが完了しました",
		slog.Int("settled_count", settled),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return settled, nil
}
