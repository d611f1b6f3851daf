// Package wallet はユーザー残高の参照・検証・チャージを提供する。
// 残高の減算は相談セッションの精算時にのみ行われる。
package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/repository"
)

// MaxTopUp は1回のチャージ上限額。
const MaxTopUp = 100000

// InsufficientBalanceRecorder は残高不足の発生を記録する。
type InsufficientBalanceRecorder interface {
	RecordInsufficientBalance(action string)
}

// Service は残高に関するビジネスロジックを提供する。
type Service struct {
	repo    repository.WalletRepository
	metrics InsufficientBalanceRecorder
}

// NewService はServiceを生成する。metricsはnil可。
func NewService(repo repository.WalletRepository, metrics InsufficientBalanceRecorder) *Service {
	return &Service{repo: repo, metrics: metrics}
}

// Balance はユーザーの現在残高を返す。
func (s *Service) Balance(ctx context.Context, userID int64) (float64, error) {
	w, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to find wallet: %w", err)
	}
	if w == nil {
		return 0, model.NewUserNotFoundError()
	}
	return w.Balance, nil
}

// Verify は残高がamount以上あるかを検証し、現在残高を返す。
// 負の金額は検証エラー、残高不足はINSUFFICIENT_BALANCEとなる。残高は変更しない。
func (s *Service) Verify(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, model.NewValidationError("amount must be a non-negative number")
	}

	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return 0, err
	}
	if amount > balance {
		if s.metrics != nil {
			s.metrics.RecordInsufficientBalance("verify")
		}
		slog.Info("balance verification rejected",
			slog.Int64("user_id", userID),
			slog.Float64("amount", amount),
			slog.Float64("balance", balance),
		)
		return balance, model.NewInsufficientBalanceError(amount, balance)
	}
	return balance, nil
}

// TopUp は残高にamountを加算し、加算後の残高を返す。
// 決済ゲートウェイは介さず直接加算する。
func (s *Service) TopUp(ctx context.Context, userID int64, amount float64) (float64, error) {
	if amount <= 0 || amount > MaxTopUp || math.IsNaN(amount) {
		return 0, model.NewValidationError(fmt.Sprintf("amount must be between 0 and %d", MaxTopUp))
	}

	balance, err := s.repo.Credit(ctx, userID, amount)
	if err != nil {
		return 0, fmt.Errorf("failed to top up wallet: %w", err)
	}

	slog.Info("wallet topped up",
		slog.Int64("user_id", userID),
		slog.Float64("amount", amount),
		slog.Float64("balance", balance),
	)
	return balance, nil
}
