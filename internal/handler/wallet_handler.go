package handler

import (
	"context"
	"net/http"
)

// WalletServiceInterface は残高ハンドラーが必要とするサービスインターフェース。
type WalletServiceInterface interface {
	Balance(ctx context.Context, userID int64) (float64, error)
	Verify(ctx context.Context, userID int64, amount float64) (float64, error)
	TopUp(ctx context.Context, userID int64, amount float64) (float64, error)
}

// WalletHandler は残高照会・検証・チャージのHTTPハンドラー。
type WalletHandler struct {
	service WalletServiceInterface
}

// NewWalletHandler はWalletHandlerを生成する。
func NewWalletHandler(service WalletServiceInterface) *WalletHandler {
	return &WalletHandler{service: service}
}

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type verifyResponse struct {
	Balance float64 `json:"balance"`
	Amount  float64 `json:"amount"`
}

// Balance は現在の残高を返す。
// GET /api/user/balance
func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.service.Balance(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

// Verify は指定額を残高で賄えるかを検証する。残高は変更しない。
// 不足している場合は402 INSUFFICIENT_BALANCEを返す。
// POST /api/user/balance/verify
func (h *WalletHandler) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := h.service.Verify(r.Context(), userID, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{Balance: balance, Amount: req.Amount})
}

// TopUp は残高をチャージする。
// POST /api/user/balance/topup
func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	balance, err := h.service.TopUp(r.Context(), userID, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}
