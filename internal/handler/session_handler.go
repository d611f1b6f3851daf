package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Inilogicz/Nutri-food/internal/middleware"
	"github.com/Inilogicz/Nutri-food/internal/model"
)

// ConsultationServiceInterface は相談セッションハンドラーが必要とするサービスインターフェース。
type ConsultationServiceInterface interface {
	Start(ctx context.Context, userID int64, dieticianID string) (*model.ConsultationSession, error)
	Active(ctx context.Context, userID int64) (*model.ConsultationSession, error)
	Messages(ctx context.Context, userID int64, sessionID string) ([]*model.SessionMessage, error)
	SendMessage(ctx context.Context, userID int64, sessionID, content string) (*model.SessionMessage, error)
	End(ctx context.Context, userID int64, sessionID string) (*model.ConsultationSession, error)
}

// SessionHandler は有料相談セッションのHTTPハンドラー。
type SessionHandler struct {
	service ConsultationServiceInterface
}

// NewSessionHandler はSessionHandlerを生成する。
func NewSessionHandler(service ConsultationServiceInterface) *SessionHandler {
	return &SessionHandler{service: service}
}

type startSessionRequest struct {
	DieticianID string `json:"dieticianId"`
}

type sendMessageRequest struct {
	SessionID string `json:"sessionId"`
	Content   string `json:"content"`
}

type updateSessionRequest struct {
	Status string `json:"status"`
}

// Active は進行中のセッションを返す。存在しない場合はsessionがnullになる。
// GET /api/sessions/active
func (h *SessionHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	session, err := h.service.Active(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*sessionResponse{"session": toSessionResponse(session)})
}

// Start は栄養士との相談セッションを開始する。
// POST /api/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DieticianID == "" {
		middleware.WriteAPIError(w, model.NewValidationError("dieticianId is required"))
		return
	}

	session, err := h.service.Start(r.Context(), userID, req.DieticianID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSessionResponse(session))
}

// Messages はセッションのメッセージ履歴を受理順で返す。
// GET /api/sessions/{id}/messages
func (h *SessionHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	messages, err := h.service.Messages(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]messageResponse, len(messages))
	for i, m := range messages {
		resp[i] = toMessageResponse(m)
	}
	writeJSON(w, http.StatusOK, map[string][]messageResponse{"messages": resp})
}

// SendMessage はセッションにメッセージを送信する。
// POST /api/sessions/messages
func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		middleware.WriteAPIError(w, model.NewValidationError("sessionId is required"))
		return
	}

	message, err := h.service.SendMessage(r.Context(), userID, req.SessionID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

// Update はセッションの状態を更新する。受け付けるのはcompletedへの遷移のみ。
// PATCH /api/sessions/{id}
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Status != string(model.SessionStatusCompleted) {
		middleware.WriteAPIError(w, model.NewValidationError("status must be \"completed\""))
		return
	}

	session, err := h.service.End(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}
