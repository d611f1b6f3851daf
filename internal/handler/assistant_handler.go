package handler

import (
	"net/http"

	"github.com/Inilogicz/Nutri-food/internal/assistant"
)

// AssistantServiceInterface はAIアシスタントのインターフェース。
type AssistantServiceInterface interface {
	Chat(message string) (*assistant.Reply, error)
}

// AssistantHandler は栄養アシスタントとのチャットのHTTPハンドラー。
type AssistantHandler struct {
	service AssistantServiceInterface
}

// NewAssistantHandler はAssistantHandlerを生成する。
func NewAssistantHandler(service AssistantServiceInterface) *AssistantHandler {
	return &AssistantHandler{service: service}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Chat はメッセージに対するアシスタントの応答を返す。
// POST /api/ai/chat
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.service.Chat(req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChatReplyResponse(reply))
}
