// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/middleware"
	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/service"
	"github.com/virallens/support-chat/pkg/logger"
)

// ChatHandler handles chat turn endpoints.
type ChatHandler struct {
	chat   *service.ChatService
	logger *logger.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log,
	}
}

// Send handles POST /api/chat/message
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message != "" {
		if err := middleware.ValidateMessageContent(req.Message); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.chat.SendTurn(r.Context(), &req)
	if err != nil {
		h.logger.Error("send turn failed",
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Regenerate handles POST /api/chat/regenerate
func (h *ChatHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req model.RegenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.chat.RegenerateTurn(r.Context(), &req)
	if err != nil {
		h.logger.Error("regenerate failed",
			zap.String("conversation_id", req.ConversationID),
			zap.String("message_id", req.MessageID),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
