package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/middleware"
	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/service"
	"github.com/virallens/support-chat/pkg/logger"
)

// ConversationHandler handles conversation listing and maintenance endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/conversations/{userID}
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	opts := service.ListOptions{
		SearchTerm: q.Get("searchTerm"),
		DateRange:  q.Get("dateRange"),
		Type:       q.Get("conversationType"),
		SortBy:     q.Get("sortBy"),
	}
	if p, err := strconv.Atoi(q.Get("page")); err == nil {
		opts.Page = p
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = l
	}

	page, err := h.service.List(r.Context(), userID, opts)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.String("user_id", userID), zap.Error(err))
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Get handles GET /api/conversations/single/{conversationID}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.service.Get(r.Context(), conversationID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Save handles POST /api/conversations
func (h *ConversationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req model.SaveConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.Save(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to save conversation",
			zap.String("conversation_id", req.ConversationID),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// UpdateTitle handles POST /api/conversations/update-title
func (h *ConversationHandler) UpdateTitle(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.RenameTitle(r.Context(), req.ConversationID, req.Title)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.UpdateTitleResponse{
		Success: true,
		Conversation: model.TitleConversation{
			ConversationID: conv.ConversationID,
			Title:          conv.Title,
			UpdatedAt:      conv.UpdatedAt,
		},
	})
}

// BulkDelete handles DELETE /api/conversations/bulk
func (h *ConversationHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	var req model.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	deleted, err := h.service.DeleteMany(r.Context(), req.ConversationIDs)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, model.BulkDeleteResponse{
		Message:      fmt.Sprintf("Deleted %d conversations", deleted),
		DeletedCount: deleted,
	})
}

// Export handles GET /api/conversations/export/{userID}
func (h *ConversationHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	export, err := h.service.Export(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to export conversations", zap.String("user_id", userID), zap.Error(err))
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, export)
}
