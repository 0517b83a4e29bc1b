package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/store"
	"github.com/virallens/support-chat/pkg/logger"
)

const (
	defaultPageLimit = 25
	maxPageLimit     = 100
)

// ListOptions are the client-supplied listing criteria.
type ListOptions struct {
	SearchTerm string
	DateRange  string
	Type       string
	SortBy     string
	Page       int
	Limit      int
}

// ConversationService handles conversation listing and maintenance.
type ConversationService struct {
	store  store.ConversationStore
	logger *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(st store.ConversationStore, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:  st,
		logger: log,
	}
}

// List returns a page of conversation summaries for a user.
func (s *ConversationService) List(ctx context.Context, userID string, opts ListOptions) (*model.ConversationPage, error) {
	if userID == "" {
		return nil, &store.ValidationError{Field: "userId", Message: "User ID is required"}
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	limit := opts.Limit
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	skip := int64(page-1) * int64(limit)

	convs, total, err := s.store.FindMany(ctx, store.Query{
		UserID:     userID,
		SearchTerm: opts.SearchTerm,
		DateRange:  opts.DateRange,
		Type:       opts.Type,
		SortBy:     opts.SortBy,
		Skip:       skip,
		Limit:      int64(limit),
	})
	if err != nil {
		return nil, err
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	return &model.ConversationPage{
		Conversations: convs,
		TotalCount:    total,
		TotalPages:    totalPages,
		CurrentPage:   page,
		HasNextPage:   skip+int64(len(convs)) < total,
		HasPrevPage:   page > 1,
	}, nil
}

// Get returns the full conversation document.
func (s *ConversationService) Get(ctx context.Context, conversationID string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, &store.ValidationError{Field: "conversationId", Message: "Conversation ID is required"}
	}
	return s.store.FindByID(ctx, conversationID)
}

// Save upserts a conversation with client-supplied fields. The derived
// messageCount and duration are recomputed from the supplied transcript
// rather than trusted from the client.
func (s *ConversationService) Save(ctx context.Context, req *model.SaveConversationRequest) (*model.Conversation, error) {
	if req.ConversationID == "" {
		return nil, &store.ValidationError{Field: "conversation_id", Message: "Conversation ID is required"}
	}
	if req.UserID == "" {
		return nil, &store.ValidationError{Field: "user_id", Message: "User ID is required"}
	}

	convType := req.Type
	if convType == "" {
		convType = model.DefaultType
	}

	messages := make([]model.Message, len(req.Messages))
	copy(messages, req.Messages)
	for i := range messages {
		if messages[i].ID == "" {
			messages[i].ID = uuid.NewString()
		}
	}

	return s.store.Upsert(ctx, req.ConversationID, store.UpsertFields{
		UserID:       req.UserID,
		Title:        req.Title,
		Type:         convType,
		Preview:      req.Preview,
		Messages:     messages,
		MessageCount: len(messages),
		Duration:     transcriptDuration(messages),
	})
}

// RenameTitle updates the display title of an existing conversation.
func (s *ConversationService) RenameTitle(ctx context.Context, conversationID, title string) (*model.Conversation, error) {
	if conversationID == "" {
		return nil, &store.ValidationError{Field: "conversationId", Message: "Conversation ID is required"}
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, &store.ValidationError{Field: "title", Message: "Title is required"}
	}
	return s.store.UpdateTitle(ctx, conversationID, trimmed)
}

// DeleteMany removes the given conversations. Ids that do not exist are
// skipped silently; the returned count reflects actual deletions.
func (s *ConversationService) DeleteMany(ctx context.Context, conversationIDs []string) (int64, error) {
	if conversationIDs == nil {
		return 0, &store.ValidationError{Field: "conversationIds", Message: "Invalid conversation IDs"}
	}
	deleted, err := s.store.DeleteMany(ctx, conversationIDs)
	if err != nil {
		return 0, err
	}
	s.logger.Info("conversations deleted",
		zap.Int("requested", len(conversationIDs)),
		zap.Int64("deleted", deleted),
	)
	return deleted, nil
}

// Export returns all of a user's conversations with full transcripts.
func (s *ConversationService) Export(ctx context.Context, userID string) (*model.ExportResponse, error) {
	if userID == "" {
		return nil, &store.ValidationError{Field: "userId", Message: "User ID is required"}
	}
	convs, err := s.store.FindFull(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.ExportResponse{
		ExportDate:        time.Now(),
		UserID:            userID,
		ConversationCount: len(convs),
		Conversations:     convs,
	}, nil
}
