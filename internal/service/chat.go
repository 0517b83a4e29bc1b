// Package service provides business logic for the support chat API.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/store"
	"github.com/virallens/support-chat/pkg/logger"
	"github.com/virallens/support-chat/pkg/metrics"
)

// previewLimit is the maximum preview length before truncation.
const previewLimit = 100

// Generator produces a model reply from a message and the prior transcript.
type Generator interface {
	Generate(ctx context.Context, message string, history []model.Message) (string, error)
}

// ChatService orchestrates chat turns: it invokes the model, appends both
// turns to the transcript, and upserts the conversation document.
type ChatService struct {
	store   store.ConversationStore
	gateway Generator
	logger  *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(st store.ConversationStore, gateway Generator, log *logger.Logger) *ChatService {
	return &ChatService{
		store:   st,
		gateway: gateway,
		logger:  log,
	}
}

// SendTurn handles one user message: generate a reply, append the user and
// model turns to the supplied history, and upsert the conversation. A failed
// generation leaves no trace in the store.
func (s *ChatService) SendTurn(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &store.ValidationError{Field: "message", Message: "Message is required"}
	}
	if req.UserID == "" {
		return nil, &store.ValidationError{Field: "userId", Message: "User ID is required"}
	}

	reply, err := s.gateway.Generate(ctx, req.Message, req.ConversationHistory)
	if err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = NewConversationID()
	}
	title := req.Title
	if title == "" {
		title = model.DefaultTitle
	}

	now := time.Now()
	messages := make([]model.Message, 0, len(req.ConversationHistory)+2)
	for _, turn := range req.ConversationHistory {
		if turn.ID == "" {
			turn.ID = uuid.NewString()
		}
		messages = append(messages, turn)
	}
	messages = append(messages,
		model.Message{
			ID:        uuid.NewString(),
			Content:   req.Message,
			IsUser:    true,
			Timestamp: now,
		},
		model.Message{
			ID:        uuid.NewString(),
			Content:   reply,
			IsUser:    false,
			Timestamp: now.Add(time.Millisecond),
		},
	)

	conv, err := s.store.Upsert(ctx, conversationID, store.UpsertFields{
		UserID:           req.UserID,
		Title:            title,
		Type:             model.DefaultType,
		Preview:          makePreview(req.Message),
		Messages:         messages,
		MessageCount:     len(messages),
		Duration:         transcriptDuration(messages),
		MetaOnInsertOnly: true,
	})
	if err != nil {
		return nil, err
	}

	metrics.MessagesTotal.WithLabelValues("user").Inc()
	metrics.MessagesTotal.WithLabelValues("assistant").Inc()

	s.logger.Info("chat turn completed",
		zap.String("conversation_id", conversationID),
		zap.String("user_id", req.UserID),
		zap.Int("message_count", conv.MessageCount),
	)

	return &model.ChatResponse{
		Response:       reply,
		ConversationID: conversationID,
		Title:          conv.Title,
	}, nil
}

// RegenerateTurn replaces the content of one prior model turn. The target
// must not be the first message and must be immediately preceded by a user
// turn; the reply is regenerated from that user turn and the transcript
// before it.
func (s *ChatService) RegenerateTurn(ctx context.Context, req *model.RegenerateRequest) (*model.RegenerateResponse, error) {
	if req.ConversationID == "" {
		return nil, &store.ValidationError{Field: "conversationId", Message: "Conversation ID is required"}
	}

	conv, err := s.store.FindByID(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, turn := range conv.Messages {
		if turn.ID == req.MessageID {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil, &store.NotFoundError{Resource: "message", ID: req.MessageID}
	}

	prev := conv.Messages[idx-1]
	if !prev.IsUser {
		return nil, &store.ValidationError{Field: "messageId", Message: "Previous message is not from user"}
	}

	reply, err := s.gateway.Generate(ctx, prev.Content, conv.Messages[:idx-1])
	if err != nil {
		return nil, err
	}

	now := time.Now()
	conv.Messages[idx].Content = reply
	conv.Messages[idx].Timestamp = now
	conv.Messages[idx].Regenerated = true

	if err := s.store.ReplaceMessages(ctx, req.ConversationID, conv.Messages, now); err != nil {
		return nil, err
	}

	s.logger.Info("message regenerated",
		zap.String("conversation_id", req.ConversationID),
		zap.String("message_id", conv.Messages[idx].ID),
	)

	return &model.RegenerateResponse{
		RegeneratedMessage: reply,
		MessageID:          conv.Messages[idx].ID,
		Success:            true,
	}, nil
}

// NewConversationID mints a time-based conversation identifier.
func NewConversationID() string {
	return fmt.Sprintf("conv-%d", time.Now().UnixMilli())
}

// makePreview derives the list-view excerpt from a message: the leading 100
// characters, with an ellipsis when truncated.
func makePreview(message string) string {
	runes := []rune(message)
	if len(runes) <= previewLimit {
		return message
	}
	return string(runes[:previewLimit]) + "..."
}

// transcriptDuration is the span in seconds between the first and last turn,
// 0 when the transcript has at most one message.
func transcriptDuration(messages []model.Message) float64 {
	if len(messages) <= 1 {
		return 0
	}
	return messages[len(messages)-1].Timestamp.Sub(messages[0].Timestamp).Seconds()
}
