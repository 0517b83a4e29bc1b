// Package store persists conversation documents in MongoDB.
package store

import (
	"context"
	"time"

	"github.com/virallens/support-chat/internal/model"
)

// UpsertFields is the field set written by an upsert. Preview, Messages,
// MessageCount and Duration are always written; UserID, Title and Type are
// written only on first insert when MetaOnInsertOnly is set (the chat path),
// and unconditionally otherwise (the maintenance save path). The messages
// array is replaced whole, never merged element-wise, so a race between two
// concurrent writers to the same conversation is last-writer-wins.
type UpsertFields struct {
	UserID           string
	Title            string
	Type             string
	Preview          string
	Messages         []model.Message
	MessageCount     int
	Duration         float64
	MetaOnInsertOnly bool
}

// Query describes a filtered, sorted, paginated conversation listing.
type Query struct {
	UserID     string
	SearchTerm string
	DateRange  string // today, week, month, quarter, year; anything else = no date filter
	Type       string // "" or "all" = any type
	SortBy     string // newest (default), oldest, duration, messages
	Skip       int64
	Limit      int64
}

// ConversationStore is the persistence interface for conversation documents.
type ConversationStore interface {
	// Upsert creates the conversation if absent, else merges the supplied
	// fields into the existing document. updatedAt is set to now; createdAt
	// only on insert.
	Upsert(ctx context.Context, conversationID string, fields UpsertFields) (*model.Conversation, error)

	// FindByID returns the full conversation document, transcript included.
	FindByID(ctx context.Context, conversationID string) (*model.Conversation, error)

	// FindMany returns a page of conversation summaries (messages projected
	// out) and the total count matching the filter.
	FindMany(ctx context.Context, q Query) ([]model.Conversation, int64, error)

	// FindFull returns all of a user's conversations with transcripts,
	// oldest first.
	FindFull(ctx context.Context, userID string) ([]model.Conversation, error)

	// UpdateTitle sets title and updatedAt on an existing conversation.
	UpdateTitle(ctx context.Context, conversationID, title string) (*model.Conversation, error)

	// ReplaceMessages overwrites the transcript of an existing conversation.
	ReplaceMessages(ctx context.Context, conversationID string, messages []model.Message, updatedAt time.Time) error

	// DeleteMany removes the conversations with the given ids and reports
	// how many documents were actually deleted.
	DeleteMany(ctx context.Context, conversationIDs []string) (int64, error)
}
