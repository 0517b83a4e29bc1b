// Package model defines data structures for the support chat API.
package model

import (
	"time"
)

// Conversation is a persisted chat session: an ordered transcript plus
// summary metadata. It is the only top-level document in the store, keyed
// by ConversationID.
type Conversation struct {
	ConversationID string    `json:"conversation_id" bson:"conversation_id"`
	UserID         string    `json:"user_id" bson:"user_id"`
	Title          string    `json:"title" bson:"title"`
	Preview        string    `json:"preview" bson:"preview"`
	Type           string    `json:"type" bson:"type"`
	MessageCount   int       `json:"messageCount" bson:"messageCount"`
	Duration       float64   `json:"duration" bson:"duration"`
	Messages       []Message `json:"messages,omitempty" bson:"messages,omitempty"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// DefaultType is the conversation category used when the client supplies none.
const DefaultType = "general"

// DefaultTitle is the title used when a conversation is created without one.
const DefaultTitle = "New Conversation"

// ConversationPage is the response for the filtered conversation listing.
// Conversations carry summary fields only; transcripts are projected out.
type ConversationPage struct {
	Conversations []Conversation `json:"conversations"`
	TotalCount    int64          `json:"totalCount"`
	TotalPages    int64          `json:"totalPages"`
	CurrentPage   int            `json:"currentPage"`
	HasNextPage   bool           `json:"hasNextPage"`
	HasPrevPage   bool           `json:"hasPrevPage"`
}

// SaveConversationRequest is the body of the maintenance save endpoint.
// MessageCount and Duration are accepted but recomputed from Messages
// before the document is written.
type SaveConversationRequest struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Preview        string    `json:"preview"`
	Type           string    `json:"type"`
	Messages       []Message `json:"messages"`
}

// UpdateTitleRequest is the body of the title rename endpoint.
type UpdateTitleRequest struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// UpdateTitleResponse echoes the renamed conversation's summary.
type UpdateTitleResponse struct {
	Success      bool              `json:"success"`
	Conversation TitleConversation `json:"conversation"`
}

// TitleConversation is the slim conversation view returned after a rename.
type TitleConversation struct {
	ConversationID string    `json:"conversation_id"`
	Title          string    `json:"title"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// BulkDeleteRequest is the body of the bulk delete endpoint.
type BulkDeleteRequest struct {
	ConversationIDs []string `json:"conversationIds"`
}

// BulkDeleteResponse reports how many conversations were actually removed.
type BulkDeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// ExportResponse bundles all of a user's conversations, transcripts included.
type ExportResponse struct {
	ExportDate        time.Time      `json:"exportDate"`
	UserID            string         `json:"userId"`
	ConversationCount int            `json:"conversationCount"`
	Conversations     []Conversation `json:"conversations"`
}
