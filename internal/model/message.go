package model

import (
	"time"
)

// Message is one turn inside a conversation transcript. Turns are embedded
// in the conversation document and are not independently addressable at the
// store level; clients reference them by ID.
type Message struct {
	ID          string    `json:"id" bson:"id"`
	Content     string    `json:"content" bson:"content"`
	IsUser      bool      `json:"isUser" bson:"isUser"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Regenerated bool      `json:"regenerated,omitempty" bson:"regenerated,omitempty"`
}

// ChatRequest is the body of the send-message endpoint.
type ChatRequest struct {
	Message             string    `json:"message"`
	ConversationHistory []Message `json:"conversationHistory"`
	ConversationID      string    `json:"conversationId,omitempty"`
	UserID              string    `json:"userId"`
	Title               string    `json:"title,omitempty"`
}

// ChatResponse is returned after a successful chat turn.
type ChatResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// RegenerateRequest is the body of the regenerate endpoint. CurrentMessage
// carries the text the client is displaying for the target turn; it is not
// used to build the prompt.
type RegenerateRequest struct {
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
	CurrentMessage string `json:"currentMessage"`
}

// RegenerateResponse is returned after a model turn has been regenerated.
type RegenerateResponse struct {
	RegeneratedMessage string `json:"regeneratedMessage"`
	MessageID          string `json:"messageId"`
	Success            bool   `json:"success"`
}
