// Package storetest provides an in-memory ConversationStore for tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/store"
)

// Fake is an in-memory ConversationStore. It mirrors the Mongo-backed
// store's upsert, filter, sort and pagination behavior closely enough for
// service and handler tests.
type Fake struct {
	mu            sync.Mutex
	conversations map[string]*model.Conversation

	// FailWith, when set, makes every operation return this error.
	FailWith error
}

// NewFake creates an empty in-memory store.
func NewFake() *Fake {
	return &Fake{
		conversations: make(map[string]*model.Conversation),
	}
}

// Seed inserts a conversation directly, bypassing upsert semantics.
func (f *Fake) Seed(conv model.Conversation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := conv
	f.conversations[conv.ConversationID] = &c
}

// Get returns the stored document, or nil when absent.
func (f *Fake) Get(conversationID string) *model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.conversations[conversationID]; ok {
		copied := *c
		return &copied
	}
	return nil
}

// Len reports how many conversations are stored.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conversations)
}

func (f *Fake) Upsert(_ context.Context, conversationID string, fields store.UpsertFields) (*model.Conversation, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	conv, ok := f.conversations[conversationID]
	if !ok {
		conv = &model.Conversation{
			ConversationID: conversationID,
			UserID:         fields.UserID,
			Title:          fields.Title,
			Type:           fields.Type,
			CreatedAt:      now,
		}
		f.conversations[conversationID] = conv
	} else if !fields.MetaOnInsertOnly {
		conv.UserID = fields.UserID
		conv.Title = fields.Title
		conv.Type = fields.Type
	}
	conv.Preview = fields.Preview
	conv.Messages = fields.Messages
	conv.MessageCount = fields.MessageCount
	conv.Duration = fields.Duration
	conv.UpdatedAt = now

	copied := *conv
	return &copied, nil
}

func (f *Fake) FindByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, &store.NotFoundError{Resource: "conversation", ID: conversationID}
	}
	copied := *conv
	return &copied, nil
}

func (f *Fake) FindMany(_ context.Context, q store.Query) ([]model.Conversation, int64, error) {
	if f.FailWith != nil {
		return nil, 0, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []model.Conversation
	for _, conv := range f.conversations {
		if conv.UserID != q.UserID {
			continue
		}
		if q.Type != "" && q.Type != "all" && conv.Type != q.Type {
			continue
		}
		if q.SearchTerm != "" && !matchesSearch(conv, q.SearchTerm) {
			continue
		}
		matched = append(matched, *conv)
	}

	sortConversations(matched, q.SortBy)
	total := int64(len(matched))

	if q.Skip >= total {
		matched = nil
	} else {
		matched = matched[q.Skip:]
	}
	if q.Limit > 0 && int64(len(matched)) > q.Limit {
		matched = matched[:q.Limit]
	}

	// Summaries only, like the projected Mongo query.
	page := make([]model.Conversation, len(matched))
	for i, conv := range matched {
		conv.Messages = nil
		page[i] = conv
	}
	return page, total, nil
}

func (f *Fake) FindFull(_ context.Context, userID string) ([]model.Conversation, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	convs := make([]model.Conversation, 0)
	for _, conv := range f.conversations {
		if conv.UserID == userID {
			convs = append(convs, *conv)
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.Before(convs[j].CreatedAt)
	})
	return convs, nil
}

func (f *Fake) UpdateTitle(_ context.Context, conversationID, title string) (*model.Conversation, error) {
	if f.FailWith != nil {
		return nil, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return nil, &store.NotFoundError{Resource: "conversation", ID: conversationID}
	}
	conv.Title = title
	conv.UpdatedAt = time.Now()
	copied := *conv
	return &copied, nil
}

func (f *Fake) ReplaceMessages(_ context.Context, conversationID string, messages []model.Message, updatedAt time.Time) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return &store.NotFoundError{Resource: "conversation", ID: conversationID}
	}
	conv.Messages = messages
	conv.UpdatedAt = updatedAt
	return nil
}

func (f *Fake) DeleteMany(_ context.Context, conversationIDs []string) (int64, error) {
	if f.FailWith != nil {
		return 0, f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for _, id := range conversationIDs {
		if _, ok := f.conversations[id]; ok {
			delete(f.conversations, id)
			deleted++
		}
	}
	return deleted, nil
}

func matchesSearch(conv *model.Conversation, term string) bool {
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(conv.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(conv.Preview), term) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(strings.ToLower(msg.Content), term) {
			return true
		}
	}
	return false
}

func sortConversations(convs []model.Conversation, sortBy string) {
	switch sortBy {
	case "oldest":
		sort.Slice(convs, func(i, j int) bool {
			return convs[i].CreatedAt.Before(convs[j].CreatedAt)
		})
	case "duration":
		sort.Slice(convs, func(i, j int) bool {
			return convs[i].Duration > convs[j].Duration
		})
	case "messages":
		sort.Slice(convs, func(i, j int) bool {
			return convs[i].MessageCount > convs[j].MessageCount
		})
	default:
		sort.Slice(convs, func(i, j int) bool {
			return convs[i].CreatedAt.After(convs[j].CreatedAt)
		})
	}
}
