package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/internal/store"
	"github.com/virallens/support-chat/internal/store/storetest"
	"github.com/virallens/support-chat/pkg/logger"
)

type fakeGenerator struct {
	reply string
	err   error

	calls       int
	lastMessage string
	lastHistory []model.Message
}

func (g *fakeGenerator) Generate(_ context.Context, message string, history []model.Message) (string, error) {
	g.calls++
	g.lastMessage = message
	g.lastHistory = history
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestSendTurnValidation(t *testing.T) {
	tests := []struct {
		name string
		req  model.ChatRequest
	}{
		{"empty message", model.ChatRequest{Message: "", UserID: "user-1"}},
		{"whitespace message", model.ChatRequest{Message: "   ", UserID: "user-1"}},
		{"missing user id", model.ChatRequest{Message: "Hello", UserID: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := storetest.NewFake()
			gen := &fakeGenerator{reply: "hi"}
			svc := NewChatService(fake, gen, testLogger())

			_, err := svc.SendTurn(context.Background(), &tt.req)

			var validationErr *store.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if gen.calls != 0 {
				t.Error("generator should not be called on invalid input")
			}
			if fake.Len() != 0 {
				t.Error("store should not be written on invalid input")
			}
		})
	}
}

func TestSendTurnNewConversation(t *testing.T) {
	fake := storetest.NewFake()
	gen := &fakeGenerator{reply: "Hi! How can I help?"}
	svc := NewChatService(fake, gen, testLogger())

	resp, err := svc.SendTurn(context.Background(), &model.ChatRequest{
		Message: "Hello",
		UserID:  "user-1",
	})
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}

	if resp.Response != "Hi! How can I help?" {
		t.Errorf("response = %q", resp.Response)
	}
	if !strings.HasPrefix(resp.ConversationID, "conv-") {
		t.Errorf("conversation id = %q, want conv- prefix", resp.ConversationID)
	}
	if resp.Title != model.DefaultTitle {
		t.Errorf("title = %q, want %q", resp.Title, model.DefaultTitle)
	}

	conv := fake.Get(resp.ConversationID)
	if conv == nil {
		t.Fatal("conversation not persisted")
	}
	if conv.UserID != "user-1" {
		t.Errorf("user id = %q", conv.UserID)
	}
	if conv.Type != model.DefaultType {
		t.Errorf("type = %q, want %q", conv.Type, model.DefaultType)
	}
	if conv.MessageCount != 2 {
		t.Fatalf("message count = %d, want 2", conv.MessageCount)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("len(messages) = %d, want 2", len(conv.Messages))
	}

	userTurn, modelTurn := conv.Messages[0], conv.Messages[1]
	if !userTurn.IsUser || userTurn.Content != "Hello" {
		t.Errorf("user turn = %+v", userTurn)
	}
	if modelTurn.IsUser || modelTurn.Content != "Hi! How can I help?" {
		t.Errorf("model turn = %+v", modelTurn)
	}
	if userTurn.ID == "" || modelTurn.ID == "" {
		t.Error("turns must have generated ids")
	}
	if !modelTurn.Timestamp.After(userTurn.Timestamp) {
		t.Error("model turn timestamp must be strictly after the user turn")
	}
	if conv.Preview != "Hello" {
		t.Errorf("preview = %q, want Hello", conv.Preview)
	}
}

func TestSendTurnAppendsToHistory(t *testing.T) {
	fake := storetest.NewFake()
	gen := &fakeGenerator{reply: "answer"}
	svc := NewChatService(fake, gen, testLogger())

	base := time.Now().Add(-time.Minute)
	history := []model.Message{
		{ID: "m1", Content: "first question", IsUser: true, Timestamp: base},
		{Content: "first answer", IsUser: false, Timestamp: base.Add(time.Second)},
	}

	resp, err := svc.SendTurn(context.Background(), &model.ChatRequest{
		Message:             "second question",
		ConversationHistory: history,
		ConversationID:      "conv-abc",
		UserID:              "user-1",
		Title:               "Billing question",
	})
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}
	if resp.ConversationID != "conv-abc" {
		t.Errorf("conversation id = %q, want conv-abc", resp.ConversationID)
	}

	if gen.lastMessage != "second question" {
		t.Errorf("generator message = %q", gen.lastMessage)
	}
	if len(gen.lastHistory) != 2 {
		t.Errorf("generator history length = %d, want 2", len(gen.lastHistory))
	}

	conv := fake.Get("conv-abc")
	if conv.MessageCount != 4 {
		t.Fatalf("message count = %d, want 4", conv.MessageCount)
	}
	if conv.Messages[0].ID != "m1" {
		t.Error("existing message id must be preserved")
	}
	if conv.Messages[1].ID == "" {
		t.Error("history message without an id must get one")
	}
	if conv.Duration <= 0 {
		t.Errorf("duration = %v, want > 0", conv.Duration)
	}
	if conv.Title != "Billing question" {
		t.Errorf("title = %q", conv.Title)
	}
}

func TestSendTurnDoesNotOverwriteExistingMeta(t *testing.T) {
	fake := storetest.NewFake()
	fake.Seed(model.Conversation{
		ConversationID: "conv-1",
		UserID:         "user-1",
		Title:          "Original title",
		Type:           model.DefaultType,
	})
	gen := &fakeGenerator{reply: "ok"}
	svc := NewChatService(fake, gen, testLogger())

	resp, err := svc.SendTurn(context.Background(), &model.ChatRequest{
		Message:        "more",
		ConversationID: "conv-1",
		UserID:         "user-1",
		Title:          "Client supplied title",
	})
	if err != nil {
		t.Fatalf("SendTurn: %v", err)
	}

	conv := fake.Get("conv-1")
	if conv.Title != "Original title" {
		t.Errorf("title = %q, existing title must not be overwritten", conv.Title)
	}
	if resp.Title != "Original title" {
		t.Errorf("response title = %q, want stored title", resp.Title)
	}
}

func TestSendTurnGeneratorFailureLeavesNoTrace(t *testing.T) {
	fake := storetest.NewFake()
	gen := &fakeGenerator{err: errors.New("upstream down")}
	svc := NewChatService(fake, gen, testLogger())

	_, err := svc.SendTurn(context.Background(), &model.ChatRequest{
		Message: "Hello",
		UserID:  "user-1",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if fake.Len() != 0 {
		t.Error("failed generation must not write to the store")
	}
}

func TestRegenerateTurn(t *testing.T) {
	base := time.Now().Add(-time.Minute)
	seed := func() *storetest.Fake {
		fake := storetest.NewFake()
		fake.Seed(model.Conversation{
			ConversationID: "conv-1",
			UserID:         "user-1",
			Messages: []model.Message{
				{ID: "m1", Content: "question one", IsUser: true, Timestamp: base},
				{ID: "m2", Content: "answer one", IsUser: false, Timestamp: base.Add(time.Second)},
				{ID: "m3", Content: "question two", IsUser: true, Timestamp: base.Add(2 * time.Second)},
				{ID: "m4", Content: "answer two", IsUser: false, Timestamp: base.Add(3 * time.Second)},
			},
			MessageCount: 4,
		})
		return fake
	}

	t.Run("regenerates a model turn", func(t *testing.T) {
		fake := seed()
		gen := &fakeGenerator{reply: "better answer"}
		svc := NewChatService(fake, gen, testLogger())

		resp, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-1",
			MessageID:      "m4",
		})
		if err != nil {
			t.Fatalf("RegenerateTurn: %v", err)
		}
		if !resp.Success || resp.RegeneratedMessage != "better answer" || resp.MessageID != "m4" {
			t.Errorf("resp = %+v", resp)
		}

		// The reply is regenerated from the preceding user turn and the
		// transcript before it.
		if gen.lastMessage != "question two" {
			t.Errorf("generator message = %q, want question two", gen.lastMessage)
		}
		if len(gen.lastHistory) != 2 {
			t.Errorf("generator history length = %d, want 2", len(gen.lastHistory))
		}

		conv := fake.Get("conv-1")
		if conv.Messages[3].Content != "better answer" {
			t.Errorf("stored content = %q", conv.Messages[3].Content)
		}
		if !conv.Messages[3].Regenerated {
			t.Error("regenerated flag must be set")
		}
		if conv.Messages[1].Content != "answer one" {
			t.Error("other turns must be untouched")
		}
	})

	t.Run("missing conversation id", func(t *testing.T) {
		svc := NewChatService(seed(), &fakeGenerator{}, testLogger())
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{MessageID: "m4"})
		var validationErr *store.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("unknown conversation", func(t *testing.T) {
		svc := NewChatService(seed(), &fakeGenerator{}, testLogger())
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-missing",
			MessageID:      "m4",
		})
		var notFoundErr *store.NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("err = %v, want NotFoundError", err)
		}
	})

	t.Run("unknown message", func(t *testing.T) {
		svc := NewChatService(seed(), &fakeGenerator{}, testLogger())
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-1",
			MessageID:      "nope",
		})
		var notFoundErr *store.NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("err = %v, want NotFoundError", err)
		}
	})

	t.Run("first message cannot be regenerated", func(t *testing.T) {
		svc := NewChatService(seed(), &fakeGenerator{}, testLogger())
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-1",
			MessageID:      "m1",
		})
		var notFoundErr *store.NotFoundError
		if !errors.As(err, &notFoundErr) {
			t.Fatalf("err = %v, want NotFoundError", err)
		}
	})

	t.Run("previous turn must be from the user", func(t *testing.T) {
		svc := NewChatService(seed(), &fakeGenerator{}, testLogger())
		// m3 is a user turn preceded by the model turn m2.
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-1",
			MessageID:      "m3",
		})
		var validationErr *store.ValidationError
		if !errors.As(err, &validationErr) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("generator failure leaves transcript untouched", func(t *testing.T) {
		fake := seed()
		svc := NewChatService(fake, &fakeGenerator{err: errors.New("upstream down")}, testLogger())
		_, err := svc.RegenerateTurn(context.Background(), &model.RegenerateRequest{
			ConversationID: "conv-1",
			MessageID:      "m4",
		})
		if err == nil {
			t.Fatal("expected error")
		}
		conv := fake.Get("conv-1")
		if conv.Messages[3].Content != "answer two" || conv.Messages[3].Regenerated {
			t.Errorf("transcript mutated on failure: %+v", conv.Messages[3])
		}
	})
}

func TestMakePreview(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"short message unchanged", "Hello", "Hello"},
		{"exactly at the limit", strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"truncated with ellipsis", strings.Repeat("a", 101), strings.Repeat("a", 100) + "..."},
		{"multibyte runes counted as characters", strings.Repeat("é", 101), strings.Repeat("é", 100) + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makePreview(tt.message); got != tt.want {
				t.Errorf("makePreview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTranscriptDuration(t *testing.T) {
	base := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		messages []model.Message
		want     float64
	}{
		{"empty", nil, 0},
		{"single message", []model.Message{{Timestamp: base}}, 0},
		{"two messages", []model.Message{
			{Timestamp: base},
			{Timestamp: base.Add(90 * time.Second)},
		}, 90},
		{"span is last minus first", []model.Message{
			{Timestamp: base},
			{Timestamp: base.Add(10 * time.Second)},
			{Timestamp: base.Add(45 * time.Second)},
		}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := transcriptDuration(tt.messages); got != tt.want {
				t.Errorf("transcriptDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}
