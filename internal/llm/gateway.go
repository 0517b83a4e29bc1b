package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/virallens/support-chat/internal/model"
	"github.com/virallens/support-chat/pkg/logger"
	"github.com/virallens/support-chat/pkg/metrics"
)

// Gateway wraps an LLM client into the single call the chat flow needs:
// a message plus the prior transcript in, generated text out. One attempt
// per call; a failed completion surfaces immediately as an UpstreamError.
type Gateway struct {
	client    Client
	model     string
	maxTokens int
	logger    *logger.Logger
}

// NewGateway creates a gateway over the given client. model may be empty to
// use the provider default.
func NewGateway(client Client, model string, maxTokens int, log *logger.Logger) *Gateway {
	return &Gateway{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		logger:    log,
	}
}

// Generate produces a reply to message given the prior conversation turns.
func (g *Gateway) Generate(ctx context.Context, message string, history []model.Message) (string, error) {
	chat := make([]ChatMessage, 0, len(history)+1)
	for _, turn := range history {
		role := "assistant"
		if turn.IsUser {
			role = "user"
		}
		chat = append(chat, ChatMessage{Role: role, Content: turn.Content})
	}
	chat = append(chat, ChatMessage{Role: "user", Content: message})

	start := time.Now()
	resp, err := g.client.Complete(ctx, &CompletionRequest{
		Model:     g.model,
		Messages:  chat,
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		metrics.RecordGeneration(g.client.Name(), "error", time.Since(start).Seconds())
		g.logger.Error("completion failed",
			zap.String("provider", g.client.Name()),
			zap.Error(err),
		)
		return "", &UpstreamError{Provider: g.client.Name(), Err: err}
	}

	metrics.RecordGeneration(g.client.Name(), "success", time.Since(start).Seconds())
	g.logger.Debug("completion succeeded",
		zap.String("provider", g.client.Name()),
		zap.String("model", resp.Model),
		zap.Int("tokens_in", resp.TokensIn),
		zap.Int("tokens_out", resp.TokensOut),
		zap.Int64("latency_ms", resp.LatencyMs),
	)
	return resp.Content, nil
}
