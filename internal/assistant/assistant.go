package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/metrics"
	"github.com/xaenox/supportlens/internal/models"
)

// DefaultSystemPrompt sets up the BillPro support persona.
const DefaultSystemPrompt = `You are a helpful customer support agent for BillPro, a SaaS billing platform used by thousands of businesses.

Your responsibilities:
- Answer questions about invoices, charges, payment methods, and subscription plans
- Help with account access issues (login, password reset, MFA)
- Handle refund and cancellation requests professionally
- Provide clear, accurate guidance on product features and how-tos

Guidelines:
- Be concise and professional (2-4 sentences unless more detail is needed)
- Show empathy for frustrated customers
- If you cannot directly resolve an issue (e.g., process a refund), explain the steps or escalation path
- Never make up specific account details; acknowledge you'd need to verify identity for account-specific actions`

var errEmptyReply = errors.New("assistant returned no choices")

// Responder produces a reply to a single customer message.
type Responder interface {
	Respond(ctx context.Context, message string) (*models.ChatResponse, error)
}

type Config struct {
	Model        string
	MaxTokens    int
	Temperature  float64
	SystemPrompt string
}

type GPTAssistant struct {
	client *openai.Client
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

func NewGPTAssistant(client *openai.Client, cfg Config, logger *zap.Logger) *GPTAssistant {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return &GPTAssistant{
		client: client,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// Respond asks the model for a reply and reports how long the call took.
func (a *GPTAssistant) Respond(ctx context.Context, message string) (*models.ChatResponse, error) {
	start := a.now()

	resp, err := a.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: a.cfg.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: a.cfg.SystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: message},
			},
			MaxTokens:   a.cfg.MaxTokens,
			Temperature: float32(a.cfg.Temperature),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyReply
	}

	elapsed := a.now().Sub(start)
	metrics.ChatDuration.Observe(elapsed.Seconds())
	a.logger.Debug("Assistant replied",
		zap.String("model", a.cfg.Model),
		zap.Duration("took", elapsed),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return &models.ChatResponse{
		Response:       strings.TrimSpace(resp.Choices[0].Message.Content),
		ResponseTimeMS: elapsed.Milliseconds(),
	}, nil
}
