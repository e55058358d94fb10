package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/metrics"
	"github.com/xaenox/supportlens/internal/models"
)

const classificationPrompt = `You are a support ticket classifier. Classify the following customer support conversation into exactly one category.

Categories:
- Billing: Questions about invoices, charges, payment methods, pricing, or subscription fees
- Refund: Requests to return a product, get money back, dispute a charge, or process a credit
- Account Access: Issues logging in, resetting passwords, locked accounts, or MFA problems
- Cancellation: Requests to cancel a subscription, downgrade a plan, or close an account
- General Inquiry: Anything that doesn't fit the above: feature questions, product info, how-to questions, etc.

Classification rules:
1. Identify the PRIMARY intent of the customer message and use that category even if other topics are mentioned
2. Refund vs Billing: if the customer wants money back (not just asking about a charge), use Refund
3. Cancellation vs Billing: if the customer wants to cancel (not just asking about pricing), use Cancellation
4. Account Access vs General Inquiry: if the issue is logging in or authentication, use Account Access
5. When genuinely ambiguous, prefer the more specific category over General Inquiry

Customer Message:
%s

Support Response:
%s

Respond with ONLY the category name. No explanation, no punctuation, just the exact category name from the list above.`

type GPTClassifier struct {
	client   *openai.Client
	model    string
	fallback Classifier
	logger   *zap.Logger
}

func NewGPTClassifier(client *openai.Client, model string, logger *zap.Logger) *GPTClassifier {
	return &GPTClassifier{
		client:   client,
		model:    model,
		fallback: NewKeywordClassifier(),
		logger:   logger,
	}
}

func (c *GPTClassifier) Classify(ctx context.Context, userMessage, botResponse string) (models.Category, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: fmt.Sprintf(classificationPrompt, userMessage, botResponse),
				},
			},
			MaxTokens: 10,
		},
	)
	if err != nil {
		c.logger.Error("Failed to get classification response", zap.Error(err))
		return c.fallbackClassification(ctx, userMessage, botResponse)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("Classification response had no choices")
		return c.fallbackClassification(ctx, userMessage, botResponse)
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	category := ParseLabel(raw)
	c.logger.Debug("Classified trace",
		zap.String("raw", raw),
		zap.String("category", string(category)))
	return category, nil
}

// Fallback to keyword classification if the model fails
func (c *GPTClassifier) fallbackClassification(ctx context.Context, userMessage, botResponse string) (models.Category, error) {
	metrics.ClassifierFallbacks.Inc()
	return c.fallback.Classify(ctx, userMessage, botResponse)
}
