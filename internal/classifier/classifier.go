package classifier

import (
	"context"
	"strings"

	"github.com/xaenox/supportlens/internal/models"
)

// Classifier assigns a support category to a finished exchange.
type Classifier interface {
	Classify(ctx context.Context, userMessage, botResponse string) (models.Category, error)
}

// KeywordClassifier matches keywords in the customer message. It never fails
// and backs the LLM classifier when the model is unreachable.
type KeywordClassifier struct {
	rules []keywordRule
}

type keywordRule struct {
	category models.Category
	keywords []string
}

func NewKeywordClassifier() *KeywordClassifier {
	// Order matters: money-back and cancel intents win over plain billing questions
	return &KeywordClassifier{
		rules: []keywordRule{
			{models.CategoryRefund, []string{"refund", "money back", "reimburse", "double charged", "dispute", "credit back"}},
			{models.CategoryCancellation, []string{"cancel", "downgrade", "close my account", "close our account", "pause my subscription", "terminate"}},
			{models.CategoryAccountAccess, []string{"password", "log in", "login", "logged out", "locked", "2fa", "mfa", "authenticator", "sign in"}},
			{models.CategoryBilling, []string{"charge", "invoice", "billing", "payment", "credit card", "price", "pricing", "subscription fee"}},
		},
	}
}

func (c *KeywordClassifier) Classify(ctx context.Context, userMessage, botResponse string) (models.Category, error) {
	if category, ok := c.match(userMessage); ok {
		return category, nil
	}
	// The reply often restates the intent when the question was vague
	if category, ok := c.match(botResponse); ok {
		return category, nil
	}
	return models.CategoryGeneralInquiry, nil
}

func (c *KeywordClassifier) match(text string) (models.Category, bool) {
	text = strings.ToLower(text)
	for _, rule := range c.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// ParseLabel maps free-form model output to a category: the first canonical
// name contained in the reply, ignoring case, else General Inquiry.
func ParseLabel(raw string) models.Category {
	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, c := range models.Categories {
		if strings.Contains(lower, strings.ToLower(string(c))) {
			return c
		}
	}
	return models.CategoryGeneralInquiry
}
