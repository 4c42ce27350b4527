package intel

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
)

// ScamTypeUnknown is the default classification.
const ScamTypeUnknown = "Unknown"

// ScamTypes is the closed category list; the classifier always answers from
// this list or falls back to Unknown.
var ScamTypes = []string{
	"Tech Support Scam",
	"Bank/UPI Fraud",
	"OTP/Refund Scam",
	"Investment Scam",
	"Government Impersonation",
	"Courier/Delivery Scam",
	"Lottery/Prize Scam",
	"Romance Scam",
	"Job Scam",
	"Insurance Scam",
	ScamTypeUnknown,
}

const classifyPrompt = `Classify this scam conversation into ONE category. Return ONLY the category name, nothing else.

Categories:
- Tech Support Scam
- Bank/UPI Fraud
- OTP/Refund Scam
- Investment Scam
- Government Impersonation
- Courier/Delivery Scam
- Lottery/Prize Scam
- Romance Scam
- Job Scam
- Insurance Scam
- Unknown`

// Classifier labels the conversation with a scam type. Classification is
// recomputed each turn and may change as the conversation develops; it is
// the one deliberately non-monotonic output of the intel layer.
type Classifier struct {
	client llm.Client
	log    *logrus.Entry
}

func NewClassifier(client llm.Client, log *logrus.Entry) *Classifier {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Classifier{client: client, log: log}
}

// Classify returns a label from ScamTypes. Fewer than two caller turns, a
// missing client or any service failure all yield Unknown.
func (c *Classifier) Classify(ctx context.Context, texts []string) string {
	if c.client == nil || len(texts) < 2 {
		return ScamTypeUnknown
	}
	out, err := c.client.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: classifyPrompt},
			{Role: "user", Content: strings.Join(texts, "\n")},
		},
		Temperature: 0.1,
		MaxTokens:   20,
	})
	if err != nil {
		c.log.WithError(err).Warn("scam classification failed")
		return ScamTypeUnknown
	}
	return normalizeScamType(out)
}

func normalizeScamType(s string) string {
	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"'.`))
	for _, t := range ScamTypes {
		if strings.EqualFold(s, t) {
			return t
		}
	}
	return ScamTypeUnknown
}
