package intel

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
)

// extractionPrompt instructs the model to return structured JSON over the
// category taxonomy. Numeric and keyword categories are left to the pattern
// channel, which handles them more reliably.
const extractionPrompt = `You are a scam intelligence analyst. Extract ALL identifiable information from the scammer's messages below. Return ONLY valid JSON, nothing else.

JSON format:
{
  "names": ["any names mentioned"],
  "phoneNumbers": ["any phone numbers"],
  "upiIds": ["any UPI IDs like xyz@paytm"],
  "bankAccounts": ["any account numbers"],
  "bankNames": ["any bank names"],
  "claimedOrganization": ["companies/agencies they claim to be from"],
  "employeeId": ["any employee/badge IDs"],
  "caseNumber": ["any case/reference numbers"],
  "links": ["any URLs or websites"],
  "locations": ["any cities, addresses, or locations mentioned"],
  "amounts": ["any monetary amounts mentioned"],
  "tactics": ["specific manipulation tactics being used"]
}

Only include fields where you found actual data. Return empty arrays for fields with no data.`

// ModelExtractor is the model-based extraction channel. It is best-effort:
// any service or parse failure yields an empty record, never an error.
type ModelExtractor struct {
	client llm.Client
	log    *logrus.Entry
}

func NewModelExtractor(client llm.Client, log *logrus.Entry) *ModelExtractor {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ModelExtractor{client: client, log: log}
}

// Extract asks the model for structured intelligence over the caller text.
func (m *ModelExtractor) Extract(ctx context.Context, texts []string) Record {
	if m.client == nil || len(texts) == 0 {
		return NewRecord()
	}
	out, err := m.client.Chat(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: "Scammer messages:\n" + strings.Join(texts, "\n")},
		},
		Temperature: 0.1,
		MaxTokens:   500,
		TopP:        0.9,
	})
	if err != nil {
		m.log.WithError(err).Warn("model extraction failed, using pattern channel only")
		return NewRecord()
	}
	return parseExtraction(out, m.log)
}

// parseExtraction pulls the first JSON object out of the model reply
// (tolerating markdown fences) and coerces it into a record. Unknown keys
// are dropped; scalar values are treated as single-element sets.
func parseExtraction(text string, log *logrus.Entry) Record {
	r := NewRecord()
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return r
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		log.WithError(err).Warn("failed to parse model extraction")
		return r
	}
	known := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		known[string(c)] = c
	}
	for key, msg := range raw {
		cat, ok := known[key]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(msg, &list); err == nil {
			r.Add(cat, list...)
			continue
		}
		var single string
		if err := json.Unmarshal(msg, &single); err == nil {
			r.Add(cat, single)
		}
	}
	return r
}
