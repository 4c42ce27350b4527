// Package dialogue assembles the persona's dynamic system prompt and
// generates the next in-character reply. The caller (the turn orchestrator)
// owns retries and all session state; this service is stateless.
package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/escalation"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
)

// historyWindow caps how many prior turns are replayed to the model.
const historyWindow = 30

const fallbackLine = "I'm sorry, could you say that again?"

// Request carries everything the service needs to produce one reply.
type Request struct {
	SessionID string
	Persona   persona.Persona
	// Turns is the full conversation so far, latest caller turn included.
	Turns []call.Turn
	// Known is the current intelligence record, used to build the
	// already-known suppression list so the persona never re-asks.
	Known    intel.Record
	ScamType string
}

// Reply is the generated persona turn plus the escalation level that shaped it.
type Reply struct {
	Text  string
	Level escalation.Level
}

// Service generates persona replies via the chat model.
type Service struct {
	client llm.Client
	log    *logrus.Entry
}

func NewService(client llm.Client, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{client: client, log: log}
}

// Reply builds the dynamic prompt and asks the model for the next line.
func (s *Service) Reply(ctx context.Context, req Request) (Reply, error) {
	if s.client == nil {
		return Reply{}, fmt.Errorf("dialogue: no llm client configured")
	}
	level := escalation.ForCallerTurns(call.CallerCount(req.Turns))

	msgs := []llm.Message{{Role: "system", Content: BuildSystemPrompt(req.Persona, level, req.Known, req.ScamType)}}
	msgs = append(msgs, historyMessages(req.Turns)...)

	out, err := s.client.Chat(ctx, llm.Request{
		Messages:    msgs,
		Temperature: 0.75,
		MaxTokens:   100,
		TopP:        0.9,
	})
	if err != nil {
		return Reply{}, fmt.Errorf("dialogue: generate reply: %w", err)
	}
	return Reply{Text: CleanReply(out), Level: level}, nil
}

// historyMessages maps conversation turns to chat roles, dropping system
// notices (the model never sees them) and keeping only the trailing window.
func historyMessages(turns []call.Turn) []llm.Message {
	var msgs []llm.Message
	for _, t := range turns {
		switch t.Role {
		case call.RoleCaller:
			msgs = append(msgs, llm.Message{Role: "user", Content: t.Text})
		case call.RolePersona:
			msgs = append(msgs, llm.Message{Role: "assistant", Content: t.Text})
		}
	}
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}
	return msgs
}

// knownLabels names the record categories surfaced in the suppression list,
// in the order they are listed.
var knownLabels = []struct {
	cat   intel.Category
	label string
}{
	{intel.Names, "Caller's name"},
	{intel.Organizations, "Their organization"},
	{intel.PhoneNumbers, "Their phone number"},
	{intel.EmployeeIDs, "Their employee ID"},
	{intel.CaseNumbers, "Case/reference number"},
	{intel.BankAccounts, "Bank account mentioned"},
	{intel.UPIIDs, "UPI ID mentioned"},
}

// BuildSystemPrompt composes persona base prompt + escalation block +
// already-known suppression list + in-character ground rules.
func BuildSystemPrompt(p persona.Persona, level escalation.Level, known intel.Record, scamType string) string {
	var b strings.Builder
	b.WriteString(p.Prompt)
	b.WriteString(level.Instructions())

	var lines []string
	for _, kl := range knownLabels {
		if known.Has(kl.cat) {
			lines = append(lines, fmt.Sprintf("- %s: %s", kl.label, strings.Join(known.Values(kl.cat), ", ")))
		}
	}
	if scamType != "" && scamType != intel.ScamTypeUnknown {
		lines = append(lines, "- Detected scam type: "+scamType)
	}
	if len(lines) > 0 {
		b.WriteString("\n\nINFORMATION ALREADY GATHERED (do NOT ask for these again):\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\nFocus on getting OTHER details you do NOT have yet. Vary your approach.\n")
	}

	b.WriteString("\n\nCRITICAL RULES:\n" +
		"- Stay in character ALWAYS. Never admit you are AI.\n" +
		"- Keep responses to 1-2 sentences.\n" +
		"- Never use parentheses, asterisks, or brackets for actions.\n" +
		"- Sound like a real person on a phone call.")
	return b.String()
}

var (
	parenRe    = regexp.MustCompile(`\([^)]*\)`)
	asteriskRe = regexp.MustCompile(`\*[^*]*\*`)
	bracketRe  = regexp.MustCompile(`\[[^\]]*\]`)
	dashAsideRe = regexp.MustCompile(`—[^—]*—`)
	stageCueRe = regexp.MustCompile(`(?i)\.\.\.?\s*(pauses?|sighs?|hesitates?|waits?|thinks?)`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// CleanReply strips stage directions the model sometimes emits despite the
// prompt, collapses whitespace and substitutes an apologetic line when
// nothing speakable is left.
func CleanReply(text string) string {
	text = parenRe.ReplaceAllString(text, "")
	text = asteriskRe.ReplaceAllString(text, "")
	text = bracketRe.ReplaceAllString(text, "")
	text = dashAsideRe.ReplaceAllString(text, "")
	text = stageCueRe.ReplaceAllString(text, "...")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	if text == "" {
		return fallbackLine
	}
	return text
}
