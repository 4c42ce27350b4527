package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/escalation"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
)

type fakeClient struct {
	reply   string
	err     error
	lastReq llm.Request
}

func (f *fakeClient) Chat(ctx context.Context, r llm.Request) (string, error) {
	f.lastReq = r
	return f.reply, f.err
}

func callerTurns(n int) []call.Turn {
	var turns []call.Turn
	for i := 0; i < n; i++ {
		turns = append(turns, call.NewTurn(call.RoleCaller, "caller line"))
		turns = append(turns, call.NewTurn(call.RolePersona, "persona line"))
	}
	return turns
}

func TestReplyUsesEscalationForTurnCount(t *testing.T) {
	client := &fakeClient{reply: "Oh dear, who is this?"}
	svc := NewService(client, nil)

	req := Request{Persona: persona.Default(), Turns: callerTurns(12), Known: intel.NewRecord()}
	reply, err := svc.Reply(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, escalation.Probing, reply.Level)
	assert.Equal(t, "Oh dear, who is this?", reply.Text)

	system := client.lastReq.Messages[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "employee ID")
}

func TestReplyNoClient(t *testing.T) {
	svc := NewService(nil, nil)
	_, err := svc.Reply(context.Background(), Request{Persona: persona.Default()})
	assert.Error(t, err)
}

func TestReplyPropagatesClientError(t *testing.T) {
	svc := NewService(&fakeClient{err: errors.New("down")}, nil)
	_, err := svc.Reply(context.Background(), Request{Persona: persona.Default()})
	assert.Error(t, err)
}

func TestHistoryMessagesDropNoticesAndWindow(t *testing.T) {
	turns := []call.Turn{
		call.NewTurn(call.RoleCaller, "hello"),
		call.NewTurn(call.RoleNotice, "Connection error."),
		call.NewTurn(call.RolePersona, "hi dear"),
	}
	msgs := historyMessages(turns)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)

	long := callerTurns(40)
	assert.Len(t, historyMessages(long), historyWindow)
}

func TestBuildSystemPromptSuppressionList(t *testing.T) {
	known := intel.NewRecord()
	known.Add(intel.Names, "Rajesh")
	known.Add(intel.EmployeeIDs, "EMP4521")

	prompt := BuildSystemPrompt(persona.Default(), escalation.Curious, known, "Bank/UPI Fraud")
	assert.Contains(t, prompt, "INFORMATION ALREADY GATHERED")
	assert.Contains(t, prompt, "Caller's name: Rajesh")
	assert.Contains(t, prompt, "Their employee ID: EMP4521")
	assert.Contains(t, prompt, "Detected scam type: Bank/UPI Fraud")
	assert.Contains(t, prompt, "CRITICAL RULES")
}

func TestBuildSystemPromptEmptyRecord(t *testing.T) {
	prompt := BuildSystemPrompt(persona.Default(), escalation.Cooperative, intel.NewRecord(), intel.ScamTypeUnknown)
	assert.NotContains(t, prompt, "INFORMATION ALREADY GATHERED")
	assert.True(t, strings.HasPrefix(prompt, persona.Default().Prompt))
}

func TestCleanReply(t *testing.T) {
	cases := map[string]string{
		"Hello dear (pauses nervously)":      "Hello dear",
		"*clears throat* Who is this?":       "Who is this?",
		"[sighs] My pension, you say?":       "My pension, you say?",
		"Well... pauses ...maybe":            "Well... ...maybe",
		"  spaced    out   reply  ":          "spaced out reply",
		"(entirely a stage direction)":       "I'm sorry, could you say that again?",
		"":                                   "I'm sorry, could you say that again?",
		"No directions here.":                "No directions here.",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanReply(in), "input %q", in)
	}
}
