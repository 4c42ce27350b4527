package agent

import (
	"context"
	"time"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/dialogue"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
)

// State is the orchestrator's position in the turn cycle.
type State int

const (
	StateIdle State = iota
	StateListening
	StateTurnReady
	StateDispatching
	StateSpeaking
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateTurnReady:
		return "turn-ready"
	case StateDispatching:
		return "dispatching"
	case StateSpeaking:
		return "speaking"
	case StateEnded:
		return "ended"
	}
	return "idle"
}

// Dialogue generates the next persona reply for a conversation.
type Dialogue interface {
	Reply(ctx context.Context, req dialogue.Request) (dialogue.Reply, error)
}

// Analyzer runs the extraction channels, merge and classification.
type Analyzer interface {
	Analyze(ctx context.Context, callerTexts []string, current intel.Record) (intel.Record, string)
}

// Speech synthesizes reply audio for the persona's voice.
type Speech interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Player delivers synthesized audio and blocks until playback finishes or
// the context is cancelled.
type Player interface {
	Play(ctx context.Context, audio []byte) error
}

// Archive accepts the frozen record of a completed session.
type Archive interface {
	Save(ctx context.Context, sess call.Session) error
}

// TranscriptSource is the push speech-to-text collaborator a voice session
// attaches to.
type TranscriptSource interface {
	Connect() error
	SetObserver(obs func(final, interim string))
	Close() error
}

// Options tune the orchestrator's timers and retry policy.
type Options struct {
	// SilenceWindow is handed to the turn detector; zero means its default.
	SilenceWindow time.Duration
	// SettleDelay is the pause after playback before listening resumes, to
	// avoid capturing the tail of the persona's own voice.
	SettleDelay time.Duration
	// DialogueTimeout bounds each dialogue-service attempt.
	DialogueTimeout time.Duration
	// DialogueAttempts is the bounded retry budget for one turn.
	DialogueAttempts int
	// AnalyzeTimeout bounds the post-reply extraction pass.
	AnalyzeTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.SettleDelay == 0 {
		o.SettleDelay = 300 * time.Millisecond
	}
	if o.DialogueTimeout <= 0 {
		o.DialogueTimeout = 20 * time.Second
	}
	if o.DialogueAttempts <= 0 {
		o.DialogueAttempts = 2
	}
	if o.AnalyzeTimeout <= 0 {
		o.AnalyzeTimeout = 15 * time.Second
	}
	return o
}

// Deps bundles the session collaborators. Speech, Player and Archive may be
// nil; the session degrades gracefully without them.
type Deps struct {
	Dialogue Dialogue
	Analyzer Analyzer
	Speech   Speech
	Player   Player
	Archive  Archive
}

// TurnResult is what a completed text-mode turn hands back to the API layer.
type TurnResult struct {
	Reply    string
	Level    string
	ScamType string
	Record   intel.Record
}
