// Package agent contains the turn orchestrator: the per-call state machine
// that ties turn detection, the dialogue service, the extraction channels
// and speech output together. One Session owns one honeypot call.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/dialogue"
	"github.com/SPY-Github22/Shining-Zenith/internal/escalation"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
	"github.com/SPY-Github22/Shining-Zenith/internal/turndetect"
)

// dialogueFailureNotice is the in-band turn appended when the dialogue
// service stays unreachable after the retry budget. The caller never hears
// it; the system simply resumes listening.
const dialogueFailureNotice = "Connection error. Resumed listening without a reply."

// Session orchestrates one call. All state transitions happen under mu;
// the speaking and busy flags are the mutual-exclusion gates read by the
// turn detector.
type Session struct {
	ID      string
	Persona persona.Persona

	deps deps
	opts Options
	log  *logrus.Entry

	detector *turndetect.Detector

	// ctx spans the session; End cancels it, which tears down playback and
	// any pending timers.
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	notify     func(TurnResult)
	state      State
	turns      []call.Turn
	record     intel.Record
	scamType   string
	level      escalation.Level
	busy       bool
	playCancel context.CancelFunc
	startedAt  time.Time
	frozen     *call.Session
}

type deps struct {
	dialogue Dialogue
	analyzer Analyzer
	speech   Speech
	player   Player
	archive  Archive
}

// NewSession builds a session in the idle state.
func NewSession(id string, p persona.Persona, d Deps, opts Options, log *logrus.Entry) *Session {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:       id,
		Persona:  p,
		deps:     deps{dialogue: d.Dialogue, analyzer: d.Analyzer, speech: d.Speech, player: d.Player, archive: d.Archive},
		opts:     opts.withDefaults(),
		log:      log.WithFields(logrus.Fields{"component": "agent", "session": id}),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
		record:   intel.NewRecord(),
		scamType: intel.ScamTypeUnknown,
		level:    escalation.Cooperative,
	}
	s.detector = turndetect.New(s.opts.SilenceWindow, s.handleTurnReady)
	return s
}

// Detector exposes the turn detector so a transcript source can feed it.
func (s *Session) Detector() *turndetect.Detector { return s.detector }

// AttachTranscript wires a speech-to-text stream into the detector and
// connects it.
func (s *Session) AttachTranscript(src TranscriptSource) error {
	src.SetObserver(s.detector.Observe)
	return src.Connect()
}

// SetNotify registers a callback invoked after every voice-mode persona
// reply. The callback runs on its own goroutine.
func (s *Session) SetNotify(fn func(TurnResult)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Start moves idle -> listening and issues the persona's scripted greeting
// as the first persona turn, entering speaking for its playback.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("session %s already started", s.ID)
	}
	s.state = StateListening
	s.startedAt = time.Now()
	greeting := s.Persona.Greeting
	s.turns = append(s.turns, call.NewTurn(call.RolePersona, greeting))
	s.mu.Unlock()

	s.log.WithField("persona", s.Persona.ID).Info("session started")
	go s.speak(greeting)
	return nil
}

// handleTurnReady is the detector callback. It runs the full voice turn
// cycle on the detector's timer goroutine; extraction happens in the
// background after the reply is dispatched so caller-visible latency only
// depends on the dialogue round trip.
func (s *Session) handleTurnReady(text string) {
	if err := s.acceptCallerTurn(text, false); err != nil {
		s.log.WithError(err).Warn("rejected turn-ready event")
		return
	}
	reply, err := s.dispatch()
	if err != nil {
		return
	}
	callerTexts, base := s.commitReply(reply)
	if callerTexts == nil {
		return
	}
	go s.analyze(callerTexts, base)

	s.mu.Lock()
	notify := s.notify
	result := TurnResult{
		Reply:    reply.Text,
		Level:    s.level.String(),
		ScamType: s.scamType,
		Record:   s.record.Clone(),
	}
	s.mu.Unlock()
	if notify != nil {
		go notify(result)
	}

	s.speak(reply.Text)
}

// ProcessTurn is the text-mode entry used by the HTTP API: same cycle, but
// extraction runs synchronously so the response can carry the enriched
// record, and there is no speech playback (the client renders audio itself).
func (s *Session) ProcessTurn(ctx context.Context, text string) (TurnResult, error) {
	if err := s.acceptCallerTurn(text, true); err != nil {
		return TurnResult{}, err
	}
	reply, err := s.dispatch()
	if err != nil {
		return TurnResult{}, err
	}
	callerTexts, base := s.commitReply(reply)
	if callerTexts != nil {
		s.analyze(callerTexts, base)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEnded {
		s.state = StateListening
		s.busy = false
	}
	s.detector.SetBusy(false)
	return TurnResult{
		Reply:    reply.Text,
		Level:    s.level.String(),
		ScamType: s.scamType,
		Record:   s.record.Clone(),
	}, nil
}

// acceptCallerTurn appends the caller turn and raises the busy flag,
// suspending further detection. Empty text is an invariant violation and is
// rejected with no state mutation.
func (s *Session) acceptCallerTurn(text string, allowInterrupt bool) error {
	if text == "" {
		return fmt.Errorf("empty caller text")
	}
	s.mu.Lock()
	switch {
	case s.state == StateEnded:
		s.mu.Unlock()
		return fmt.Errorf("session ended")
	case s.busy:
		s.mu.Unlock()
		return fmt.Errorf("previous turn still in flight")
	case s.state == StateSpeaking && !allowInterrupt:
		s.mu.Unlock()
		return fmt.Errorf("turn fired while speaking")
	}
	cancelPlay := s.playCancel
	s.state = StateTurnReady
	s.turns = append(s.turns, call.NewTurn(call.RoleCaller, text))
	s.busy = true
	s.state = StateDispatching
	s.mu.Unlock()

	if cancelPlay != nil && allowInterrupt {
		cancelPlay()
	}
	s.detector.SetBusy(true)
	return nil
}

// dispatch calls the dialogue service with a bounded retry budget. On
// exhaustion it appends exactly one system-notice turn, clears the busy
// flag and returns the session to listening with no spoken reply.
func (s *Session) dispatch() (dialogue.Reply, error) {
	s.mu.Lock()
	req := dialogue.Request{
		SessionID: s.ID,
		Persona:   s.Persona,
		Turns:     append([]call.Turn(nil), s.turns...),
		Known:     s.record.Clone(),
		ScamType:  s.scamType,
	}
	s.mu.Unlock()

	var reply dialogue.Reply
	var err error
	for attempt := 1; attempt <= s.opts.DialogueAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(s.ctx, s.opts.DialogueTimeout)
		reply, err = s.deps.dialogue.Reply(ctx, req)
		cancel()
		if err == nil {
			return reply, nil
		}
		s.log.WithError(err).WithField("attempt", attempt).Warn("dialogue service call failed")
	}

	s.mu.Lock()
	if s.state != StateEnded {
		s.turns = append(s.turns, call.NewTurn(call.RoleNotice, dialogueFailureNotice))
		s.busy = false
		s.state = StateListening
	}
	s.mu.Unlock()
	s.detector.SetBusy(false)
	return dialogue.Reply{}, fmt.Errorf("dialogue service unavailable: %w", err)
}

// commitReply appends the persona turn and snapshots what the analyzer
// needs. A nil return means the session ended while the call was in flight
// and the result was discarded.
func (s *Session) commitReply(reply dialogue.Reply) ([]string, intel.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return nil, nil
	}
	s.turns = append(s.turns, call.NewTurn(call.RolePersona, reply.Text))
	s.level = reply.Level
	return call.CallerTexts(s.turns), s.record.Clone()
}

// analyze runs both extraction channels plus classification and folds the
// result into the session record. Findings are only ever added.
func (s *Session) analyze(callerTexts []string, base intel.Record) {
	if s.deps.analyzer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.opts.AnalyzeTimeout)
	defer cancel()
	record, scamType := s.deps.analyzer.Analyze(ctx, callerTexts, base)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnded {
		return
	}
	s.record = intel.Merge(s.record, record)
	s.scamType = scamType
}

// speak synthesizes and plays the reply, then resumes listening after the
// settle delay. Every failure path still ends in listening; the session
// never deadlocks in speaking.
func (s *Session) speak(text string) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateSpeaking
	s.busy = false
	playCtx, cancelPlay := context.WithCancel(s.ctx)
	s.playCancel = cancelPlay
	s.mu.Unlock()
	s.detector.SetSpeaking(true)
	s.detector.SetBusy(false)
	defer cancelPlay()

	if s.deps.speech != nil {
		audio, err := s.deps.speech.Synthesize(playCtx, text, s.Persona.Voice)
		switch {
		case err != nil:
			s.log.WithError(err).Warn("speech synthesis failed, resuming listening")
		case s.deps.player != nil:
			if perr := s.deps.player.Play(playCtx, audio); perr != nil {
				s.log.WithError(perr).Warn("playback failed")
			}
		}
	}

	interrupted := playCtx.Err() != nil
	if !interrupted && s.opts.SettleDelay > 0 {
		t := time.NewTimer(s.opts.SettleDelay)
		select {
		case <-t.C:
		case <-s.ctx.Done():
			t.Stop()
		}
	}

	s.mu.Lock()
	if s.state == StateSpeaking {
		s.state = StateListening
		s.playCancel = nil
	}
	s.mu.Unlock()
	s.detector.Reset()
	s.detector.SetSpeaking(false)
}

// Interrupt aborts playback immediately and returns to listening without
// waiting for natural completion.
func (s *Session) Interrupt() {
	s.mu.Lock()
	cancelPlay := s.playCancel
	s.mu.Unlock()
	if cancelPlay != nil {
		cancelPlay()
	}
}

// End freezes the session from any state, cancels pending timers and
// playback, and hands the archival record to the store. Idempotent.
func (s *Session) End(ctx context.Context) (call.Session, error) {
	s.mu.Lock()
	if s.frozen != nil {
		frozen := *s.frozen
		s.mu.Unlock()
		return frozen, nil
	}
	endedAt := time.Now()
	startedAt := s.startedAt
	if startedAt.IsZero() {
		startedAt = endedAt
	}
	s.state = StateEnded
	frozen := call.Session{
		ID:        s.ID,
		PersonaID: string(s.Persona.ID),
		StartedAt: startedAt,
		EndedAt:   endedAt,
		Duration:  endedAt.Sub(startedAt),
		ScamType:  s.scamType,
		Intel:     s.record.Clone(),
		Turns:     append([]call.Turn(nil), s.turns...),
	}
	s.frozen = &frozen
	cancelPlay := s.playCancel
	s.mu.Unlock()

	s.cancel()
	if cancelPlay != nil {
		cancelPlay()
	}
	s.detector.Close()

	if s.deps.archive != nil {
		if err := s.deps.archive.Save(ctx, frozen); err != nil {
			return frozen, fmt.Errorf("archive session: %w", err)
		}
	}
	s.log.WithField("duration", frozen.Duration).Info("session ended")
	return frozen, nil
}

// Abort tears the session down without archiving. Used when the caller
// discards a conversation rather than ending it.
func (s *Session) Abort() {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateEnded
	cancelPlay := s.playCancel
	s.mu.Unlock()

	s.cancel()
	if cancelPlay != nil {
		cancelPlay()
	}
	s.detector.Close()
}

// State reports the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the conversation so far.
func (s *Session) Turns() []call.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]call.Turn(nil), s.turns...)
}

// Record returns a copy of the current intelligence record.
func (s *Session) Record() intel.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone()
}

// ScamType returns the latest classification.
func (s *Session) ScamType() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scamType
}

// Level returns the escalation level reached so far.
func (s *Session) Level() escalation.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}
