package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/SPY-Github22/Shining-Zenith/internal/agent"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
	"github.com/SPY-Github22/Shining-Zenith/internal/transcript"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// voiceEvent is one server→client frame on the voice socket.
type voiceEvent struct {
	Type      string `json:"type"` // "start", "reply", "error"
	SessionID string `json:"sessionId,omitempty"`
	Text      string `json:"text,omitempty"`
	Voice     string `json:"voice,omitempty"`
	Level     string `json:"level,omitempty"`
	ScamType  string `json:"scamType,omitempty"`
	Error     string `json:"error,omitempty"`
}

// voice upgrades to a websocket call: the client streams 16kHz mono PCM as
// binary frames; the server feeds them through live transcription into the
// turn cycle and pushes each persona reply back as a JSON frame. The client
// renders audio itself via /api/tts. Closing the socket ends and archives
// the session.
func (h Handlers) voice(c echo.Context) error {
	if h.Transcripts == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "voice transcription not configured"})
	}

	conn, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil // Upgrade already wrote the error response
	}
	defer func() { _ = conn.Close() }()

	p, ok := persona.Get(persona.ID(c.QueryParam("persona")))
	if !ok {
		p = persona.Default()
	}

	s, err := h.Manager.Create(p)
	if err != nil {
		h.Log.WithError(err).Error("failed to start voice session")
		return nil
	}
	defer func() {
		// the request context is gone once the socket drops; archive anyway
		if _, err := h.Manager.End(context.Background(), s.ID); err != nil {
			h.Log.WithError(err).WithField("session", s.ID).Warn("voice session teardown")
		}
	}()

	// websocket writes are not concurrency-safe; replies arrive from the
	// orchestrator's goroutines while the read loop owns the connection
	var writeMu sync.Mutex
	writeEvent := func(ev voiceEvent) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(ev); err != nil {
			h.Log.WithError(err).Debug("voice socket write failed")
		}
	}

	s.SetNotify(func(result agent.TurnResult) {
		writeEvent(voiceEvent{
			Type:      "reply",
			SessionID: s.ID,
			Text:      result.Reply,
			Voice:     p.Voice,
			Level:     result.Level,
			ScamType:  result.ScamType,
		})
	})

	src := h.Transcripts()
	if err := s.AttachTranscript(src); err != nil {
		h.Log.WithError(err).Error("failed to attach transcription")
		writeEvent(voiceEvent{Type: "error", Error: "transcription unavailable"})
		return nil
	}
	defer func() { _ = src.Close() }()

	writeEvent(voiceEvent{Type: "start", SessionID: s.ID, Text: p.Greeting, Voice: p.Voice})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := src.SendAudio(data); err != nil {
			h.Log.WithError(err).Debug("dropping audio frame")
		}
	}
}

// NewAssemblyAITranscripts returns the production transcript factory.
func NewAssemblyAITranscripts(apiKey string) func() transcript.Stream {
	return func() transcript.Stream {
		return transcript.NewAssemblyAIStream(apiKey, nil)
	}
}
