// Package api exposes the honeypot over HTTP: the text chat loop, speech
// synthesis for the browser client, and the session archive.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/agent"
	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
	"github.com/SPY-Github22/Shining-Zenith/internal/speech"
	"github.com/SPY-Github22/Shining-Zenith/internal/transcript"
)

// ArchiveStore is the archive surface the API reads and prunes. Save goes
// through the session manager; the API only lists, fetches and deletes.
type ArchiveStore interface {
	Get(ctx context.Context, id string) (*call.Session, error)
	List(ctx context.Context) ([]call.Session, error)
	Delete(ctx context.Context, id string) error
	TotalDuration(ctx context.Context) (time.Duration, error)
}

type Handlers struct {
	Manager *agent.Manager
	Archive ArchiveStore
	Speech  speech.Synthesizer
	// Transcripts builds a fresh speech-to-text stream per voice call; nil
	// disables the voice endpoint.
	Transcripts func() transcript.Stream
	Log         *logrus.Entry
}

func NewHandlers(m *agent.Manager, store ArchiveStore, synth speech.Synthesizer, log *logrus.Entry) Handlers {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return Handlers{Manager: m, Archive: store, Speech: synth, Log: log}
}

// WithTranscripts enables the voice endpoint.
func (h Handlers) WithTranscripts(f func() transcript.Stream) Handlers {
	h.Transcripts = f
	return h
}

func (h Handlers) Register(e *echo.Echo) {
	e.GET("/api/health", h.health)
	e.GET("/api/voice", h.voice)
	e.GET("/api/personas", h.personas)
	e.POST("/api/chat", h.chat)
	e.POST("/api/tts", h.tts)
	e.POST("/api/sessions", h.endSession)
	e.GET("/api/sessions", h.listSessions)
	e.GET("/api/conversation/:id", h.getConversation)
	e.DELETE("/api/conversation/:id", h.deleteConversation)
}

func (h Handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type personaView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Description string `json:"description"`
	Voice       string `json:"voice"`
	Greeting    string `json:"greeting"`
}

func (h Handlers) personas(c echo.Context) error {
	all := persona.All()
	views := make([]personaView, 0, len(all))
	for _, p := range all {
		views = append(views, personaView{
			ID:          string(p.ID),
			Name:        p.Name,
			Age:         p.Age,
			Description: p.Description,
			Voice:       p.Voice,
			Greeting:    p.Greeting,
		})
	}
	return c.JSON(http.StatusOK, views)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Persona   string `json:"persona"`
}

type chatResponse struct {
	SessionID       string       `json:"sessionId"`
	Response        string       `json:"response"`
	ExtractedInfo   intel.Record `json:"extractedInfo"`
	ScamType        string       `json:"scamType"`
	EscalationLevel string       `json:"escalationLevel"`
	Persona         string       `json:"persona"`
	Voice           string       `json:"voice"`
}

func (h Handlers) chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	p, ok := persona.Get(persona.ID(req.Persona))
	if !ok {
		p = persona.Default()
	}

	var s *agent.Session
	var err error
	if req.SessionID == "" {
		s, err = h.Manager.Create(p)
	} else {
		s, err = h.Manager.GetOrCreate(req.SessionID, p)
	}
	if err != nil {
		h.Log.WithError(err).Error("failed to resolve session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to start session"})
	}

	result, err := s.ProcessTurn(c.Request().Context(), req.Message)
	if err != nil {
		h.Log.WithError(err).WithField("session", s.ID).Warn("turn failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "reply generation failed"})
	}

	return c.JSON(http.StatusOK, chatResponse{
		SessionID:       s.ID,
		Response:        result.Reply,
		ExtractedInfo:   result.Record,
		ScamType:        result.ScamType,
		EscalationLevel: result.Level,
		Persona:         p.Name,
		Voice:           p.Voice,
	})
}

type ttsRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (h Handlers) tts(c echo.Context) error {
	var req ttsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "text is required"})
	}
	if h.Speech == nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "no speech backend configured"})
	}
	audio, err := h.Speech.Synthesize(c.Request().Context(), req.Text, req.Voice)
	if err != nil {
		h.Log.WithError(err).Warn("speech synthesis failed")
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "speech synthesis failed"})
	}
	return c.Blob(http.StatusOK, "audio/mpeg", audio)
}

type endSessionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h Handlers) endSession(c echo.Context) error {
	var req endSessionRequest
	if err := c.Bind(&req); err != nil || req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
	}
	sess, err := h.Manager.End(c.Request().Context(), req.SessionID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, sess)
}

type sessionsResponse struct {
	Sessions        []call.Session `json:"sessions"`
	TotalDurationMS int64          `json:"totalDurationMs"`
}

func (h Handlers) listSessions(c echo.Context) error {
	ctx := c.Request().Context()
	sessions, err := h.Archive.List(ctx)
	if err != nil {
		h.Log.WithError(err).Error("failed to list sessions")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list sessions"})
	}
	total, err := h.Archive.TotalDuration(ctx)
	if err != nil {
		h.Log.WithError(err).Error("failed to sum session durations")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list sessions"})
	}
	if sessions == nil {
		sessions = []call.Session{}
	}
	return c.JSON(http.StatusOK, sessionsResponse{Sessions: sessions, TotalDurationMS: total.Milliseconds()})
}

func (h Handlers) getConversation(c echo.Context) error {
	id := c.Param("id")
	if s, ok := h.Manager.Get(id); ok {
		return c.JSON(http.StatusOK, map[string]any{
			"id":            s.ID,
			"persona":       string(s.Persona.ID),
			"state":         s.State().String(),
			"transcript":    s.Turns(),
			"extractedInfo": s.Record(),
			"scamType":      s.ScamType(),
		})
	}
	sess, err := h.Archive.Get(c.Request().Context(), id)
	if err != nil {
		h.Log.WithError(err).Error("failed to load session")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
	}
	if sess == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such conversation"})
	}
	return c.JSON(http.StatusOK, sess)
}

func (h Handlers) deleteConversation(c echo.Context) error {
	id := c.Param("id")
	if _, ok := h.Manager.Get(id); ok {
		h.Manager.Discard(id)
		return c.NoContent(http.StatusNoContent)
	}
	if err := h.Archive.Delete(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no such conversation"})
	}
	return c.NoContent(http.StatusNoContent)
}
