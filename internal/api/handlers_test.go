package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SPY-Github22/Shining-Zenith/internal/agent"
	"github.com/SPY-Github22/Shining-Zenith/internal/call"
	"github.com/SPY-Github22/Shining-Zenith/internal/dialogue"
	"github.com/SPY-Github22/Shining-Zenith/internal/escalation"
	"github.com/SPY-Github22/Shining-Zenith/internal/httpserver"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/persona"
)

type stubDialogue struct{}

func (stubDialogue) Reply(ctx context.Context, req dialogue.Request) (dialogue.Reply, error) {
	return dialogue.Reply{
		Text:  "Oh hello dear, who is this?",
		Level: escalation.ForCallerTurns(call.CallerCount(req.Turns)),
	}, nil
}

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]call.Session
	deleted  []string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]call.Session{}}
}

func (m *memoryStore) Save(ctx context.Context, sess call.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*call.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (m *memoryStore) List(ctx context.Context) ([]call.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []call.Session
	for _, sess := range m.sessions {
		out = append(out, sess)
	}
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.New("not found")
	}
	delete(m.sessions, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memoryStore) TotalDuration(ctx context.Context) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, sess := range m.sessions {
		total += sess.Duration
	}
	return total, nil
}

func (m *memoryStore) load(id string) (call.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

func (m *memoryStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type stubSynth struct {
	audio []byte
	err   error
}

func (s stubSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return s.audio, s.err
}

func newTestServer(t *testing.T, store *memoryStore, synth stubSynth) *echo.Echo {
	t.Helper()
	manager := agent.NewManager(agent.Deps{
		Dialogue: stubDialogue{},
		Analyzer: intel.NewAnalyzer(nil, nil),
		Archive:  store,
	}, agent.Options{SettleDelay: -1}, nil)
	e := httpserver.New()
	NewHandlers(manager, store, synth, nil).Register(e)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPersonas(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodGet, "/api/personas", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []personaView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, len(persona.All()))
	assert.Equal(t, "grandma", views[0].ID)
	assert.NotEmpty(t, views[0].Voice)
	assert.NotEmpty(t, views[0].Greeting)
}

func TestChatRoundTrip(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodPost, "/api/chat",
		`{"message": "Hi, this is Rajesh from SBI, call me at 9876543210", "persona": "grandma"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, "Oh hello dear, who is this?", resp.Response)
	assert.Equal(t, "cooperative", resp.EscalationLevel)
	assert.Contains(t, resp.ExtractedInfo.Values(intel.Names), "Rajesh")
	assert.Contains(t, resp.ExtractedInfo.Values(intel.BankNames), "SBI")
	assert.Equal(t, "Margaret", resp.Persona)

	// a second message with the returned id lands in the same session
	rec2 := doJSON(e, http.MethodPost, "/api/chat",
		`{"sessionId": "`+resp.SessionID+`", "message": "my upi is fraud@paytm", "persona": "grandma"}`)
	require.Equal(t, http.StatusOK, rec2.Code)
	var resp2 chatResponse
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &resp2))
	assert.Equal(t, resp.SessionID, resp2.SessionID)
	// monotonic: earlier findings survive the new turn
	assert.Contains(t, resp2.ExtractedInfo.Values(intel.Names), "Rajesh")
	assert.Contains(t, resp2.ExtractedInfo.Values(intel.UPIIDs), "fraud@paytm")
}

func TestChatEmptyMessage(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message": "   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnknownPersonaFallsBack(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message": "hello there", "persona": "nonexistent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, persona.Default().Name, resp.Persona)
}

func TestTTS(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{audio: []byte("mp3-bytes")})
	rec := doJSON(e, http.MethodPost, "/api/tts", `{"text": "hello", "voice": "en-US-JennyNeural"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mp3-bytes", rec.Body.String())
	assert.Equal(t, "audio/mpeg", rec.Header().Get(echo.HeaderContentType))
}

func TestTTSFailures(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{err: errors.New("down")})
	rec := doJSON(e, http.MethodPost, "/api/tts", `{"text": "hello"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/tts", `{"text": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	store := newMemoryStore()
	e := newTestServer(t, store, stubSynth{})

	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message": "transfer money now urgent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// live conversation is visible while the session runs
	rec = doJSON(e, http.MethodGet, "/api/conversation/"+resp.SessionID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// end it: the session moves to the archive
	rec = doJSON(e, http.MethodPost, "/api/sessions", `{"sessionId": "`+resp.SessionID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, archived := store.load(resp.SessionID)
	require.True(t, archived)

	// listing includes it with a duration total
	rec = doJSON(e, http.MethodGet, "/api/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list sessionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, resp.SessionID, list.Sessions[0].ID)

	// archived conversations stay readable, then delete
	rec = doJSON(e, http.MethodGet, "/api/conversation/"+resp.SessionID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(e, http.MethodDelete, "/api/conversation/"+resp.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(e, http.MethodGet, "/api/conversation/"+resp.SessionID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEndUnknownSession(t *testing.T) {
	e := newTestServer(t, newMemoryStore(), stubSynth{})
	rec := doJSON(e, http.MethodPost, "/api/sessions", `{"sessionId": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteLiveConversationDiscards(t *testing.T) {
	store := newMemoryStore()
	e := newTestServer(t, store, stubSynth{})

	rec := doJSON(e, http.MethodPost, "/api/chat", `{"message": "hello there friend"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = doJSON(e, http.MethodDelete, "/api/conversation/"+resp.SessionID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, store.size(), "discard must not archive")
}
