// Package transcript streams caller audio to a speech-to-text service and
// exposes the live (interim, final) transcript pair as a push source. The
// turn detector reads only the latest values; there is no backpressure.
package transcript

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// promoteAfter is the inactivity buffer before running interim text is
// committed to the final transcript. The turn detector layers its own,
// longer silence window on top of this.
const promoteAfter = 1200 * time.Millisecond

// Observer receives the latest transcript pair after every change.
type Observer = func(final, interim string)

// Stream is the minimal speech-to-text contract the orchestrator needs.
type Stream interface {
	Connect() error
	SendAudio(pcm []byte) error
	SetObserver(obs Observer)
	Close() error
}

// AssemblyAIStream implements Stream over the AssemblyAI v3 realtime
// websocket. Audio is 16kHz little-endian mono PCM.
type AssemblyAIStream struct {
	apiKey    string
	log       *logrus.Entry
	conn      *websocket.Conn
	audioData chan []byte
	stopCh    chan struct{}
	mu        sync.RWMutex
	connected bool

	accMu        sync.Mutex
	final        string
	interim      string
	observer     Observer
	promoteTimer *time.Timer
}

// assemblyai message frames
type beginMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

type turnMessage struct {
	Type          string `json:"type"`
	Transcript    string `json:"transcript"`
	TurnFormatted bool   `json:"turn_is_formatted"`
}

type terminationMessage struct {
	Type                   string  `json:"type"`
	AudioDurationSeconds   float64 `json:"audio_duration_seconds"`
	SessionDurationSeconds float64 `json:"session_duration_seconds"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// NewAssemblyAIStream creates a disconnected stream.
func NewAssemblyAIStream(apiKey string, log *logrus.Entry) *AssemblyAIStream {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &AssemblyAIStream{
		apiKey:    apiKey,
		log:       log.WithField("component", "transcript"),
		audioData: make(chan []byte, 1000),
		stopCh:    make(chan struct{}),
	}
}

// SetObserver registers the transcript listener. Must be called before
// Connect; the observer runs on the stream's goroutines.
func (s *AssemblyAIStream) SetObserver(obs Observer) {
	s.accMu.Lock()
	s.observer = obs
	s.accMu.Unlock()
}

// Connect dials the streaming endpoint and starts the reader/writer loops.
func (s *AssemblyAIStream) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}
	if s.apiKey == "" {
		return fmt.Errorf("assemblyai api key is empty")
	}

	params := url.Values{}
	params.Set("sample_rate", "16000")
	params.Set("format_turns", "false")
	params.Set("encoding", "pcm_s16le")
	wsURL := fmt.Sprintf("wss://streaming.assemblyai.com/v3/ws?%s", params.Encode())

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, map[string][]string{"Authorization": {s.apiKey}})
	if err != nil {
		if resp != nil {
			s.log.WithField("status", resp.StatusCode).Error("assemblyai connection refused")
		}
		return fmt.Errorf("failed to connect to assemblyai: %w", err)
	}

	s.conn = conn
	s.connected = true
	go s.handleMessages()
	go s.sendAudioData()
	s.log.Info("connected to assemblyai streaming service")
	return nil
}

// SendAudio queues a PCM chunk; full buffers drop rather than block.
func (s *AssemblyAIStream) SendAudio(pcm []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.connected {
		return fmt.Errorf("not connected to assemblyai")
	}
	select {
	case s.audioData <- pcm:
	default:
		s.log.Warn("audio buffer full, dropping packet")
	}
	return nil
}

// Close terminates the session and flushes any pending interim text.
func (s *AssemblyAIStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil
	}
	close(s.stopCh)
	s.accMu.Lock()
	if s.promoteTimer != nil {
		s.promoteTimer.Stop()
		s.promoteTimer = nil
	}
	s.accMu.Unlock()
	if s.conn != nil {
		_ = s.conn.WriteJSON(map[string]string{"type": "Terminate"})
		_ = s.conn.Close()
	}
	s.connected = false
	s.conn = nil
	s.promoteInterim()
	s.log.Info("assemblyai connection closed")
	return nil
}

func (s *AssemblyAIStream) handleMessages() {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("recovered in handleMessages")
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		default:
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn == nil {
				return
			}
			_, message, err := conn.ReadMessage()
			if err != nil {
				s.log.WithError(err).Debug("websocket read ended")
				return
			}
			s.processMessage(message)
		}
	}
}

func (s *AssemblyAIStream) processMessage(message []byte) {
	var baseMsg map[string]interface{}
	if err := json.Unmarshal(message, &baseMsg); err != nil {
		s.log.WithError(err).Warn("unparseable stream message")
		return
	}
	msgType, ok := baseMsg["type"].(string)
	if !ok {
		s.log.Warn("stream message missing type field")
		return
	}
	switch msgType {
	case "Begin":
		var msg beginMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		s.log.WithField("session", msg.ID).Info("assemblyai session began")
	case "Turn":
		var msg turnMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		if msg.Transcript != "" {
			s.onInterim(msg.Transcript)
		}
	case "Termination":
		var msg terminationMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		s.log.WithField("audio_seconds", msg.AudioDurationSeconds).Info("assemblyai session terminated")
		s.promoteInterim()
	case "Error":
		var msg errorMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			return
		}
		s.log.WithField("error", msg.Error).Error("assemblyai error")
	default:
		s.log.WithField("type", msgType).Debug("unknown stream message type")
	}
}

// onInterim records running transcript text and (re)arms the promotion
// timer; after promoteAfter of recognizer inactivity the interim text is
// appended to the final transcript.
func (s *AssemblyAIStream) onInterim(text string) {
	s.accMu.Lock()
	s.interim = text
	if s.promoteTimer == nil {
		s.promoteTimer = time.AfterFunc(promoteAfter, s.promoteInterim)
	} else {
		s.promoteTimer.Stop()
		s.promoteTimer.Reset(promoteAfter)
	}
	obs, final, interim := s.observer, s.final, s.interim
	s.accMu.Unlock()
	if obs != nil {
		obs(final, interim)
	}
}

// promoteInterim commits pending interim text into the final transcript.
func (s *AssemblyAIStream) promoteInterim() {
	s.accMu.Lock()
	pending := strings.TrimSpace(s.interim)
	if pending == "" {
		s.accMu.Unlock()
		return
	}
	s.final = strings.TrimSpace(s.final + " " + pending)
	s.interim = ""
	obs, final := s.observer, s.final
	s.accMu.Unlock()
	if obs != nil {
		obs(final, "")
	}
}

// ResetTranscript drops accumulated text after a turn has been consumed.
func (s *AssemblyAIStream) ResetTranscript() {
	s.accMu.Lock()
	s.final = ""
	s.interim = ""
	s.accMu.Unlock()
}

func (s *AssemblyAIStream) sendAudioData() {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("recovered in sendAudioData")
		}
	}()
	for {
		select {
		case <-s.stopCh:
			return
		case audioData, ok := <-s.audioData:
			if !ok {
				return
			}
			s.mu.RLock()
			conn := s.conn
			s.mu.RUnlock()
			if conn != nil {
				if err := conn.WriteMessage(websocket.BinaryMessage, audioData); err != nil {
					s.log.WithError(err).Error("failed to send audio data")
					return
				}
			}
		}
	}
}
