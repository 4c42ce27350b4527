package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a synthesis request before the speaker falls
// back to the secondary path.
const DefaultRequestTimeout = 5 * time.Second

// EdgeClient is the primary synthesis path: an edge-tts bridge service that
// accepts {text, voice} and streams back an MP3 clip. Voice identifiers are
// neural voice names like "en-US-JennyNeural".
type EdgeClient struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

type edgeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate,omitempty"`
}

// NewEdgeClient points at an edge-tts bridge base URL (e.g. http://localhost:5500).
func NewEdgeClient(baseURL string) *EdgeClient {
	return &EdgeClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{},
		Timeout:    DefaultRequestTimeout,
	}
}

func (e *EdgeClient) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if e.BaseURL == "" {
		return nil, fmt.Errorf("edge tts: base url missing")
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, _ := json.Marshal(edgeRequest{Text: text, Voice: voice, Rate: "-5%"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL+"/api/tts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("edge tts request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("edge tts status=%d body=%s", resp.StatusCode, string(b))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edge tts read: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("edge tts: empty audio")
	}
	return audio, nil
}
