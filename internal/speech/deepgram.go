package speech

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/speak/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces/v1"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/speak"
)

// DeepgramClient is the secondary synthesis path. It speaks through the
// Deepgram aura websocket and buffers the streamed PCM into one clip. The
// Edge-style voice identifier is ignored; the clip uses the configured aura
// model.
type DeepgramClient struct {
	apiKey     string
	model      string
	sampleRate int
	encoding   string
}

func NewDeepgramClient(apiKey, model string) *DeepgramClient {
	if model == "" {
		model = "aura-2-thalia-en"
	}
	return &DeepgramClient{apiKey: apiKey, model: model, sampleRate: 48000, encoding: "linear16"}
}

func (d *DeepgramClient) Synthesize(ctx context.Context, text, _ string) ([]byte, error) {
	if d.apiKey == "" {
		return nil, fmt.Errorf("deepgram: API key missing")
	}
	if text == "" {
		return nil, fmt.Errorf("deepgram: empty text")
	}

	options := &clientinterfaces.WSSpeakOptions{
		Model:      d.model,
		Encoding:   d.encoding,
		SampleRate: d.sampleRate,
	}

	var (
		buf          bytes.Buffer
		bufMu        sync.Mutex
		lastRecvUnix int64
		seenAudio    int32
	)

	cb := &speakCallback{onBinary: func(data []byte) error {
		if len(data) == 0 {
			return nil
		}
		atomic.StoreInt64(&lastRecvUnix, time.Now().UnixNano())
		atomic.StoreInt32(&seenAudio, 1)
		bufMu.Lock()
		buf.Write(data)
		bufMu.Unlock()
		return nil
	}}

	dg, err := speak.NewWSUsingCallback(ctx, d.apiKey, &clientinterfaces.ClientOptions{}, options, cb)
	if err != nil {
		return nil, fmt.Errorf("deepgram: create ws client: %w", err)
	}

	stopped := false
	stopClient := func() {
		if !stopped {
			stopped = true
			dg.Stop()
		}
	}
	defer stopClient()

	if ok := dg.Connect(); !ok {
		return nil, fmt.Errorf("deepgram: connect failed")
	}
	if err := dg.SpeakWithText(text); err != nil {
		return nil, fmt.Errorf("deepgram: speak text: %w", err)
	}
	if err := dg.Flush(); err != nil {
		return nil, fmt.Errorf("deepgram: flush: %w", err)
	}

	// the websocket has no explicit end-of-clip signal; stop after the
	// stream goes idle or the overall deadline passes
	idleWindow := 400 * time.Millisecond
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.Now().Add(12 * time.Second)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			if atomic.LoadInt32(&seenAudio) == 1 {
				last := time.Unix(0, atomic.LoadInt64(&lastRecvUnix))
				if time.Since(last) > idleWindow {
					stopClient()
					bufMu.Lock()
					defer bufMu.Unlock()
					if buf.Len() == 0 {
						return nil, fmt.Errorf("deepgram: empty audio")
					}
					return buf.Bytes(), nil
				}
			}
			if time.Now().After(deadline) {
				stopClient()
				bufMu.Lock()
				defer bufMu.Unlock()
				if buf.Len() == 0 {
					return nil, fmt.Errorf("deepgram: timed out with no audio")
				}
				return buf.Bytes(), nil
			}
		}
	}
}

type speakCallback struct{ onBinary func([]byte) error }

func (s *speakCallback) Open(*msginterfaces.OpenResponse) error         { return nil }
func (s *speakCallback) Metadata(*msginterfaces.MetadataResponse) error { return nil }
func (s *speakCallback) Flush(*msginterfaces.FlushedResponse) error     { return nil }
func (s *speakCallback) Clear(*msginterfaces.ClearedResponse) error     { return nil }
func (s *speakCallback) Close(*msginterfaces.CloseResponse) error       { return nil }
func (s *speakCallback) Warning(*msginterfaces.WarningResponse) error   { return nil }
func (s *speakCallback) Error(*msginterfaces.ErrorResponse) error       { return nil }
func (s *speakCallback) UnhandledEvent([]byte) error                    { return nil }
func (s *speakCallback) Binary(byMsg []byte) error {
	if s.onBinary != nil {
		return s.onBinary(byMsg)
	}
	return nil
}
