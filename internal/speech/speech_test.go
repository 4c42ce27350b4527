package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type stubSynth struct {
	audio []byte
	err   error
	calls int
}

func (s *stubSynth) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	s.calls++
	return s.audio, s.err
}

func TestSpeakerPrimaryWins(t *testing.T) {
	primary := &stubSynth{audio: []byte("mp3")}
	fallback := &stubSynth{audio: []byte("pcm")}
	sp := NewSpeaker(primary, fallback, nil)

	audio, err := sp.Synthesize(context.Background(), "hello", "en-US-JennyNeural")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "mp3" {
		t.Fatalf("got %q", audio)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback called %d times", fallback.calls)
	}
}

func TestSpeakerFallbackEngages(t *testing.T) {
	primary := &stubSynth{err: errors.New("bridge down")}
	fallback := &stubSynth{audio: []byte("pcm")}
	sp := NewSpeaker(primary, fallback, nil)

	audio, err := sp.Synthesize(context.Background(), "hello", "voice")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "pcm" || primary.calls != 1 {
		t.Fatalf("audio=%q primary calls=%d", audio, primary.calls)
	}
}

func TestSpeakerAllPathsFail(t *testing.T) {
	sp := NewSpeaker(&stubSynth{err: errors.New("a")}, &stubSynth{err: errors.New("b")}, nil)
	if _, err := sp.Synthesize(context.Background(), "hello", "voice"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestSpeakerNoEngines(t *testing.T) {
	sp := NewSpeaker(nil, nil, nil)
	if _, err := sp.Synthesize(context.Background(), "hello", "voice"); err == nil {
		t.Fatalf("expected error with no engines")
	}
}

func TestSpeakerEmptyText(t *testing.T) {
	sp := NewSpeaker(&stubSynth{audio: []byte("x")}, nil, nil)
	if _, err := sp.Synthesize(context.Background(), "", "voice"); err == nil {
		t.Fatalf("expected error on empty text")
	}
}

func TestEdgeClientRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tts" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte("audio-bytes"))
	}))
	defer srv.Close()

	c := NewEdgeClient(srv.URL)
	audio, err := c.Synthesize(context.Background(), "hello", "en-US-JennyNeural")
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "audio-bytes" {
		t.Fatalf("got %q", audio)
	}
}

func TestEdgeClientErrors(t *testing.T) {
	t.Run("no base url", func(t *testing.T) {
		c := NewEdgeClient("")
		if _, err := c.Synthesize(context.Background(), "hello", "v"); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("non 2xx", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(500)
		}))
		defer srv.Close()
		c := NewEdgeClient(srv.URL)
		if _, err := c.Synthesize(context.Background(), "hello", "v"); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("empty audio", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer srv.Close()
		c := NewEdgeClient(srv.URL)
		if _, err := c.Synthesize(context.Background(), "hello", "v"); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()
		c := NewEdgeClient(srv.URL)
		c.Timeout = 20 * time.Millisecond
		if _, err := c.Synthesize(context.Background(), "hello", "v"); err == nil {
			t.Fatalf("expected timeout error")
		}
	})
}
