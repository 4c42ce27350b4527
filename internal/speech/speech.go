// Package speech turns persona reply text into audio. A primary HTTP
// synthesis service is tried first, bounded by a client-side timeout; on
// failure a secondary Deepgram path takes over. Total failure is reported to
// the orchestrator, which resumes listening rather than stalling the call.
package speech

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Synthesizer produces a complete audio clip for the given text and voice
// identifier.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// Speaker chains a primary synthesizer with a fallback path.
type Speaker struct {
	primary  Synthesizer
	fallback Synthesizer
	log      *logrus.Entry
}

func NewSpeaker(primary, fallback Synthesizer, log *logrus.Entry) *Speaker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Speaker{primary: primary, fallback: fallback, log: log.WithField("component", "speech")}
}

// Synthesize tries the primary path and falls back on any error. It returns
// an error only when no configured path produced audio.
func (s *Speaker) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("speech: empty text")
	}
	if s.primary != nil {
		audio, err := s.primary.Synthesize(ctx, text, voice)
		if err == nil {
			return audio, nil
		}
		s.log.WithError(err).Warn("primary synthesis failed, trying fallback")
	}
	if s.fallback != nil {
		audio, err := s.fallback.Synthesize(ctx, text, voice)
		if err == nil {
			return audio, nil
		}
		s.log.WithError(err).Error("fallback synthesis failed")
		return nil, fmt.Errorf("speech: all synthesis paths failed: %w", err)
	}
	return nil, fmt.Errorf("speech: no synthesis engine available")
}
