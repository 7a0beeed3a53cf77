package tts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/order-expert/voicebot-service/internal/bangla"
	"github.com/order-expert/voicebot-service/internal/tts/audio"
)

// Options control synthesis and post-processing.
type Options struct {
	Language    string
	Temperature float64
	TargetDBFS  float64
	FadeIn      time.Duration
	FadeOut     time.Duration
}

// hardStopReplacer converts patterns that cause long pauses into commas for
// smoother speech flow.
var hardStopReplacer = strings.NewReplacer(
	"। তারপর", ", তারপর",
)

// Synthesizer implements core.SpeechSynthesizer: it cleans the text for
// speech, calls the sidecar and normalizes the resulting audio.
type Synthesizer struct {
	client  *Client
	options Options
	log     *logger.Logger
}

// NewSynthesizer creates a synthesizer on top of the sidecar client.
func NewSynthesizer(client *Client, options Options, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		client:  client,
		options: options,
		log:     log,
	}
}

// Synthesize generates normalized WAV audio for the given Bangla text.
// Digits are spoken as Bangla words; the display text is the caller's
// concern and stays unchanged.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	cleaned := hardStopReplacer.Replace(text)
	cleaned = bangla.SpeakNumbers(cleaned)

	raw, err := s.client.GenerateSpeech(ctx, Request{
		Text:        cleaned,
		Language:    s.options.Language,
		Temperature: s.options.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate speech: %w", err)
	}

	normalized, err := audio.Normalize(raw, s.options.TargetDBFS, s.options.FadeIn, s.options.FadeOut)
	if err != nil {
		// Audio that fails post-processing is still playable; log and
		// return it as generated.
		s.log.Warn("Audio post-processing failed, returning raw audio: %v", err)

		return raw, nil
	}

	s.log.Info("Synthesized %d bytes of audio (%d bytes raw)", len(normalized), len(raw))

	return normalized, nil
}
