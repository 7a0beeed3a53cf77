package tts

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/order-expert/voicebot-service/internal/tts/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWAVBytes(t *testing.T) []byte {
	t.Helper()

	const sampleRate = 8000

	samples := make([]int16, sampleRate/4)
	for i := range samples {
		phase := 2 * math.Pi * 440 * float64(i) / sampleRate
		samples[i] = int16(2000 * math.Sin(phase))
	}

	wav := &audio.WAV{SampleRate: sampleRate, Channels: 1, Samples: samples}

	return wav.Encode()
}

func TestSynthesizer_Synthesize(t *testing.T) {
	var gotText string

	server := httptest.NewServer(
		http.HandlerFunc(
			func(responseWriter http.ResponseWriter, request *http.Request) {
				var req Request

				err := json.NewDecoder(request.Body).Decode(&req)
				require.NoError(t, err)

				gotText = req.Text

				responseWriter.Header().Set(headerContentType, contentTypeWAV)
				_, _ = responseWriter.Write(testWAVBytes(t))
			},
		),
	)
	defer server.Close()

	testLogger, err := logger.New(t.TempDir(), "synth-test.log")
	require.NoError(t, err)

	synthesizer := NewSynthesizer(
		NewClient(server.URL, 5*time.Second),
		Options{
			Language:    "bn",
			Temperature: 0.75,
			TargetDBFS:  -16.0,
			FadeIn:      20 * time.Millisecond,
			FadeOut:     50 * time.Millisecond,
		},
		testLogger,
	)

	audioData, err := synthesizer.Synthesize(
		context.Background(),
		"মোট মূল্য ১২০ টাকা। তারপর ডেলিভারি",
	)
	require.NoError(t, err)

	// Digits must be spoken as Bangla words and the hard stop smoothed.
	assert.Equal(t, "মোট মূল্য এক শত বিশ টাকা, তারপর ডেলিভারি", gotText)

	decoded, err := audio.Decode(audioData)
	require.NoError(t, err)
	assert.InDelta(t, -16.0, decoded.DBFS(), 1.5)
	assert.Zero(t, decoded.Samples[0], "fade-in should silence the first sample")
}

func TestSynthesizer_ReturnsRawAudioWhenPostProcessingFails(t *testing.T) {
	server := httptest.NewServer(
		http.HandlerFunc(
			func(responseWriter http.ResponseWriter, _ *http.Request) {
				responseWriter.Header().Set(headerContentType, contentTypeWAV)
				_, _ = responseWriter.Write([]byte("not-actually-wav-data"))
			},
		),
	)
	defer server.Close()

	testLogger, err := logger.New(t.TempDir(), "synth-test.log")
	require.NoError(t, err)

	synthesizer := NewSynthesizer(
		NewClient(server.URL, 5*time.Second),
		Options{Language: "bn", Temperature: 0.75, TargetDBFS: -16.0, FadeIn: 0, FadeOut: 0},
		testLogger,
	)

	audioData, err := synthesizer.Synthesize(context.Background(), "কিছু কথা")
	require.NoError(t, err)
	assert.Equal(t, []byte("not-actually-wav-data"), audioData)
}
