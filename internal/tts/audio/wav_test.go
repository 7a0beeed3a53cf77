// Package audio_test tests WAV decoding and post-processing.
package audio_test

import (
	"math"
	"testing"
	"time"

	"github.com/order-expert/voicebot-service/internal/tts/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineWAV builds one second of mono 16-bit audio at the given amplitude.
func sineWAV(t *testing.T, amplitude float64) *audio.WAV {
	t.Helper()

	const sampleRate = 8000

	samples := make([]int16, sampleRate)
	for i := range samples {
		phase := 2 * math.Pi * 440 * float64(i) / sampleRate
		samples[i] = int16(amplitude * math.Sin(phase))
	}

	return &audio.WAV{SampleRate: sampleRate, Channels: 1, Samples: samples}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	original := sineWAV(t, 8000)

	decoded, err := audio.Decode(original.Encode())
	require.NoError(t, err)

	assert.Equal(t, original.SampleRate, decoded.SampleRate)
	assert.Equal(t, original.Channels, decoded.Channels)
	assert.Equal(t, original.Samples, decoded.Samples)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := audio.Decode([]byte("not audio at all"))
	require.ErrorIs(t, err, audio.ErrNotWAV)

	_, err = audio.Decode([]byte{})
	require.ErrorIs(t, err, audio.ErrNotWAV)
}

func TestNormalizeTo_ReachesTarget(t *testing.T) {
	t.Parallel()

	wav := sineWAV(t, 1000)

	wav.NormalizeTo(-16.0)

	assert.InDelta(t, -16.0, wav.DBFS(), 0.1)
}

func TestNormalizeTo_SilenceUntouched(t *testing.T) {
	t.Parallel()

	wav := &audio.WAV{SampleRate: 8000, Channels: 1, Samples: make([]int16, 800)}

	wav.NormalizeTo(-16.0)

	for _, sample := range wav.Samples {
		require.Zero(t, sample)
	}
}

func TestApplyGain_Clips(t *testing.T) {
	t.Parallel()

	wav := &audio.WAV{
		SampleRate: 8000,
		Channels:   1,
		Samples:    []int16{30000, -30000},
	}

	wav.ApplyGain(12)

	assert.Equal(t, int16(32767), wav.Samples[0])
	assert.Equal(t, int16(-32768), wav.Samples[1])
}

func TestFades(t *testing.T) {
	t.Parallel()

	wav := sineWAV(t, 8000)

	wav.FadeIn(20 * time.Millisecond)
	wav.FadeOut(50 * time.Millisecond)

	assert.Zero(t, wav.Samples[0], "first sample should be silent after fade-in")
	assert.Zero(t, wav.Samples[len(wav.Samples)-1], "last sample should be silent after fade-out")
}

func TestFades_ShortClipCapped(t *testing.T) {
	t.Parallel()

	wav := &audio.WAV{
		SampleRate: 8000,
		Channels:   1,
		Samples:    []int16{100, 100, 100, 100},
	}

	// A fade longer than the clip must not panic or cross the midpoint.
	wav.FadeIn(time.Second)
	wav.FadeOut(time.Second)

	assert.Len(t, wav.Samples, 4)
}

func TestNormalize_EndToEnd(t *testing.T) {
	t.Parallel()

	raw := sineWAV(t, 500).Encode()

	processed, err := audio.Normalize(raw, -16.0, 20*time.Millisecond, 50*time.Millisecond)
	require.NoError(t, err)

	wav, err := audio.Decode(processed)
	require.NoError(t, err)
	assert.InDelta(t, -16.0, wav.DBFS(), 1.0)
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.Normalize([]byte("garbage"), -16.0, 0, 0)
	require.Error(t, err)
}
