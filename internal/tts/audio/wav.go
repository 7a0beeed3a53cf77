// Package audio provides decoding, loudness measurement and post-processing
// for the 16-bit PCM WAV data produced by the speech synthesizer.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

// WAV layout constants.
const (
	riffChunkHeaderLen = 12
	chunkHeaderLen     = 8
	fmtChunkMinLen     = 16
	canonicalHeaderLen = 44

	pcmFormatCode    = 1
	supportedBits    = 16
	bytesPerSample   = 2
	fullScale        = 32768.0
	maxSampleValue   = 32767
	minSampleValue   = -32768
	millisPerSecond  = 1000
	decibelLogFactor = 20.0
)

// Static errors.
var (
	ErrNotWAV            = errors.New("data is not a RIFF/WAVE stream")
	ErrUnsupportedFormat = errors.New("only 16-bit PCM WAV is supported")
	ErrMissingFmtChunk   = errors.New("missing fmt chunk")
	ErrMissingDataChunk  = errors.New("missing data chunk")
)

// WAV holds decoded 16-bit PCM audio.
type WAV struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// Decode parses a 16-bit PCM WAV byte stream.
func Decode(data []byte) (*WAV, error) {
	if len(data) < riffChunkHeaderLen ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var (
		wav      WAV
		sawFmt   bool
		sawData  bool
		position = riffChunkHeaderLen
	)

	for position+chunkHeaderLen <= len(data) {
		chunkID := string(data[position : position+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[position+4 : position+8]))
		body := position + chunkHeaderLen

		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < fmtChunkMinLen {
				return nil, ErrUnsupportedFormat
			}

			formatCode := int(binary.LittleEndian.Uint16(data[body : body+2]))
			wav.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			wav.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := int(binary.LittleEndian.Uint16(data[body+14 : body+16]))

			if formatCode != pcmFormatCode || bits != supportedBits {
				return nil, ErrUnsupportedFormat
			}

			sawFmt = true
		case "data":
			sampleCount := chunkSize / bytesPerSample
			wav.Samples = make([]int16, sampleCount)

			for i := range sampleCount {
				offset := body + i*bytesPerSample
				wav.Samples[i] = int16(binary.LittleEndian.Uint16(data[offset : offset+bytesPerSample]))
			}

			sawData = true
		}

		// Chunks are word-aligned.
		if chunkSize%2 == 1 {
			chunkSize++
		}

		position = body + chunkSize
	}

	if !sawFmt {
		return nil, ErrMissingFmtChunk
	}

	if !sawData {
		return nil, ErrMissingDataChunk
	}

	if wav.Channels == 0 || wav.SampleRate == 0 {
		return nil, ErrUnsupportedFormat
	}

	return &wav, nil
}

// Encode serializes the audio back into a canonical 44-byte-header WAV file.
func (w *WAV) Encode() []byte {
	dataLen := len(w.Samples) * bytesPerSample
	out := make([]byte, canonicalHeaderLen+dataLen)

	byteRate := w.SampleRate * w.Channels * bytesPerSample
	blockAlign := w.Channels * bytesPerSample

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(canonicalHeaderLen-chunkHeaderLen+dataLen))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], fmtChunkMinLen)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(out[22:24], uint16(w.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(w.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], supportedBits)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))

	for i, sample := range w.Samples {
		offset := canonicalHeaderLen + i*bytesPerSample
		binary.LittleEndian.PutUint16(out[offset:offset+bytesPerSample], uint16(sample))
	}

	return out
}

// DBFS returns the RMS loudness relative to full scale. Silence returns
// negative infinity.
func (w *WAV) DBFS() float64 {
	if len(w.Samples) == 0 {
		return math.Inf(-1)
	}

	var sumSquares float64
	for _, sample := range w.Samples {
		value := float64(sample)
		sumSquares += value * value
	}

	rms := math.Sqrt(sumSquares / float64(len(w.Samples)))
	if rms == 0 {
		return math.Inf(-1)
	}

	return decibelLogFactor * math.Log10(rms/fullScale)
}

// ApplyGain scales every sample by the given decibel change, clipping at
// full scale.
func (w *WAV) ApplyGain(decibels float64) {
	factor := math.Pow(10, decibels/decibelLogFactor)

	for i, sample := range w.Samples {
		w.Samples[i] = clipSample(float64(sample) * factor)
	}
}

// NormalizeTo applies the gain needed to bring the RMS loudness to the
// target dBFS. Silent audio is left untouched.
func (w *WAV) NormalizeTo(targetDBFS float64) {
	current := w.DBFS()
	if math.IsInf(current, -1) {
		return
	}

	w.ApplyGain(targetDBFS - current)
}

// FadeIn applies a linear fade over the given duration from the start.
func (w *WAV) FadeIn(duration time.Duration) {
	frames := w.fadeFrames(duration)

	for frame := range frames {
		factor := float64(frame) / float64(frames)
		w.scaleFrame(frame, factor)
	}
}

// FadeOut applies a linear fade over the given duration at the end.
func (w *WAV) FadeOut(duration time.Duration) {
	frames := w.fadeFrames(duration)
	totalFrames := len(w.Samples) / w.Channels

	for i := range frames {
		frame := totalFrames - 1 - i
		factor := float64(i) / float64(frames)
		w.scaleFrame(frame, factor)
	}
}

// fadeFrames converts a duration into a frame count, capped at half the
// audio so fades never meet in the middle.
func (w *WAV) fadeFrames(duration time.Duration) int {
	if w.Channels == 0 {
		return 0
	}

	frames := int(int64(w.SampleRate) * duration.Milliseconds() / millisPerSecond)

	totalFrames := len(w.Samples) / w.Channels
	if frames > totalFrames/2 {
		frames = totalFrames / 2
	}

	return frames
}

func (w *WAV) scaleFrame(frame int, factor float64) {
	for channel := range w.Channels {
		index := frame*w.Channels + channel
		if index < 0 || index >= len(w.Samples) {
			continue
		}

		w.Samples[index] = clipSample(float64(w.Samples[index]) * factor)
	}
}

func clipSample(value float64) int16 {
	if value > maxSampleValue {
		return maxSampleValue
	}

	if value < minSampleValue {
		return minSampleValue
	}

	return int16(value)
}

// Normalize decodes WAV bytes, brings loudness to the target dBFS, applies
// the fades and re-encodes. This mirrors the post-processing the original
// pipeline ran on every synthesized reply.
func Normalize(data []byte, targetDBFS float64, fadeIn, fadeOut time.Duration) ([]byte, error) {
	wav, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode synthesized audio: %w", err)
	}

	wav.NormalizeTo(targetDBFS)
	wav.FadeIn(fadeIn)
	wav.FadeOut(fadeOut)

	return wav.Encode(), nil
}
