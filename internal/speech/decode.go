// Package speech turns assistant text into spoken audio: it requests
// synthesis from the model, decodes the raw PCM payload into per-channel
// sample buffers, and plays them through an Output with a single playback
// in flight at a time.
package speech

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBadFormat indicates a non-positive sample rate or channel count.
	ErrBadFormat = errors.New("bad audio format")

	// ErrTruncatedPayload indicates the byte payload does not divide into
	// whole frames of int16 samples.
	ErrTruncatedPayload = errors.New("truncated audio payload")
)

// Clip is decoded audio: one float32 buffer per channel, samples in
// [-1.0, 1.0].
type Clip struct {
	Channels   [][]float32
	SampleRate int
}

// Frames returns the number of samples per channel.
func (c *Clip) Frames() int {
	if len(c.Channels) == 0 {
		return 0
	}
	return len(c.Channels[0])
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// DecodePCM decodes little-endian signed 16-bit PCM, interleaved by
// channel, into one normalized buffer per channel. Each sample s maps to
// s/32768.0, preserving interleaving order.
func DecodePCM(data []byte, sampleRate, channels int) (*Clip, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d channels=%d", ErrBadFormat, sampleRate, channels)
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd byte count %d", ErrTruncatedPayload, len(data))
	}

	total := len(data) / 2
	if total%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples across %d channels", ErrTruncatedPayload, total, channels)
	}
	frames := total / channels

	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	for i := 0; i < total; i++ {
		s := int16(binary.LittleEndian.Uint16(data[2*i:]))
		out[i%channels][i/channels] = float32(s) / 32768.0
	}

	return &Clip{Channels: out, SampleRate: sampleRate}, nil
}
