package speech

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// WAVOutput writes clips as 16-bit PCM WAV. It backs the speak command,
// where there is no audio device to play through.
type WAVOutput struct {
	w io.Writer
}

// NewWAVOutput creates a WAVOutput writing to w.
func NewWAVOutput(w io.Writer) *WAVOutput {
	return &WAVOutput{w: w}
}

// Play encodes the clip as a RIFF/WAVE stream, re-interleaving channels and
// quantizing samples back to int16.
func (o *WAVOutput) Play(ctx context.Context, clip *Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	channels := len(clip.Channels)
	if channels == 0 || clip.SampleRate <= 0 {
		return fmt.Errorf("%w: empty clip", ErrBadFormat)
	}
	frames := clip.Frames()
	dataSize := frames * channels * 2

	header := make([]byte, 0, 44)
	header = append(header, "RIFF"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(36+dataSize))
	header = append(header, "WAVE"...)
	header = append(header, "fmt "...)
	header = binary.LittleEndian.AppendUint32(header, 16)
	header = binary.LittleEndian.AppendUint16(header, 1) // PCM
	header = binary.LittleEndian.AppendUint16(header, uint16(channels))
	header = binary.LittleEndian.AppendUint32(header, uint32(clip.SampleRate))
	header = binary.LittleEndian.AppendUint32(header, uint32(clip.SampleRate*channels*2))
	header = binary.LittleEndian.AppendUint16(header, uint16(channels*2))
	header = binary.LittleEndian.AppendUint16(header, 16)
	header = append(header, "data"...)
	header = binary.LittleEndian.AppendUint32(header, uint32(dataSize))
	if _, err := o.w.Write(header); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	buf := make([]byte, 0, dataSize)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(quantize(clip.Channels[ch][i])))
		}
	}
	if _, err := o.w.Write(buf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}

func quantize(s float32) int16 {
	v := math.Round(float64(s) * 32768)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
