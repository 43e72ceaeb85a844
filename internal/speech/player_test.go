package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// outputFunc adapts a function to the Output interface.
type outputFunc func(ctx context.Context, clip *Clip) error

func (f outputFunc) Play(ctx context.Context, clip *Clip) error {
	return f(ctx, clip)
}

func monoAudio(samples ...int16) *llm.Audio {
	data := make([]byte, 0, 2*len(samples))
	for _, s := range samples {
		data = binary.LittleEndian.AppendUint16(data, uint16(s))
	}
	return &llm.Audio{Data: data, SampleRate: 24000, Channels: 1, MIMEType: "audio/L16;codec=pcm;rate=24000"}
}

func TestSpeak_DecodesAndPlays(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.Audio = monoAudio(0, 16384)
	p := NewPlayer(fake, log.NewNop())

	var played *Clip
	err := p.Speak(context.Background(), "hello there", outputFunc(func(ctx context.Context, clip *Clip) error {
		played = clip
		return nil
	}))
	if err != nil {
		t.Fatalf("Speak() = %v", err)
	}
	if played == nil {
		t.Fatal("output never received a clip")
	}
	if played.SampleRate != 24000 || played.Frames() != 2 {
		t.Errorf("clip = %d frames at %d Hz, want 2 at 24000", played.Frames(), played.SampleRate)
	}
	if got := fake.Spoken(); len(got) != 1 || got[0] != "hello there" {
		t.Errorf("synthesized texts = %v", got)
	}
	if p.Speaking() {
		t.Error("speaking flag must clear after playback")
	}
}

func TestSpeak_SecondCallDroppedWhilePlaying(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.Audio = monoAudio(1, 2, 3)
	p := NewPlayer(fake, log.NewNop())

	playing := make(chan struct{})
	release := make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := p.Speak(context.Background(), "first", outputFunc(func(ctx context.Context, clip *Clip) error {
			close(playing)
			<-release
			return nil
		}))
		if err != nil {
			t.Errorf("first Speak() = %v", err)
		}
	}()
	<-playing

	if !p.Speaking() {
		t.Error("Speaking() = false during playback")
	}
	if err := p.Speak(context.Background(), "second", outputFunc(func(ctx context.Context, clip *Clip) error {
		t.Error("overlapping request must not start playback")
		return nil
	})); !errors.Is(err, ErrSpeaking) {
		t.Errorf("overlapping Speak() = %v, want ErrSpeaking", err)
	}
	if !p.Speaking() {
		t.Error("rejected request must not alter the speaking flag")
	}

	close(release)
	<-done

	// Only the first request reached the synthesizer.
	if got := fake.Spoken(); len(got) != 1 || got[0] != "first" {
		t.Errorf("synthesized texts = %v, want [first]", got)
	}
	if p.Speaking() {
		t.Error("speaking flag must clear after the first playback ends")
	}
}

func TestSpeak_ConcurrentBurstAdmitsOne(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.Audio = monoAudio(1)
	p := NewPlayer(fake, log.NewNop())

	playing := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Speak(context.Background(), "winner", outputFunc(func(ctx context.Context, clip *Clip) error {
			close(playing)
			<-release
			return nil
		}))
	}()
	<-playing

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Speak(context.Background(), "loser", nil); !errors.Is(err, ErrSpeaking) {
				t.Errorf("overlapping Speak() = %v, want ErrSpeaking", err)
			}
		}()
	}
	wg.Wait()
	close(release)
	<-done

	if got := fake.Spoken(); len(got) != 1 {
		t.Errorf("synthesized %d texts, want 1", len(got))
	}
}

func TestSpeak_SynthesisFailureClearsFlag(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.SpeechErr = errors.New("quota exceeded")
	p := NewPlayer(fake, log.NewNop())

	err := p.Speak(context.Background(), "hi", outputFunc(func(ctx context.Context, clip *Clip) error {
		t.Error("no playback on synthesis failure")
		return nil
	}))
	if err == nil {
		t.Fatal("Speak() = nil, want error")
	}
	if p.Speaking() {
		t.Error("speaking flag must clear on synthesis failure")
	}

	// A later request proceeds.
	fake.SpeechErr = nil
	fake.Audio = monoAudio(1)
	if err := p.Speak(context.Background(), "retry", outputFunc(func(ctx context.Context, clip *Clip) error {
		return nil
	})); err != nil {
		t.Errorf("Speak() after failure = %v", err)
	}
}

func TestSpeak_EmptyAudioIsNoOp(t *testing.T) {
	fake := testutil.NewFakeLLM()
	p := NewPlayer(fake, log.NewNop())

	err := p.Speak(context.Background(), "hi", outputFunc(func(ctx context.Context, clip *Clip) error {
		t.Error("no playback for empty synthesis output")
		return nil
	}))
	if err != nil {
		t.Errorf("Speak() = %v, empty audio is not an error", err)
	}
	if p.Speaking() {
		t.Error("speaking flag must clear after an empty result")
	}
}

func TestSpeak_DecodeFailureClearsFlag(t *testing.T) {
	fake := testutil.NewFakeLLM()
	fake.Audio = &llm.Audio{Data: []byte{0x01}, SampleRate: 24000, Channels: 1}
	p := NewPlayer(fake, log.NewNop())

	err := p.Speak(context.Background(), "hi", outputFunc(func(ctx context.Context, clip *Clip) error {
		t.Error("no playback on decode failure")
		return nil
	}))
	if !errors.Is(err, ErrTruncatedPayload) {
		t.Errorf("Speak() = %v, want ErrTruncatedPayload", err)
	}
	if p.Speaking() {
		t.Error("speaking flag must clear on decode failure")
	}
}

func TestWAVOutput_RoundTrip(t *testing.T) {
	clip, err := DecodePCM([]byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xc0, 0xff, 0x7f}, 24000, 2)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewWAVOutput(&buf).Play(context.Background(), clip); err != nil {
		t.Fatalf("Play() = %v", err)
	}

	out := buf.Bytes()
	if len(out) != 44+8 {
		t.Fatalf("wav size = %d, want 52", len(out))
	}
	if string(out[0:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE markers")
	}
	if got := binary.LittleEndian.Uint16(out[22:24]); got != 2 {
		t.Errorf("channel count = %d, want 2", got)
	}
	if got := binary.LittleEndian.Uint32(out[24:28]); got != 24000 {
		t.Errorf("sample rate = %d, want 24000", got)
	}
	// Sample data survives the float round trip intact.
	if !bytes.Equal(out[44:], []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xc0, 0xff, 0x7f}) {
		t.Errorf("pcm payload = %x", out[44:])
	}
}
