package media

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestProber_WAVFallback(t *testing.T) {
	// A missing ffprobe binary must not break WAV inputs.
	path := writeFixture(t, "clip.wav", buildWAV(16000, 16000, false))
	p := NewProber("ffprobe-missing-binary", time.Second, zerolog.Nop())

	d, err := p.Duration(context.Background(), path)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != 1.0 {
		t.Errorf("expected duration 1.0 from the wav header, got %v", d)
	}
}

func TestProber_NonWAVWithoutFfprobe(t *testing.T) {
	path := writeFixture(t, "clip.mp3", []byte("junk"))
	p := NewProber("ffprobe-missing-binary", time.Second, zerolog.Nop())

	if _, err := p.Duration(context.Background(), path); err == nil {
		t.Error("expected an error when ffprobe is missing and the file is not a wav")
	}
}

func TestProber_CorruptWAVReportsProbeError(t *testing.T) {
	// The fallback only masks the ffprobe error when the header parses.
	path := writeFixture(t, "clip.wav", []byte("RIFFxxxxJUNK"))
	p := NewProber("ffprobe-missing-binary", time.Second, zerolog.Nop())

	if _, err := p.Duration(context.Background(), path); err == nil {
		t.Error("expected an error for a corrupt wav without ffprobe")
	}
}
