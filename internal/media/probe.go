// Package media measures narration audio files. Total duration comes from
// ffprobe when available, with a RIFF header fallback for WAV files so a
// host without ffmpeg tooling can still resolve timelines.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Prober measures total audio duration in seconds.
type Prober struct {
	binary  string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewProber creates a prober. An empty binary defaults to "ffprobe" on
// PATH; a non-positive timeout defaults to 10s per probe.
func NewProber(binary string, timeout time.Duration, logger zerolog.Logger) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Prober{binary: binary, timeout: timeout, logger: logger}
}

// Duration measures the total duration of an audio file. When ffprobe
// fails and the file is a WAV, the RIFF header supplies the duration
// instead.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	d, err := p.ffprobeDuration(ctx, path)
	if err == nil {
		return d, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		if wd, werr := WAVDuration(path); werr == nil {
			p.logger.Debug().Err(err).Str("audio", path).
				Msg("ffprobe failed, duration taken from wav header")
			return wd, nil
		}
	}
	return 0, err
}

func (p *Prober) ffprobeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(output)))
	}

	raw := strings.TrimSpace(string(output))
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q: %w", path, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ffprobe %s: non-positive duration %v", path, d)
	}
	return d, nil
}
