// Package mock provides a scripted transcriber for testing and local runs
// without cloud credentials or a Whisper server.
package mock

import (
	"context"
	"strings"

	"caption-timing-service/internal/service/asr"
)

// DefaultScript is the transcript simulated when none is configured.
var DefaultScript = []string{"the", "quick", "brown", "fox", "jumps", "over", "the", "lazy", "dog"}

// defaultTotalSeconds spreads the default script over a plausible read pace.
const defaultTotalSeconds = 3.6

// Transcriber implements asr.Transcriber with a scripted word sequence.
// Words are spread evenly over Total seconds, each occupying 80% of its
// slot so consecutive words never touch.
type Transcriber struct {
	Words       []string
	Total       float64 // reported audio duration in seconds
	Probability float64 // per-word confidence; zero means unreported
	Err         error   // returned instead of a result when set
}

// New creates a mock transcriber that emits the given words over total seconds.
// Empty words fall back to DefaultScript.
func New(words []string, total float64) *Transcriber {
	if len(words) == 0 {
		words = DefaultScript
		total = defaultTotalSeconds
	}
	if total <= 0 {
		total = float64(len(words)) * 0.4
	}
	return &Transcriber{Words: words, Total: total}
}

// Name returns the provider identifier.
func (t *Transcriber) Name() string {
	return "mock"
}

// Transcribe returns the scripted transcript regardless of path contents.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (*asr.Result, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slot := t.Total / float64(len(t.Words))
	seg := asr.Segment{
		Text:  strings.Join(t.Words, " "),
		Words: make([]asr.Word, 0, len(t.Words)),
	}
	for i, w := range t.Words {
		start := float64(i) * slot
		seg.Words = append(seg.Words, asr.Word{
			Word:        w,
			Start:       start,
			End:         start + slot*0.8,
			Probability: t.Probability,
		})
	}
	if n := len(seg.Words); n > 0 {
		seg.Start = seg.Words[0].Start
		seg.End = seg.Words[n-1].End
	}

	return &asr.Result{
		Segments: []asr.Segment{seg},
		Duration: t.Total,
		Provider: t.Name(),
	}, nil
}

var _ asr.Transcriber = (*Transcriber)(nil)
