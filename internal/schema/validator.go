// Package schema validates resolved timelines against the output contract.
package schema

import (
	"fmt"
	"math"

	"caption-timing-service/internal/models"
)

const (
	// durationTolerance absorbs float rounding in duration bookkeeping.
	durationTolerance = 1e-6
	// finalEndSlack mirrors the aligner's clamp slack for the last word.
	finalEndSlack = 0.1
)

// ValidateTimeline checks a resolved timeline against the output contract:
// one timing per authoritative word, positive durations, monotonically
// ordered starts, and the final word ending within the audio duration plus
// clamp slack. A violation indicates a bug in the alignment engine rather
// than bad input, so callers log it and keep the timeline.
func ValidateTimeline(tl *models.Timeline, wordCount int) error {
	if tl == nil {
		return fmt.Errorf("timeline is nil")
	}
	switch tl.Method {
	case models.MethodASR, models.MethodHybrid, models.MethodEstimated:
	default:
		return fmt.Errorf("unknown method %q", tl.Method)
	}
	if len(tl.Words) != wordCount {
		return fmt.Errorf("expected %d word timings, got %d", wordCount, len(tl.Words))
	}

	for i, w := range tl.Words {
		if w.Word == "" {
			return fmt.Errorf("word %d: empty text", i)
		}
		if w.End <= w.Start {
			return fmt.Errorf("word %d (%q): end %.3f not after start %.3f", i, w.Word, w.End, w.Start)
		}
		if math.Abs(w.Duration-(w.End-w.Start)) > durationTolerance {
			return fmt.Errorf("word %d (%q): duration %.3f does not match interval %.3f", i, w.Word, w.Duration, w.End-w.Start)
		}
		if w.Confidence < 0 || w.Confidence > 1 {
			return fmt.Errorf("word %d (%q): confidence %.3f out of range", i, w.Word, w.Confidence)
		}
		if i > 0 && w.Start < tl.Words[i-1].Start {
			return fmt.Errorf("word %d (%q): start %.3f before previous start %.3f", i, w.Word, w.Start, tl.Words[i-1].Start)
		}
	}

	if tl.AudioDuration > 0 {
		last := tl.Words[len(tl.Words)-1]
		if last.End > tl.AudioDuration+finalEndSlack+durationTolerance {
			return fmt.Errorf("final word ends at %.3f, past audio duration %.3f", last.End, tl.AudioDuration)
		}
	}
	return nil
}
