// Package captions turns a resolved timeline into renderable captions:
// timestamp lookup for the renderer, SRT export and the quality label
// carried in logs and events.
package captions

import (
	"sort"

	"caption-timing-service/internal/models"
)

// Quality labels derived from a timeline's average confidence.
const (
	QualityHigh  = "speech-aligned (high accuracy)"
	QualityBasic = "estimated (basic accuracy)"
)

// Track wraps a resolved word sequence for per-frame lookup.
type Track struct {
	words []models.WordTiming
}

// NewTrack wraps words, which must be ordered by start time.
func NewTrack(words []models.WordTiming) *Track {
	return &Track{words: words}
}

// WordAt returns the word whose [start, end) interval contains t. The
// second return is false when t falls in an inter-word gap or outside
// the track.
func (tr *Track) WordAt(t float64) (models.WordTiming, bool) {
	i := sort.Search(len(tr.words), func(i int) bool {
		return tr.words[i].End > t
	})
	if i < len(tr.words) && tr.words[i].Start <= t {
		return tr.words[i], true
	}
	return models.WordTiming{}, false
}

// Len reports the number of words on the track.
func (tr *Track) Len() int {
	return len(tr.words)
}

// QualityLabel classifies a timeline by its average word confidence.
func QualityLabel(avgConfidence float64) string {
	if avgConfidence > 0.8 {
		return QualityHigh
	}
	return QualityBasic
}
