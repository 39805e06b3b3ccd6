// Package models defines the data structures shared across the timing service.
package models

// Method identifies which strategy produced a timeline.
type Method string

const (
	// MethodASR means the ASR transcript was dense enough to use directly.
	MethodASR Method = "asr"
	// MethodHybrid means ASR timings were merged with the authoritative text.
	MethodHybrid Method = "hybrid"
	// MethodEstimated means the timeline was synthesized from duration heuristics alone.
	MethodEstimated Method = "estimated"
)

// WordTiming maps one display word to the interval in which it is spoken.
type WordTiming struct {
	Word       string  `json:"word"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

// Timeline is a complete word-timing sequence for one narration render.
// Words are ordered by start time, one entry per authoritative word.
type Timeline struct {
	Words         []WordTiming `json:"words"`
	Method        Method       `json:"method"`
	MatchRatio    float64      `json:"matchRatio"`
	AudioDuration float64      `json:"audioDuration"`
}

// AverageConfidence returns the mean confidence over all words,
// or zero for an empty timeline.
func (t *Timeline) AverageConfidence() float64 {
	if t == nil || len(t.Words) == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range t.Words {
		sum += w.Confidence
	}
	return sum / float64(len(t.Words))
}

// End returns the end time of the last word, or zero for an empty timeline.
func (t *Timeline) End() float64 {
	if t == nil || len(t.Words) == 0 {
		return 0
	}
	return t.Words[len(t.Words)-1].End
}
