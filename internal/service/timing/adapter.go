package timing

import (
	"strings"

	"caption-timing-service/internal/models"
	"caption-timing-service/internal/service/asr"
)

// Verdict classifies how usable an ASR transcript is.
type Verdict int

const (
	// VerdictSufficient means the transcript is dense enough to use directly.
	VerdictSufficient Verdict = iota
	// VerdictInsufficient means too few words were recognized; the partial
	// timings are still worth merging via hybrid alignment.
	VerdictInsufficient
	// VerdictUnavailable means the engine produced nothing at all.
	VerdictUnavailable
)

func (v Verdict) String() string {
	switch v {
	case VerdictSufficient:
		return "sufficient"
	case VerdictInsufficient:
		return "insufficient"
	case VerdictUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Adaptation is the adapter's tagged outcome. The verdict decides which
// tier runs; Words carries whatever timings were recovered.
type Adaptation struct {
	Verdict    Verdict
	Words      []models.WordTiming
	MatchRatio float64
}

// Adapt flattens an ASR result into a uniform timing sequence and grades it
// against the authoritative word count. A transcription error yields
// VerdictUnavailable. A word count below opts.MatchRatio of the
// authoritative count yields VerdictInsufficient with the partial sequence
// attached.
func Adapt(result *asr.Result, err error, authoritativeWords int, opts Options) Adaptation {
	if err != nil || result == nil {
		return Adaptation{Verdict: VerdictUnavailable}
	}

	words := Flatten(result)
	ratio := 0.0
	if authoritativeWords > 0 {
		ratio = float64(len(words)) / float64(authoritativeWords)
	}
	verdict := VerdictSufficient
	if ratio < opts.MatchRatio {
		verdict = VerdictInsufficient
	}
	return Adaptation{Verdict: verdict, Words: words, MatchRatio: ratio}
}

// Flatten merges all segments of a transcription into one ordered timing
// sequence, trimming whitespace, dropping empty words, and defaulting
// unreported confidence to 1.0.
func Flatten(result *asr.Result) []models.WordTiming {
	if result == nil {
		return nil
	}
	out := make([]models.WordTiming, 0, result.WordCount())
	for _, seg := range result.Segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			confidence := w.Probability
			if confidence <= 0 {
				confidence = 1.0
			}
			out = append(out, models.WordTiming{
				Word:       text,
				Start:      w.Start,
				End:        w.End,
				Duration:   w.End - w.Start,
				Confidence: confidence,
			})
		}
	}
	return out
}
