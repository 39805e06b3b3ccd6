// Package timing implements the word-timing alignment engine. It reconciles
// noisy ASR word timestamps with the authoritative narration text and always
// produces a complete, ordered timing sequence covering every word, no
// matter how sparse or absent the ASR output is.
package timing

// Options holds the tunable constants of the alignment engine.
// The thresholds are inherited, not derived; deployments override them
// through configuration rather than editing code.
type Options struct {
	MatchRatio             float64 // minimum asrWords/authoritativeWords to trust ASR directly
	SearchWindow           int     // forward ASR entries scanned per authoritative word
	LeadIn                 float64 // start of the first word, seconds
	SentencePause          float64 // pause after a word ending in . ! ?
	WordPause              float64 // pause between ordinary words
	FinalWordPause         float64 // trailing pause reserved after the last estimated word
	ClampSlack             float64 // overshoot tolerated before the final end is clamped
	PauseReserve           float64 // share of audio time given to words in pure estimation
	FillConfidence         float64 // confidence assigned to hybrid-synthesized words
	EstimateConfidence     float64 // confidence assigned to pure-estimation words
	FallbackSecondsPerWord float64 // assumed seconds per word when audio duration is unknown
}

// DefaultOptions returns the standard alignment constants.
func DefaultOptions() Options {
	return Options{
		MatchRatio:             0.7,
		SearchWindow:           5,
		LeadIn:                 0.1,
		SentencePause:          0.15,
		WordPause:              0.05,
		FinalWordPause:         0.1,
		ClampSlack:             0.1,
		PauseReserve:           0.9,
		FillConfidence:         0.4,
		EstimateConfidence:     0.3,
		FallbackSecondsPerWord: 0.4,
	}
}
