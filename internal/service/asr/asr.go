// Package asr defines the interface for speech-recognition providers that
// produce word-level timestamps for an audio file.
package asr

import "context"

// Word is one recognized word with its spoken interval in seconds.
// Probability is the engine's per-word confidence; zero means unreported.
type Word struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability,omitempty"`
}

// Segment is a contiguous stretch of recognized speech.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

// Result is the full transcription of one audio file.
type Result struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Provider string    `json:"provider,omitempty"`
}

// WordCount returns the total number of words across all segments.
func (r *Result) WordCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Segments {
		n += len(s.Words)
	}
	return n
}

// Transcriber is the oracle interface implemented by ASR providers
// (remote Whisper, Google Cloud STT, mock).
type Transcriber interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// Transcribe runs recognition on the audio file at path.
	// Any returned error means no usable timing data was obtained.
	Transcribe(ctx context.Context, path string) (*Result, error)
}
