package timing

import (
	"strings"

	"caption-timing-service/internal/models"
)

// edgePunctuation is stripped from both ends of a word before comparison.
const edgePunctuation = `.,!?'"`

// AlignStats reports what an alignment pass did, for logs and metrics.
type AlignStats struct {
	Matched     int  // words that took their interval from ASR
	Synthesized int  // words placed by estimation
	Clamped     bool // final end overshot the audio duration and was pulled back
}

// HybridAlign merges ASR word timings with the authoritative word sequence.
// Every authoritative word receives exactly one timing: either the interval
// of a fuzzy-matched ASR entry (keeping the authoritative spelling) or a
// synthesized interval placed after the previously emitted word. ASR
// entries skipped over by a match are discarded as insertions. The pass is
// forward-only: each authoritative word looks at most opts.SearchWindow
// entries past the cursor, so the whole merge is O(len(words)).
func HybridAlign(asrWords []models.WordTiming, words []string, totalDuration float64, opts Options) ([]models.WordTiming, AlignStats) {
	if len(words) == 0 {
		return nil, AlignStats{}
	}

	out := make([]models.WordTiming, 0, len(words))
	stats := AlignStats{}
	cursor := 0

	for i, word := range words {
		if j := findMatch(asrWords, cursor, word, opts.SearchWindow); j >= 0 {
			entry := asrWords[j]
			entry.Word = word
			entry.Duration = entry.End - entry.Start
			out = append(out, entry)
			cursor = j + 1
			stats.Matched++
			continue
		}

		// No ASR counterpart inside the window: place the word after the
		// previous one with an estimated duration.
		start := opts.LeadIn
		if len(out) > 0 {
			pause := opts.WordPause
			if endsSentence(words[i-1]) {
				pause = opts.SentencePause
			}
			start = out[len(out)-1].End + pause
		}
		duration := EstimateWordDuration(word)
		out = append(out, models.WordTiming{
			Word:       word,
			Start:      start,
			End:        start + duration,
			Duration:   duration,
			Confidence: opts.FillConfidence,
		})
		stats.Synthesized++
	}

	if last := &out[len(out)-1]; totalDuration > 0 && last.End > totalDuration+opts.ClampSlack {
		last.End = totalDuration
		last.Duration = last.End - last.Start
		stats.Clamped = true
	}

	return out, stats
}

// findMatch scans the bounded forward window starting at cursor for an ASR
// entry matching the authoritative word, returning its index or -1.
func findMatch(asrWords []models.WordTiming, cursor int, word string, window int) int {
	limit := cursor + window
	if limit > len(asrWords) {
		limit = len(asrWords)
	}
	for j := cursor; j < limit; j++ {
		if wordsMatch(word, asrWords[j].Word) {
			return j
		}
	}
	return -1
}

// wordsMatch compares two words case-insensitively after stripping edge
// punctuation. Containment counts as a match only when the contained string
// is longer than two characters, so "a" and "I" cannot match inside
// unrelated words.
func wordsMatch(authoritative, recognized string) bool {
	a := normalizeWord(authoritative)
	r := normalizeWord(recognized)
	if a == "" || r == "" {
		return false
	}
	if a == r {
		return true
	}
	if len(a) > 2 && strings.Contains(r, a) {
		return true
	}
	if len(r) > 2 && strings.Contains(a, r) {
		return true
	}
	return false
}

func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), edgePunctuation)
}

// endsSentence reports whether a word ends with terminal punctuation.
func endsSentence(word string) bool {
	return strings.HasSuffix(word, ".") ||
		strings.HasSuffix(word, "!") ||
		strings.HasSuffix(word, "?")
}
