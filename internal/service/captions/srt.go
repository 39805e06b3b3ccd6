package captions

import (
	"fmt"
	"io"

	"caption-timing-service/internal/models"
)

// WriteSRT renders shorts-style captions: one cue per word so the overlay
// shows exactly the word being spoken. replace is applied to each cue's
// text (typically an Obfuscator's Replace); nil writes words as-is.
func WriteSRT(w io.Writer, words []models.WordTiming, replace func(string) string) error {
	for i, wt := range words {
		text := wt.Word
		if replace != nil {
			text = replace(text)
		}
		_, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			i+1, formatTimestamp(wt.Start), formatTimestamp(wt.End), text)
		if err != nil {
			return fmt.Errorf("write srt cue %d: %w", i+1, err)
		}
	}
	return nil
}

// formatTimestamp renders seconds as the SRT HH:MM:SS,mmm form. Negative
// inputs clamp to zero.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	msTotal := int(seconds*1000 + 0.5)
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
