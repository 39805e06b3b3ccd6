package timing

import "caption-timing-service/internal/models"

// EstimateTimeline builds a full timing sequence from duration heuristics
// alone: each word gets a share of the audio proportional to its estimated
// duration, scaled so words plus pauses fit inside the audio. Used when no
// ASR data exists at all. Pure function of its inputs; identical calls
// yield identical output.
func EstimateTimeline(words []string, audioDuration float64, opts Options) ([]models.WordTiming, AlignStats) {
	totalEstimated := 0.0
	for _, w := range words {
		totalEstimated += EstimateWordDuration(w)
	}
	if totalEstimated == 0 {
		return nil, AlignStats{}
	}

	out := make([]models.WordTiming, 0, len(words))
	stats := AlignStats{Synthesized: len(words)}
	clock := opts.LeadIn

	for i, w := range words {
		scaled := EstimateWordDuration(w) / totalEstimated * audioDuration * opts.PauseReserve

		out = append(out, models.WordTiming{
			Word:       w,
			Start:      clock,
			End:        clock + scaled,
			Duration:   scaled,
			Confidence: opts.EstimateConfidence,
		})

		pause := opts.WordPause
		if endsSentence(w) {
			pause = opts.SentencePause
		}
		if i == len(words)-1 {
			pause = opts.FinalWordPause
		}
		clock += scaled + pause
	}

	if last := &out[len(out)-1]; audioDuration > 0 && last.End > audioDuration {
		last.End = audioDuration
		last.Duration = last.End - last.Start
		stats.Clamped = true
	}

	return out, stats
}
