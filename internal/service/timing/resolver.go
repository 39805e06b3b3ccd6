package timing

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"caption-timing-service/internal/models"
	"caption-timing-service/internal/observability/metrics"
	"caption-timing-service/internal/service/asr"
)

// DurationSource measures the total duration of an audio file in seconds.
type DurationSource interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Resolver is the single entry point of the timing engine. Per narration it
// picks the best available strategy: trust a dense ASR transcript directly,
// merge a sparse one with the authoritative text, or estimate everything
// from heuristics. It never fails - every path degrades to a usable
// timeline, and only empty text yields an empty one.
type Resolver struct {
	oracle  asr.Transcriber // nil when no ASR is configured
	probe   DurationSource  // nil when duration is always supplied by the caller
	opts    Options
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewResolver creates a resolver. A nil oracle disables the ASR and hybrid
// tiers; a nil probe makes the resolver estimate duration from word count.
func NewResolver(oracle asr.Transcriber, probe DurationSource, opts Options, logger zerolog.Logger) *Resolver {
	return &Resolver{
		oracle:  oracle,
		probe:   probe,
		opts:    opts,
		logger:  logger,
		metrics: metrics.DefaultMetrics,
	}
}

// Resolve produces the timing sequence for one narration render.
func (r *Resolver) Resolve(ctx context.Context, audioPath, text string) *models.Timeline {
	started := time.Now()

	words := strings.Fields(text)
	if len(words) == 0 {
		return &models.Timeline{Method: models.MethodEstimated}
	}

	totalDuration := r.audioDuration(ctx, audioPath, len(words))
	tl := r.resolveWords(ctx, audioPath, words, totalDuration)

	r.metrics.RecordTimelineResolved(string(tl.Method), time.Since(started).Seconds())
	r.logger.Info().
		Str("method", string(tl.Method)).
		Int("words", len(tl.Words)).
		Float64("match_ratio", tl.MatchRatio).
		Float64("audio_duration", tl.AudioDuration).
		Float64("avg_confidence", tl.AverageConfidence()).
		Msg("timeline resolved")
	return tl
}

// EstimateOnly produces a pure-estimation timeline for call sites that
// already know the audio duration and have no file to probe.
func (r *Resolver) EstimateOnly(text string, audioDuration float64) *models.Timeline {
	started := time.Now()

	words := strings.Fields(text)
	if len(words) == 0 {
		return &models.Timeline{Method: models.MethodEstimated}
	}
	if audioDuration <= 0 {
		audioDuration = float64(len(words)) * r.opts.FallbackSecondsPerWord
	}

	timings, stats := EstimateTimeline(words, audioDuration, r.opts)
	r.noteStats(stats, metrics.WordSourceEstimated)
	r.metrics.RecordTimelineResolved(string(models.MethodEstimated), time.Since(started).Seconds())
	return &models.Timeline{
		Words:         timings,
		Method:        models.MethodEstimated,
		AudioDuration: audioDuration,
	}
}

// audioDuration probes the audio file, falling back to a per-word estimate
// when the probe is missing or fails.
func (r *Resolver) audioDuration(ctx context.Context, audioPath string, wordCount int) float64 {
	if r.probe != nil && audioPath != "" {
		d, err := r.probe.Duration(ctx, audioPath)
		if err == nil && d > 0 {
			return d
		}
		if err != nil {
			r.metrics.RecordProbeFailure()
			r.logger.Warn().Err(err).Str("audio", audioPath).
				Msg("audio probe failed, estimating duration from word count")
		}
	}
	return float64(wordCount) * r.opts.FallbackSecondsPerWord
}

func (r *Resolver) resolveWords(ctx context.Context, audioPath string, words []string, totalDuration float64) *models.Timeline {
	if r.oracle == nil {
		timings, stats := EstimateTimeline(words, totalDuration, r.opts)
		r.noteStats(stats, metrics.WordSourceEstimated)
		return &models.Timeline{
			Words:         timings,
			Method:        models.MethodEstimated,
			AudioDuration: totalDuration,
		}
	}

	asrStarted := time.Now()
	result, err := r.oracle.Transcribe(ctx, audioPath)
	r.metrics.RecordASRRequest(r.oracle.Name(), err, time.Since(asrStarted).Seconds())
	if err != nil {
		r.logger.Warn().Err(err).Str("provider", r.oracle.Name()).
			Msg("asr unavailable, falling back to estimation")
	}

	adaptation := Adapt(result, err, len(words), r.opts)

	switch adaptation.Verdict {
	case VerdictSufficient:
		r.metrics.RecordMatchRatio(adaptation.MatchRatio)
		r.metrics.RecordWordSource(metrics.WordSourceMatched, len(adaptation.Words))
		return &models.Timeline{
			Words:         adaptation.Words,
			Method:        models.MethodASR,
			MatchRatio:    adaptation.MatchRatio,
			AudioDuration: totalDuration,
		}

	case VerdictInsufficient:
		r.metrics.RecordMatchRatio(adaptation.MatchRatio)
		r.logger.Info().
			Float64("match_ratio", adaptation.MatchRatio).
			Int("asr_words", len(adaptation.Words)).
			Int("words", len(words)).
			Msg("asr transcript sparse, running hybrid alignment")
		timings, stats := HybridAlign(adaptation.Words, words, totalDuration, r.opts)
		r.noteStats(stats, metrics.WordSourceSynthesized)
		return &models.Timeline{
			Words:         timings,
			Method:        models.MethodHybrid,
			MatchRatio:    adaptation.MatchRatio,
			AudioDuration: totalDuration,
		}

	default: // VerdictUnavailable
		timings, stats := EstimateTimeline(words, totalDuration, r.opts)
		r.noteStats(stats, metrics.WordSourceEstimated)
		return &models.Timeline{
			Words:         timings,
			Method:        models.MethodEstimated,
			AudioDuration: totalDuration,
		}
	}
}

// noteStats feeds alignment statistics into metrics and logs the clamp
// diagnostic. Clamping is a silent correction, never a failure.
func (r *Resolver) noteStats(stats AlignStats, synthesizedSource string) {
	r.metrics.RecordWordSource(metrics.WordSourceMatched, stats.Matched)
	r.metrics.RecordWordSource(synthesizedSource, stats.Synthesized)
	if stats.Clamped {
		r.metrics.RecordClamp()
		r.logger.Debug().Msg("final word end clamped to audio duration")
	}
}
