package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"

	"caption-timing-service/internal/config"
	"caption-timing-service/internal/media"
	"caption-timing-service/internal/models"
	"caption-timing-service/internal/observability/logging"
	"caption-timing-service/internal/schema"
	"caption-timing-service/internal/service/asr"
	"caption-timing-service/internal/service/asr/googlestt"
	"caption-timing-service/internal/service/asr/mock"
	"caption-timing-service/internal/service/asr/whisper"
	"caption-timing-service/internal/service/captions"
	"caption-timing-service/internal/service/script"
	"caption-timing-service/internal/service/timing"
)

// timelineDocument matches the worker's export envelope so CLI output is
// interchangeable with watched-job output.
type timelineDocument struct {
	JobID    string           `json:"jobId"`
	Title    string           `json:"title"`
	Author   string           `json:"author,omitempty"`
	Quality  string           `json:"quality"`
	Timeline *models.Timeline `json:"timeline"`
}

func main() {
	storyPath := flag.String("story", "", "Path to the story job file (required)")
	audioPath := flag.String("audio", "", "Audio file override (defaults to the story's audio field)")
	outDir := flag.String("out", ".", "Output directory")
	writeSRT := flag.Bool("srt", true, "Write an SRT caption file")
	forceEstimation := flag.Bool("force-estimation", false, "Skip ASR and estimate all timings")
	showTable := flag.Bool("table", false, "Print the resolved timeline as a table")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logCfg := logging.DefaultConfig()
	logCfg.Level = *logLevel
	logCfg.Format = "console"
	logging.Init(logCfg)
	logger := logging.WithComponent("timelinecli")

	if *storyPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	data, err := os.ReadFile(*storyPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot read story file")
	}
	var story models.Story
	if err := json.Unmarshal(data, &story); err != nil {
		logger.Fatal().Err(err).Msg("cannot parse story file")
	}

	text := script.Clean(story.Text)
	words := strings.Fields(text)
	if len(words) == 0 {
		logger.Fatal().Msg("story has no words")
	}

	audio := *audioPath
	if audio == "" {
		audio = story.Audio
	}
	if audio != "" && !filepath.IsAbs(audio) {
		audio = filepath.Join(filepath.Dir(*storyPath), audio)
	}

	cfg := config.Load()

	var oracle asr.Transcriber
	if !*forceEstimation && !cfg.Align.ForceEstimation {
		oracle = buildOracle(cfg, logging.WithProvider(cfg.ASR.Provider))
	}

	opts := timing.DefaultOptions()
	opts.MatchRatio = cfg.Align.MatchRatioThreshold
	opts.SearchWindow = cfg.Align.SearchWindow

	prober := media.NewProber(cfg.Media.FFprobeBinary, cfg.Media.ProbeTimeout, logger)
	resolver := timing.NewResolver(oracle, prober, opts, logger)

	tl := resolver.Resolve(context.Background(), audio, text)
	if err := schema.ValidateTimeline(tl, len(words)); err != nil {
		logger.Error().Err(err).Msg("timeline violates output contract")
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("cannot create output directory")
	}

	base := strings.TrimSuffix(filepath.Base(*storyPath), filepath.Ext(*storyPath))
	doc := timelineDocument{
		JobID:    uuid.NewString(),
		Title:    story.Title,
		Author:   story.Author,
		Quality:  captions.QualityLabel(tl.AverageConfidence()),
		Timeline: tl,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot marshal timeline")
	}
	timelinePath := filepath.Join(*outDir, base+".timeline.json")
	if err := os.WriteFile(timelinePath, payload, 0o644); err != nil {
		logger.Fatal().Err(err).Msg("cannot write timeline")
	}

	if *writeSRT {
		obfuscator := script.NewObfuscator(cfg.Jobs.ObfuscationFile, logger)
		srtPath := filepath.Join(*outDir, base+".srt")
		f, err := os.Create(srtPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot create srt file")
		}
		if err := captions.WriteSRT(f, tl.Words, obfuscator.Replace); err != nil {
			_ = f.Close()
			logger.Fatal().Err(err).Msg("cannot write srt file")
		}
		if err := f.Close(); err != nil {
			logger.Fatal().Err(err).Msg("cannot close srt file")
		}
	}

	if *showTable {
		printTable(tl)
	}

	fmt.Printf("resolved %d words via %s (%s)\n", len(tl.Words), tl.Method, doc.Quality)
	fmt.Printf("wrote %s\n", timelinePath)
	if *writeSRT {
		fmt.Printf("wrote %s\n", filepath.Join(*outDir, base+".srt"))
	}
}

func printTable(tl *models.Timeline) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Word", "Start", "End", "Duration", "Confidence"})
	for i, w := range tl.Words {
		tw.AppendRow(table.Row{
			i + 1,
			w.Word,
			fmt.Sprintf("%.2f", w.Start),
			fmt.Sprintf("%.2f", w.End),
			fmt.Sprintf("%.2f", w.Duration),
			fmt.Sprintf("%.2f", w.Confidence),
		})
	}
	tw.Render()
}

// buildOracle selects the transcription provider from the environment
// configuration, mirroring the service's selection.
func buildOracle(cfg *config.Configuration, logger zerolog.Logger) asr.Transcriber {
	switch cfg.ASR.Provider {
	case "off":
		return nil
	case "mock":
		return mock.New(nil, 0)
	case "whisper":
		return whisper.New(whisper.Config{
			BaseURL:  cfg.ASR.WhisperURL,
			Token:    cfg.ASR.WhisperToken,
			Model:    cfg.ASR.WhisperModel,
			Language: cfg.ASR.LanguageCode,
			Timeout:  cfg.ASR.RequestTimeout,
			Retries:  cfg.ASR.Retries,
		}, logger)
	case "google":
		adapter, err := googlestt.New(context.Background(), googlestt.Config{
			LanguageCode:    cfg.ASR.LanguageCode,
			SampleRateHertz: int32(cfg.ASR.SampleRateHz),
			Encoding:        cfg.ASR.AudioEncoding,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("google stt unavailable, falling back to estimation")
			return nil
		}
		return adapter
	default:
		logger.Warn().Str("provider", cfg.ASR.Provider).Msg("unknown asr provider, falling back to estimation")
		return nil
	}
}
