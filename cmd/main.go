package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"caption-timing-service/internal/app"
	"caption-timing-service/internal/config"
	"caption-timing-service/internal/events"
	httpapi "caption-timing-service/internal/http"
	"caption-timing-service/internal/ledger"
	"caption-timing-service/internal/media"
	"caption-timing-service/internal/observability"
	"caption-timing-service/internal/observability/metrics"
	"caption-timing-service/internal/service/asr"
	"caption-timing-service/internal/service/asr/googlestt"
	"caption-timing-service/internal/service/asr/mock"
	"caption-timing-service/internal/service/asr/whisper"
	"caption-timing-service/internal/service/script"
	"caption-timing-service/internal/service/timing"
	"caption-timing-service/internal/worker"
)

func main() {
	cfg := config.Load()
	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("application start failed")
	}

	// Kafka publisher with separate topics for resolved timelines and failed jobs
	publisher := events.New(&events.Config{
		Enabled:       cfg.Kafka.Enabled,
		Brokers:       cfg.Kafka.Brokers,
		TopicResolved: cfg.Kafka.ResolvedTopic,
		TopicFailed:   cfg.Kafka.FailedTopic,
		Principal:     cfg.Kafka.Principal,
	})
	defer publisher.Close()

	store, err := ledger.Open(cfg.Jobs.LedgerPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Jobs.LedgerPath).Msg("cannot open job ledger")
	}
	defer store.Close()

	prober := media.NewProber(cfg.Media.FFprobeBinary, cfg.Media.ProbeTimeout, application.Logger)
	oracle := buildOracle(cfg, application.Logger)

	opts := timing.DefaultOptions()
	opts.MatchRatio = cfg.Align.MatchRatioThreshold
	opts.SearchWindow = cfg.Align.SearchWindow

	resolver := timing.NewResolver(oracle, prober, opts, application.Logger)
	application.Resolver = resolver

	obfuscator := script.NewObfuscator(cfg.Jobs.ObfuscationFile, application.Logger)

	jobsWorker := worker.New(worker.Config{
		WatchDir:  cfg.Jobs.WatchDir,
		OutputDir: cfg.Jobs.OutputDir,
		LockFile:  cfg.Jobs.LockFile,
		WriteSRT:  cfg.Jobs.WriteSRT,
	}, resolver, obfuscator, store, publisher, application.Logger)

	if err := jobsWorker.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("worker start failed")
	}

	obsServer := observability.NewServer(":"+cfg.Observability.MetricsPort, jobsWorker.Ready)
	obsServer.Start()

	apiServer := &http.Server{
		Addr:    ":" + cfg.Service.HTTPPort,
		Handler: httpapi.NewRouter(application),
	}
	go func() {
		log.Info().Str("addr", apiServer.Addr).Msg("HTTP API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http serve failed")
		}
	}()

	metrics.DefaultMetrics.SetUp(true)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	metrics.DefaultMetrics.SetUp(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	if err := obsServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("observability shutdown")
	}
	jobsWorker.Stop()
	if c, ok := oracle.(interface{ Close() error }); ok {
		_ = c.Close()
	}
	application.Shutdown()
}

// buildOracle selects the transcription provider. A misconfigured or
// unavailable provider degrades to estimation rather than failing startup.
func buildOracle(cfg *config.Configuration, logger zerolog.Logger) asr.Transcriber {
	if cfg.Align.ForceEstimation {
		logger.Info().Msg("forced estimation enabled, skipping ASR")
		return nil
	}

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
