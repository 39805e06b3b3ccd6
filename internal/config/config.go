// Package config loads service configuration from environment variables.
// Every value has a default; invalid values fall back with a warning so a
// bad environment never prevents startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	ASR           ASRConfig
	Align         AlignConfig
	Media         MediaConfig
	Jobs          JobsConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its API listener.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
	Env       string
}

// ASRConfig selects and tunes the transcription oracle.
type ASRConfig struct {
	Provider       string // mock, whisper, google or off
	LanguageCode   string
	SampleRateHz   int
	AudioEncoding  string
	WhisperURL     string
	WhisperModel   string
	WhisperToken   string
	RequestTimeout time.Duration
	Retries        int
}

// AlignConfig overrides the alignment engine's tunable gates.
type AlignConfig struct {
	MatchRatioThreshold float64
	SearchWindow        int
	ForceEstimation     bool
}

// MediaConfig tunes audio duration probing.
type MediaConfig struct {
	FFprobeBinary string
	ProbeTimeout  time.Duration
}

// JobsConfig drives the directory-watching worker.
type JobsConfig struct {
	WatchDir        string
	OutputDir       string
	LedgerPath      string
	LockFile        string
	ObfuscationFile string
	WriteSRT        bool
}

// KafkaConfig drives the resolution event publisher.
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	ResolvedTopic string
	FailedTopic   string
	Principal     string
}

// ObservabilityConfig drives logging and the metrics listener.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// Load reads the configuration from the environment.
func Load() *Configuration {
	service := ServiceConfig{
		Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-caption-timing"),
		HTTPPort:  envOrDefault("HTTP_PORT", "8080"),
		Env:       envOrDefault("ENV", "dev"),
	}

	return &Configuration{
		Service: service,
		ASR: ASRConfig{
			Provider:       envOrDefault("ASR_PROVIDER", "mock"),
			LanguageCode:   envOrDefault("ASR_LANGUAGE_CODE", "en-US"),
			SampleRateHz:   envOrDefaultInt("ASR_SAMPLE_RATE_HZ", 16000),
			AudioEncoding:  envOrDefault("ASR_AUDIO_ENCODING", "LINEAR16"),
			WhisperURL:     envOrDefault("WHISPER_URL", "http://localhost:9000"),
			WhisperModel:   envOrDefault("WHISPER_MODEL", "small"),
			WhisperToken:   envOrDefault("WHISPER_TOKEN", ""),
			RequestTimeout: envOrDefaultDuration("ASR_REQUEST_TIMEOUT", 120*time.Second),
			Retries:        envOrDefaultInt("ASR_RETRIES", 3),
		},
		Align: AlignConfig{
			MatchRatioThreshold: envOrDefaultFloat("ALIGN_MATCH_RATIO_THRESHOLD", 0.7),
			SearchWindow:        envOrDefaultInt("ALIGN_SEARCH_WINDOW", 5),
			ForceEstimation:     envOrDefaultBool("ALIGN_FORCE_ESTIMATION", false),
		},
		Media: MediaConfig{
			FFprobeBinary: envOrDefault("FFPROBE_BINARY", "ffprobe"),
			ProbeTimeout:  envOrDefaultDuration("PROBE_TIMEOUT", 10*time.Second),
		},
		Jobs: JobsConfig{
			WatchDir:        envOrDefault("JOBS_WATCH_DIR", "./jobs"),
			OutputDir:       envOrDefault("JOBS_OUTPUT_DIR", "./out"),
			LedgerPath:      envOrDefault("JOBS_LEDGER_PATH", "./caption-jobs.db"),
			LockFile:        envOrDefault("JOBS_LOCK_FILE", "./caption-worker.lock"),
			ObfuscationFile: envOrDefault("JOBS_OBFUSCATION_FILE", ""),
			WriteSRT:        envOrDefaultBool("JOBS_WRITE_SRT", true),
		},
		Kafka: KafkaConfig{
			Enabled:       envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:       splitList(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
			ResolvedTopic: envOrDefault("KAFKA_TOPIC_RESOLVED", "caption.timeline.resolved"),
			FailedTopic:   envOrDefault("KAFKA_TOPIC_FAILED", "caption.job.failed"),
			Principal:     envOrDefault("KAFKA_PRINCIPAL", service.Principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).
			Msg("invalid integer in environment, using default")
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Bool("default", def).
			Msg("invalid boolean in environment, using default")
		return def
	}
	return b
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Float64("default", def).
			Msg("invalid float in environment, using default")
		return def
	}
	return f
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).
			Msg("invalid duration in environment, using default")
		return def
	}
	return d
}

// splitList parses a comma-separated value into its non-empty elements.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
