package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear relevant env vars
	envVars := []string{
		"SERVICE_PRINCIPAL", "HTTP_PORT", "ENV", "LOG_LEVEL", "METRICS_PORT",
		"ASR_PROVIDER", "ASR_LANGUAGE_CODE", "ASR_SAMPLE_RATE_HZ",
		"ASR_AUDIO_ENCODING", "ASR_REQUEST_TIMEOUT", "ASR_RETRIES",
		"ALIGN_MATCH_RATIO_THRESHOLD", "ALIGN_SEARCH_WINDOW", "ALIGN_FORCE_ESTIMATION",
		"FFPROBE_BINARY", "PROBE_TIMEOUT",
		"JOBS_WATCH_DIR", "JOBS_OUTPUT_DIR", "JOBS_LEDGER_PATH", "JOBS_WRITE_SRT",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC_RESOLVED", "KAFKA_TOPIC_FAILED",
		"KAFKA_PRINCIPAL",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	// Service defaults
	if cfg.Service.Principal != "svc-caption-timing" {
		t.Errorf("expected default principal 'svc-caption-timing', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Service.HTTPPort)
	}

	// ASR defaults
	if cfg.ASR.Provider != "mock" {
		t.Errorf("expected default ASR provider 'mock', got %s", cfg.ASR.Provider)
	}
	if cfg.ASR.LanguageCode != "en-US" {
		t.Errorf("expected default language 'en-US', got %s", cfg.ASR.LanguageCode)
	}
	if cfg.ASR.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.ASR.SampleRateHz)
	}
	if cfg.ASR.AudioEncoding != "LINEAR16" {
		t.Errorf("expected default encoding 'LINEAR16', got %s", cfg.ASR.AudioEncoding)
	}
	if cfg.ASR.RequestTimeout != 120*time.Second {
		t.Errorf("expected default ASR timeout 120s, got %v", cfg.ASR.RequestTimeout)
	}

	// Align defaults
	if cfg.Align.MatchRatioThreshold != 0.7 {
		t.Errorf("expected default match ratio threshold 0.7, got %v", cfg.Align.MatchRatioThreshold)
	}
	if cfg.Align.SearchWindow != 5 {
		t.Errorf("expected default search window 5, got %d", cfg.Align.SearchWindow)
	}
	if cfg.Align.ForceEstimation {
		t.Error("expected force estimation off by default")
	}

	// Jobs defaults
	if cfg.Jobs.WatchDir != "./jobs" {
		t.Errorf("expected default watch dir './jobs', got %s", cfg.Jobs.WatchDir)
	}
	if !cfg.Jobs.WriteSRT {
		t.Error("expected SRT export on by default")
	}

	// Kafka defaults
	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Kafka.ResolvedTopic != "caption.timeline.resolved" {
		t.Errorf("expected default resolved topic, got %s", cfg.Kafka.ResolvedTopic)
	}
	if cfg.Kafka.FailedTopic != "caption.job.failed" {
		t.Errorf("expected default failed topic, got %s", cfg.Kafka.FailedTopic)
	}

	// Observability defaults
	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
	if cfg.Observability.MetricsPort != "9090" {
		t.Errorf("expected default metrics port '9090', got %s", cfg.Observability.MetricsPort)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "custom-principal")
	os.Setenv("HTTP_PORT", "9999")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("ASR_PROVIDER", "google")
	os.Setenv("ASR_LANGUAGE_CODE", "es-ES")
	os.Setenv("ASR_SAMPLE_RATE_HZ", "8000")
	os.Setenv("ASR_AUDIO_ENCODING", "MULAW")
	os.Setenv("ALIGN_MATCH_RATIO_THRESHOLD", "0.5")
	os.Setenv("ALIGN_SEARCH_WINDOW", "8")
	os.Setenv("ALIGN_FORCE_ESTIMATION", "true")
	os.Setenv("PROBE_TIMEOUT", "30s")
	os.Setenv("KAFKA_ENABLED", "true")
	os.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	defer func() {
		os.Unsetenv("SERVICE_PRINCIPAL")
		os.Unsetenv("HTTP_PORT")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("ASR_PROVIDER")
		os.Unsetenv("ASR_LANGUAGE_CODE")
		os.Unsetenv("ASR_SAMPLE_RATE_HZ")
		os.Unsetenv("ASR_AUDIO_ENCODING")
		os.Unsetenv("ALIGN_MATCH_RATIO_THRESHOLD")
		os.Unsetenv("ALIGN_SEARCH_WINDOW")
		os.Unsetenv("ALIGN_FORCE_ESTIMATION")
		os.Unsetenv("PROBE_TIMEOUT")
		os.Unsetenv("KAFKA_ENABLED")
		os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg := Load()

	if cfg.Service.Principal != "custom-principal" {
		t.Errorf("expected principal 'custom-principal', got %s", cfg.Service.Principal)
	}
	if cfg.Service.HTTPPort != "9999" {
		t.Errorf("expected port '9999', got %s", cfg.Service.HTTPPort)
	}
	if cfg.ASR.Provider != "google" {
		t.Errorf("expected ASR provider 'google', got %s", cfg.ASR.Provider)
	}
	if cfg.ASR.LanguageCode != "es-ES" {
		t.Errorf("expected language 'es-ES', got %s", cfg.ASR.LanguageCode)
	}
	if cfg.ASR.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.ASR.SampleRateHz)
	}
	if cfg.ASR.AudioEncoding != "MULAW" {
		t.Errorf("expected encoding 'MULAW', got %s", cfg.ASR.AudioEncoding)
	}
	if cfg.Align.MatchRatioThreshold != 0.5 {
		t.Errorf("expected match ratio threshold 0.5, got %v", cfg.Align.MatchRatioThreshold)
	}
	if cfg.Align.SearchWindow != 8 {
		t.Errorf("expected search window 8, got %d", cfg.Align.SearchWindow)
	}
	if !cfg.Align.ForceEstimation {
		t.Error("expected force estimation on")
	}
	if cfg.Media.ProbeTimeout != 30*time.Second {
		t.Errorf("expected probe timeout 30s, got %v", cfg.Media.ProbeTimeout)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if expected := []string{"k1:9092", "k2:9092"}; !reflect.DeepEqual(cfg.Kafka.Brokers, expected) {
		t.Errorf("expected brokers %v, got %v", expected, cfg.Kafka.Brokers)
	}
	if cfg.Observability.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_InvalidValues_FallbackToDefaults(t *testing.T) {
	os.Setenv("ASR_SAMPLE_RATE_HZ", "not-a-number")
	os.Setenv("ALIGN_MATCH_RATIO_THRESHOLD", "invalid")
	os.Setenv("ALIGN_SEARCH_WINDOW", "invalid")
	os.Setenv("ALIGN_FORCE_ESTIMATION", "invalid")
	os.Setenv("PROBE_TIMEOUT", "invalid")

	defer func() {
		os.Unsetenv("ASR_SAMPLE_RATE_HZ")
		os.Unsetenv("ALIGN_MATCH_RATIO_THRESHOLD")
		os.Unsetenv("ALIGN_SEARCH_WINDOW")
		os.Unsetenv("ALIGN_FORCE_ESTIMATION")
		os.Unsetenv("PROBE_TIMEOUT")
	}()

	cfg := Load()

	if cfg.ASR.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate on invalid input, got %d", cfg.ASR.SampleRateHz)
	}
	if cfg.Align.MatchRatioThreshold != 0.7 {
		t.Errorf("expected default threshold on invalid input, got %v", cfg.Align.MatchRatioThreshold)
	}
	if cfg.Align.SearchWindow != 5 {
		t.Errorf("expected default search window on invalid input, got %d", cfg.Align.SearchWindow)
	}
	if cfg.Align.ForceEstimation {
		t.Error("expected default force estimation on invalid input")
	}
	if cfg.Media.ProbeTimeout != 10*time.Second {
		t.Errorf("expected default probe timeout on invalid input, got %v", cfg.Media.ProbeTimeout)
	}
}

func TestLoad_KafkaPrincipal_FallsBackToServicePrincipal(t *testing.T) {
	os.Setenv("SERVICE_PRINCIPAL", "my-service")
	os.Unsetenv("KAFKA_PRINCIPAL")

	defer os.Unsetenv("SERVICE_PRINCIPAL")

	cfg := Load()

	if cfg.Kafka.Principal != "my-service" {
		t.Errorf("expected Kafka principal to fall back to service principal, got %s", cfg.Kafka.Principal)
	}
}

func TestEnvOrDefaultBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		def      bool
		expected bool
	}{
		{"true string", "true", false, true},
		{"false string", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"TRUE uppercase", "TRUE", false, true},
		{"invalid", "invalid", true, true},
		{"empty", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_BOOL_VAR"
			if tt.envValue != "" {
				os.Setenv(key, tt.envValue)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envOrDefaultBool(key, tt.def)
			if got != tt.expected {
				t.Errorf("envOrDefaultBool(%s, %v) = %v, want %v", tt.envValue, tt.def, got, tt.expected)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in       string
		expected []string
	}{
		{"a:9092", []string{"a:9092"}},
		{"a:9092,b:9092", []string{"a:9092", "b:9092"}},
		{" a:9092 , b:9092 ", []string{"a:9092", "b:9092"}},
		{"a:9092,,b:9092", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		if got := splitList(tt.in); !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("splitList(%q) = %v, want %v", tt.in, got, tt.expected)
		}
	}
}
