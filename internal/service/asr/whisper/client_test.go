package whisper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// newTestClient points a Client at the given test server with fast retries.
func newTestClient(ts *httptest.Server) *Client {
	c := New(Config{
		BaseURL:  ts.URL,
		Model:    "small",
		Language: "en",
		Timeout:  5 * time.Second,
		Retries:  3,
	}, zerolog.Nop())
	c.backoffBase = time.Millisecond
	return c
}

func createTempAudio(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "audio-*.wav")
	if err != nil {
		t.Fatalf("create temp audio: %v", err)
	}
	_, _ = f.WriteString("fake-audio-data")
	f.Close()
	return f.Name()
}

func validTranscribeResponse() string {
	return `{
		"segments": [
			{
				"text": "hello world",
				"start": 0.1,
				"end": 1.0,
				"words": [
					{"word": "hello", "start": 0.1, "end": 0.5, "probability": 0.97},
					{"word": "world", "start": 0.55, "end": 1.0, "probability": 0.92}
				]
			}
		],
		"language": "en",
		"duration": 1.2
	}`
}

func TestTranscribe_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/transcribe" {
			t.Errorf("expected /v1/transcribe, got %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart content-type, got %s", r.Header.Get("Content-Type"))
		}

		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "small" {
			t.Errorf("expected model=small, got %q", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("expected language=en, got %q", got)
		}
		if got := r.FormValue("word_timestamps"); got != "true" {
			t.Errorf("expected word_timestamps=true, got %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected file field: %v", err)
		}
		defer file.Close()
		if header.Filename == "" {
			t.Error("expected non-empty filename")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, validTranscribeResponse())
	}))
	defer ts.Close()

	c := newTestClient(ts)
	result, err := c.Transcribe(context.Background(), createTempAudio(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Provider != "whisper" {
		t.Errorf("expected provider %q, got %q", "whisper", result.Provider)
	}
	if result.Language != "en" {
		t.Errorf("expected language %q, got %q", "en", result.Language)
	}
	if result.Duration != 1.2 {
		t.Errorf("expected duration 1.2, got %v", result.Duration)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(result.Segments))
	}

	seg := result.Segments[0]
	if seg.Text != "hello world" {
		t.Errorf("expected text %q, got %q", "hello world", seg.Text)
	}
	if len(seg.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(seg.Words))
	}
	if seg.Words[0].Word != "hello" || seg.Words[0].Start != 0.1 || seg.Words[0].End != 0.5 {
		t.Errorf("unexpected first word: %+v", seg.Words[0])
	}
	if seg.Words[1].Probability != 0.92 {
		t.Errorf("expected probability 0.92, got %v", seg.Words[1].Probability)
	}
}

func TestTranscribe_RetryOn500(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the request body to avoid broken pipe on early responses.
		_, _ = io.ReadAll(r.Body)
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error": "temporary failure"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, validTranscribeResponse())
	}))
	defer ts.Close()

	c := newTestClient(ts)
	result, err := c.Transcribe(context.Background(), createTempAudio(t))
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if len(result.Segments) != 1 {
		t.Errorf("expected 1 segment, got %d", len(result.Segments))
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls (2 failures + 1 success), got %d", got)
	}
}

func TestTranscribe_RetriesExhausted(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Transcribe(context.Background(), createTempAudio(t))
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if !strings.Contains(err.Error(), "retries exhausted") {
		t.Errorf("expected retries exhausted error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("expected 4 calls (1 initial + 3 retries), got %d", got)
	}
}

func TestTranscribe_BadRequestNoRetry(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": "unsupported format"}`)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Transcribe(context.Background(), createTempAudio(t))
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call (no retry on 400), got %d", got)
	}
}

func TestTranscribe_BearerToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret-token" {
			t.Errorf("expected Bearer auth header, got %q", auth)
		}
		_, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, validTranscribeResponse())
	}))
	defer ts.Close()

	c := newTestClient(ts)
	c.cfg.Token = "secret-token"

	if _, err := c.Transcribe(context.Background(), createTempAudio(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTranscribe_MalformedResponse(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "not json")
	}))
	defer ts.Close()

	c := newTestClient(ts)
	_, err := c.Transcribe(context.Background(), createTempAudio(t))
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode response") {
		t.Errorf("expected decode error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected 1 call (no retry on bad payload), got %d", got)
	}
}

func TestTranscribe_FileNotFound(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost"}, zerolog.Nop())

	_, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost"}, zerolog.Nop())

	if c.cfg.Timeout != 120*time.Second {
		t.Errorf("expected default timeout 120s, got %v", c.cfg.Timeout)
	}
	if c.cfg.Retries != 3 {
		t.Errorf("expected default retries 3, got %d", c.cfg.Retries)
	}
	if c.cfg.Model != "small" {
		t.Errorf("expected default model %q, got %q", "small", c.cfg.Model)
	}
}

func TestName(t *testing.T) {
	c := New(Config{BaseURL: "http://localhost"}, zerolog.Nop())
	if c.Name() != "whisper" {
		t.Errorf("expected name %q, got %q", "whisper", c.Name())
	}
}
