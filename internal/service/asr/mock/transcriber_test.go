package mock

import (
	"context"
	"errors"
	"math"
	"testing"
)

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNew_Defaults(t *testing.T) {
	tr := New(nil, 0)

	if len(tr.Words) != len(DefaultScript) {
		t.Fatalf("expected %d scripted words, got %d", len(DefaultScript), len(tr.Words))
	}
	if !floatEq(tr.Total, 3.6) {
		t.Errorf("expected default total 3.6, got %v", tr.Total)
	}
}

func TestNew_DerivesTotalFromWordCount(t *testing.T) {
	tr := New([]string{"a", "b"}, 0)

	if !floatEq(tr.Total, 0.8) {
		t.Errorf("expected total 0.8 for two words, got %v", tr.Total)
	}
}

func TestTranscribe_ScriptedWords(t *testing.T) {
	tr := New([]string{"hello", "world"}, 1.0)

	result, err := tr.Transcribe(context.Background(), "ignored.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Provider != "mock" {
		t.Errorf("expected provider %q, got %q", "mock", result.Provider)
	}
	if !floatEq(result.Duration, 1.0) {
		t.Errorf("expected duration 1.0, got %v", result.Duration)
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
	if seg.Words[0].Word != "hello" || !floatEq(seg.Words[0].Start, 0.0) || !floatEq(seg.Words[0].End, 0.4) {
		t.Errorf("unexpected first word timing: %+v", seg.Words[0])
	}
	if seg.Words[1].Word != "world" || !floatEq(seg.Words[1].Start, 0.5) || !floatEq(seg.Words[1].End, 0.9) {
		t.Errorf("unexpected second word timing: %+v", seg.Words[1])
	}
	if !floatEq(seg.Start, 0.0) || !floatEq(seg.End, 0.9) {
		t.Errorf("expected segment bounds [0, 0.9], got [%v, %v]", seg.Start, seg.End)
	}
}

func TestTranscribe_WordsDoNotTouch(t *testing.T) {
	tr := New(DefaultScript, 3.6)

	result, err := tr.Transcribe(context.Background(), "ignored.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	words := result.Segments[0].Words
	for i := 1; i < len(words); i++ {
		if words[i-1].End >= words[i].Start {
			t.Errorf("word %d ends at %v, next starts at %v", i-1, words[i-1].End, words[i].Start)
		}
	}
}

func TestTranscribe_Error(t *testing.T) {
	wantErr := errors.New("provider down")
	tr := New([]string{"hi"}, 1.0)
	tr.Err = wantErr

	_, err := tr.Transcribe(context.Background(), "ignored.wav")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected scripted error, got %v", err)
	}
}

func TestTranscribe_CancelledContext(t *testing.T) {
	tr := New([]string{"hi"}, 1.0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Transcribe(ctx, "ignored.wav")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTranscribe_Probability(t *testing.T) {
	tr := New([]string{"a", "b", "c"}, 1.2)
	tr.Probability = 0.85

	result, err := tr.Transcribe(context.Background(), "ignored.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, w := range result.Segments[0].Words {
		if !floatEq(w.Probability, 0.85) {
			t.Errorf("word %d: expected probability 0.85, got %v", i, w.Probability)
		}
	}
}

func TestName(t *testing.T) {
	if got := New(nil, 0).Name(); got != "mock" {
		t.Errorf("expected name %q, got %q", "mock", got)
	}
}

func TestDefaultScript(t *testing.T) {
	if len(DefaultScript) != 9 {
		t.Errorf("expected 9 scripted words, got %d", len(DefaultScript))
	}
	for i, w := range DefaultScript {
		if w == "" {
			t.Errorf("scripted word %d is empty", i)
		}
	}
}
