package captions

import (
	"bytes"
	"strings"
	"testing"

	"caption-timing-service/internal/models"
)

func TestWriteSRT(t *testing.T) {
	words := []models.WordTiming{
		{Word: "Hello", Start: 0.1, End: 0.5},
		{Word: "world", Start: 0.6, End: 1.25},
	}

	var buf bytes.Buffer
	if err := WriteSRT(&buf, words, nil); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}

	expected := "1\n00:00:00,100 --> 00:00:00,500\nHello\n\n" +
		"2\n00:00:00,600 --> 00:00:01,250\nworld\n\n"
	if buf.String() != expected {
		t.Errorf("expected:\n%q\ngot:\n%q", expected, buf.String())
	}
}

func TestWriteSRT_AppliesReplacement(t *testing.T) {
	words := []models.WordTiming{{Word: "bomb", Start: 0, End: 0.5}}

	var buf bytes.Buffer
	replace := func(w string) string {
		if w == "bomb" {
			return "thing"
		}
		return w
	}
	if err := WriteSRT(&buf, words, replace); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}

	if !strings.Contains(buf.String(), "thing") || strings.Contains(buf.String(), "bomb") {
		t.Errorf("expected cue text replaced, got %q", buf.String())
	}
}

func TestWriteSRT_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSRT(&buf, nil, nil); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output for empty timeline, got %q", buf.String())
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.25, "00:01:01,250"},
		{3661.999, "01:01:01,999"},
		{-1, "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := formatTimestamp(tt.seconds); got != tt.expected {
			t.Errorf("formatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.expected)
		}
	}
}
