// Package googlestt provides a transcriber backed by Google Cloud
// Speech-to-Text batch recognition with word time offsets.
package googlestt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/status"

	"caption-timing-service/internal/service/asr"
)

// Config configures the recognition request.
type Config struct {
	LanguageCode    string // default "en-US"
	SampleRateHertz int32
	Encoding        string // LINEAR16, FLAC, MULAW, OGG_OPUS, WEBM_OPUS
}

// Adapter implements asr.Transcriber using Google Cloud Speech-to-Text.
type Adapter struct {
	client *speech.Client
	cfg    Config
}

// New creates a Google STT adapter.
// Requires GOOGLE_APPLICATION_CREDENTIALS to be set in the environment.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	return &Adapter{client: c, cfg: cfg}, nil
}

// Name returns the provider identifier.
func (a *Adapter) Name() string {
	return "google"
}

// Transcribe runs synchronous recognition on the audio file and returns
// word-level timings.
func (a *Adapter) Transcribe(ctx context.Context, path string) (*asr.Result, error) {
	audio, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}

	resp, err := a.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              encodingFor(a.cfg.Encoding),
			SampleRateHertz:       a.cfg.SampleRateHertz,
			LanguageCode:          a.cfg.LanguageCode,
			EnableWordTimeOffsets: true,
			EnableWordConfidence:  true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		if s, ok := status.FromError(err); ok {
			return nil, fmt.Errorf("recognize (%s): %w", s.Code(), err)
		}
		return nil, fmt.Errorf("recognize: %w", err)
	}

	return mapResponse(resp, a.cfg.LanguageCode), nil
}

// Close releases the underlying gRPC connection.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// mapResponse converts the recognition response into the provider-neutral
// result shape. Each alternative becomes one segment spanning its words.
func mapResponse(resp *speechpb.RecognizeResponse, language string) *asr.Result {
	result := &asr.Result{
		Language: language,
		Provider: "google",
	}
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		alt := alts[0]

		seg := asr.Segment{
			Text:  alt.GetTranscript(),
			Words: make([]asr.Word, 0, len(alt.GetWords())),
		}
		for _, w := range alt.GetWords() {
			seg.Words = append(seg.Words, asr.Word{
				Word:        w.GetWord(),
				Start:       w.GetStartTime().AsDuration().Seconds(),
				End:         w.GetEndTime().AsDuration().Seconds(),
				Probability: float64(w.GetConfidence()),
			})
		}
		if n := len(seg.Words); n > 0 {
			seg.Start = seg.Words[0].Start
			seg.End = seg.Words[n-1].End
			result.Duration = seg.End
		}
		result.Segments = append(result.Segments, seg)
	}
	return result
}

func encodingFor(name string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToUpper(name) {
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_LINEAR16
	}
}

var _ asr.Transcriber = (*Adapter)(nil)
