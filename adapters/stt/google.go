package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shiksha-ai/server/domain/repositories"
	"github.com/shiksha-ai/server/internal/apperr"
)

// opusSampleRate is used when the caller does not know the rate; Opus
// decoders always run at 48kHz.
const opusSampleRate = 48000

type recognizeClient interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
	Close() error
}

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	client recognizeClient
	logger *zap.Logger
}

// Ensure GoogleSpeechToText implements the SpeechToText interface
var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a client using Application Default Credentials
func NewGoogleSpeechToText(ctx context.Context, logger *zap.Logger) (*GoogleSpeechToText, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &GoogleSpeechToText{client: client, logger: logger}, nil
}

// Close releases the underlying gRPC connection
func (g *GoogleSpeechToText) Close() error {
	return g.client.Close()
}

// Recognize transcribes a complete clip with word timings and confidences
func (g *GoogleSpeechToText) Recognize(ctx context.Context, audioData []byte, config repositories.AudioConfig) (*repositories.RecognitionPayload, error) {
	encoding := getAudioEncoding(config.MimeType)

	sampleRate := int32(config.SampleRate)
	if sampleRate == 0 && (encoding == speechpb.RecognitionConfig_OGG_OPUS || encoding == speechpb.RecognitionConfig_WEBM_OPUS) {
		sampleRate = opusSampleRate
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            sampleRate,
			LanguageCode:               config.Locale,
			AlternativeLanguageCodes:   config.AlternativeLocales,
			EnableWordTimeOffsets:      true,
			EnableWordConfidence:       true,
			EnableAutomaticPunctuation: true,
			MaxAlternatives:            2,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	}

	g.logger.Debug("Sending recognize request",
		zap.String("locale", config.Locale),
		zap.String("encoding", encoding.String()),
		zap.Int("bytes", len(audioData)))

	resp, err := g.client.Recognize(ctx, req)
	if err != nil {
		g.logger.Error("Speech recognition failed", zap.Error(err))
		return nil, classifyError(err)
	}
	return toPayload(resp), nil
}

// toPayload maps the protobuf response onto the provider-neutral payload.
// Google reports 0 for confidences it did not compute.
func toPayload(resp *speechpb.RecognizeResponse) *repositories.RecognitionPayload {
	payload := &repositories.RecognitionPayload{}
	for _, result := range resp.GetResults() {
		seg := repositories.RecognitionSegment{Locale: result.GetLanguageCode()}
		for _, alt := range result.GetAlternatives() {
			a := repositories.RecognitionAlternative{
				Transcript: alt.GetTranscript(),
				Confidence: confidence(alt.GetConfidence()),
			}
			for _, w := range alt.GetWords() {
				a.Words = append(a.Words, repositories.RecognizedWord{
					Word:       w.GetWord(),
					Start:      w.GetStartTime().AsDuration().Seconds(),
					End:        w.GetEndTime().AsDuration().Seconds(),
					Confidence: confidence(w.GetConfidence()),
				})
			}
			seg.Alternatives = append(seg.Alternatives, a)
		}
		if payload.Locale == "" {
			payload.Locale = seg.Locale
		}
		payload.Segments = append(payload.Segments, seg)
	}
	return payload
}

func confidence(v float32) *float64 {
	if v == 0 {
		return nil
	}
	f := float64(v)
	return &f
}

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("failed to recognize speech: %w", err)
	}
	switch st.Code() {
	case codes.ResourceExhausted:
		return apperr.Wrap(err, apperr.UpstreamQuotaExceeded, "Speech recognition quota exceeded. Please try again later")
	case codes.InvalidArgument, codes.OutOfRange:
		return apperr.Wrap(err, apperr.UpstreamInputRejected, "The audio could not be processed. Check the format and length")
	case codes.Canceled:
		return err
	default:
		return fmt.Errorf("failed to recognize speech: %w", err)
	}
}

// getAudioEncoding converts an upload media type to the Speech API enum.
// Containers the API cannot decode map to unspecified and are rejected
// upstream.
func getAudioEncoding(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	base, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(base) {
	case "audio/wav", "audio/wave", "audio/x-wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "audio/flac", "audio/x-flac":
		return speechpb.RecognitionConfig_FLAC
	case "audio/ogg":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "audio/webm":
		return speechpb.RecognitionConfig_WEBM_OPUS
	case "audio/mpeg", "audio/mp3":
		return speechpb.RecognitionConfig_MP3
	case "audio/amr":
		return speechpb.RecognitionConfig_AMR
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
