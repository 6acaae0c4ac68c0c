// Package gspeech implements api.Transcriber on top of the Google Cloud
// Speech-to-Text REST API. Both the v1 and v1p1beta1 versions are supported.
package gspeech

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	speechv1 "google.golang.org/api/speech/v1"
	speechv1p1beta1 "google.golang.org/api/speech/v1p1beta1"
)

// Defaults applied to a zero Config.
const (
	DefaultSampleRateHertz = 16000
	DefaultLanguageCode    = "en-US"
	DefaultRetryDelay      = 2 * time.Second
)

// Encoding is the audio encoding sent with every request.
const Encoding = "LINEAR16"

// Config holds configuration shared by both API versions.
type Config struct {
	// SampleRateHertz is the sample rate of the audio. Defaults to 16000.
	SampleRateHertz int64
	// LanguageCode is a BCP-47 language tag. Defaults to en-US.
	LanguageCode string
	// RetryDelay is the delay between attempts on transient API errors.
	RetryDelay time.Duration
}

func (cfg *Config) setDefaults() {
	if cfg.SampleRateHertz <= 0 {
		cfg.SampleRateHertz = DefaultSampleRateHertz
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = DefaultLanguageCode
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
}

// recognizeFunc sends base64 audio content and returns the first transcript,
// or "" when the API recognized nothing.
type recognizeFunc func(ctx context.Context, content string) (string, error)

// transcriber holds the behavior common to every API version.
type transcriber struct {
	cfg       Config
	logger    *slog.Logger
	recognize recognizeFunc
}

// Transcribe returns the lowercased, trimmed transcript of audio. Empty audio
// returns "" without calling the API.
func (t *transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	content := base64.StdEncoding.EncodeToString(audio)

	var transcript string
	err := retry.Do(
		func() error {
			var err error
			transcript, err = t.recognize(ctx, content)
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) &&
				(apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusServiceUnavailable) {
				t.logger.Warn("transient speech API error, will retry", "code", apiErr.Code, "error", err)
				return true
			}
			return false
		}),
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(t.cfg.RetryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("recognizing speech: %w", err)
	}

	transcript = strings.ToLower(strings.TrimSpace(transcript))
	t.logger.Debug("transcribed audio", "bytes", len(audio), "transcript", transcript)
	return transcript, nil
}

// V1 transcribes audio with the speech/v1 API.
type V1 struct {
	transcriber
	service *speechv1.Service
}

// NewV1 creates a v1 transcriber. opts are passed to the Speech client.
func NewV1(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*V1, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()

	service, err := speechv1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech v1 service: %w", err)
	}

	t := &V1{service: service}
	t.transcriber = transcriber{cfg: cfg, logger: logger, recognize: t.recognize}

	logger.Info("speech v1 transcriber initialized", "language", cfg.LanguageCode, "sample_rate", cfg.SampleRateHertz)
	return t, nil
}

func (t *V1) recognize(ctx context.Context, content string) (string, error) {
	resp, err := t.service.Speech.Recognize(&speechv1.RecognizeRequest{
		Config: &speechv1.RecognitionConfig{
			Encoding:        Encoding,
			SampleRateHertz: t.cfg.SampleRateHertz,
			LanguageCode:    t.cfg.LanguageCode,
		},
		Audio: &speechv1.RecognitionAudio{Content: content},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			return result.Alternatives[0].Transcript, nil
		}
	}
	return "", nil
}

// V1p1beta1 transcribes audio with the speech/v1p1beta1 API.
type V1p1beta1 struct {
	transcriber
	service *speechv1p1beta1.Service
}

// NewV1p1beta1 creates a v1p1beta1 transcriber. opts are passed to the Speech
// client.
func NewV1p1beta1(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*V1p1beta1, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.setDefaults()

	service, err := speechv1p1beta1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating speech v1p1beta1 service: %w", err)
	}

	t := &V1p1beta1{service: service}
	t.transcriber = transcriber{cfg: cfg, logger: logger, recognize: t.recognize}

	logger.Info("speech v1p1beta1 transcriber initialized", "language", cfg.LanguageCode, "sample_rate", cfg.SampleRateHertz)
	return t, nil
}

func (t *V1p1beta1) recognize(ctx context.Context, content string) (string, error) {
	resp, err := t.service.Speech.Recognize(&speechv1p1beta1.RecognizeRequest{
		Config: &speechv1p1beta1.RecognitionConfig{
			Encoding:        Encoding,
			SampleRateHertz: t.cfg.SampleRateHertz,
			LanguageCode:    t.cfg.LanguageCode,
		},
		Audio: &speechv1p1beta1.RecognitionAudio{Content: content},
	}).Context(ctx).Do()
	if err != nil {
		return "", err
	}

	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			return result.Alternatives[0].Transcript, nil
		}
	}
	return "", nil
}
