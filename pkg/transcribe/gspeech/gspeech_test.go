package gspeech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

type recognizeRequest struct {
	Config struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int64  `json:"sampleRateHertz"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type fakeSpeech struct {
	version    string
	transcript string
	failures   int32
	failCode   int
	calls      atomic.Int32
	last       recognizeRequest
}

func (f *fakeSpeech) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/"+f.version+"/speech:recognize" {
		http.NotFound(w, r)
		return
	}
	n := f.calls.Add(1)
	if n <= f.failures {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.failCode)
		_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"try again"}}`, f.failCode)
		return
	}

	_ = json.NewDecoder(r.Body).Decode(&f.last)

	resp := map[string]any{}
	if f.transcript != "" {
		resp["results"] = []any{
			map[string]any{"alternatives": []any{map[string]any{"transcript": f.transcript, "confidence": 0.9}}},
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func newFake(t *testing.T, version string, f *fakeSpeech) []option.ClientOption {
	t.Helper()
	f.version = version
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return []option.ClientOption{option.WithEndpoint(srv.URL + "/"), option.WithHTTPClient(srv.Client())}
}

func constructors() map[string]func(context.Context, Config, []option.ClientOption) (api.Transcriber, error) {
	return map[string]func(context.Context, Config, []option.ClientOption) (api.Transcriber, error){
		"v1": func(ctx context.Context, cfg Config, opts []option.ClientOption) (api.Transcriber, error) {
			return NewV1(ctx, cfg, nil, opts...)
		},
		"v1p1beta1": func(ctx context.Context, cfg Config, opts []option.ClientOption) (api.Transcriber, error) {
			return NewV1p1beta1(ctx, cfg, nil, opts...)
		},
	}
}

func TestTranscribe(t *testing.T) {
	for version, newTranscriber := range constructors() {
		t.Run(version, func(t *testing.T) {
			fake := &fakeSpeech{transcript: "  Transfer 5000 to UBA 1234567890 "}
			tr, err := newTranscriber(context.Background(), Config{}, newFake(t, version, fake))
			require.NoError(t, err)

			audio := []byte{0x01, 0x02, 0x03, 0x04}
			got, err := tr.Transcribe(context.Background(), audio)
			require.NoError(t, err)
			assert.Equal(t, "transfer 5000 to uba 1234567890", got)

			assert.Equal(t, "LINEAR16", fake.last.Config.Encoding)
			assert.Equal(t, int64(16000), fake.last.Config.SampleRateHertz)
			assert.Equal(t, "en-US", fake.last.Config.LanguageCode)
			assert.Equal(t, base64.StdEncoding.EncodeToString(audio), fake.last.Audio.Content)
		})
	}
}

func TestTranscribe_NoResults(t *testing.T) {
	for version, newTranscriber := range constructors() {
		t.Run(version, func(t *testing.T) {
			fake := &fakeSpeech{}
			tr, err := newTranscriber(context.Background(), Config{LanguageCode: "en-NG", SampleRateHertz: 8000}, newFake(t, version, fake))
			require.NoError(t, err)

			got, err := tr.Transcribe(context.Background(), []byte("noise"))
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.Equal(t, "en-NG", fake.last.Config.LanguageCode)
			assert.Equal(t, int64(8000), fake.last.Config.SampleRateHertz)
		})
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	fake := &fakeSpeech{transcript: "ignored"}
	tr, err := NewV1(context.Background(), Config{}, nil, newFake(t, "v1", fake)...)
	require.NoError(t, err)

	got, err := tr.Transcribe(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, fake.calls.Load())
}

func TestTranscribe_Retries(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		failures int32
		wantErr  bool
		calls    int32
	}{
		{"rate limited then ok", http.StatusTooManyRequests, 2, false, 3},
		{"unavailable then ok", http.StatusServiceUnavailable, 1, false, 2},
		{"unavailable too long", http.StatusServiceUnavailable, 5, true, 3},
		{"bad request not retried", http.StatusBadRequest, 1, true, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeSpeech{transcript: "buy airtime 500 for 08011112222", failures: tc.failures, failCode: tc.code}
			tr, err := NewV1(context.Background(), Config{RetryDelay: time.Millisecond}, nil, newFake(t, "v1", fake)...)
			require.NoError(t, err)

			got, err := tr.Transcribe(context.Background(), []byte("audio"))
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "buy airtime 500 for 08011112222", got)
			}
			assert.Equal(t, tc.calls, fake.calls.Load())
		})
	}
}
