package scorer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/doronpers/sonotheia/pkg/audio"
)

// defaultTimeout bounds a single remote scoring call. The pipeline's fast
// path budget is 500 ms, so the default stays well inside it only for warm
// backends; operators with slow models should also disable the neural stage
// on the fast path.
const defaultTimeout = 2 * time.Second

// RemoteConfig configures a [Remote] scorer.
type RemoteConfig struct {
	// BaseURL is the inference endpoint root (e.g. "http://scorer:9000").
	// The provider POSTs to BaseURL + "/v1/score".
	BaseURL string

	// APIKey, when set, is sent as a bearer token.
	APIKey string

	// Model optionally selects a model variant on the backend.
	Model string

	// Timeout bounds each scoring call. Default: 2s.
	Timeout time.Duration

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Remote scores audio by calling an external inference service over HTTP.
// The request carries 16-bit PCM (base64) plus the sample rate; the response
// is a JSON object with a "score" field in [0,1].
type Remote struct {
	cfg    RemoteConfig
	client *http.Client
}

// NewRemote creates a [Remote] provider. Returns an error when BaseURL is
// empty.
func NewRemote(cfg RemoteConfig) (*Remote, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("scorer: remote: base_url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Remote{cfg: cfg, client: client}, nil
}

// Name implements [Provider].
func (r *Remote) Name() string { return "remote" }

type scoreRequest struct {
	SampleRate int    `json:"sample_rate"`
	PCM16      string `json:"pcm16"`
	Model      string `json:"model,omitempty"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// Score implements [Provider]. Any transport or backend failure is wrapped
// in [ErrUnavailable] so the model stage fails closed.
func (r *Remote) Score(ctx context.Context, samples []float64, sampleRate int) (float64, error) {
	body, err := json.Marshal(scoreRequest{
		SampleRate: sampleRate,
		PCM16:      base64.StdEncoding.EncodeToString(audio.Float64ToPCM16(samples)),
		Model:      r.cfg.Model,
	})
	if err != nil {
		return 0, fmt.Errorf("scorer: remote: encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("scorer: remote: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: backend returned %s", ErrUnavailable, resp.Status)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if out.Score < 0 || out.Score > 1 {
		return 0, fmt.Errorf("scorer: remote: score %f outside [0,1]", out.Score)
	}
	return out.Score, nil
}
