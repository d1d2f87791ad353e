package scorer_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doronpers/sonotheia/pkg/scorer"
)

func TestNewRemote_RequiresBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := scorer.NewRemote(scorer.RemoteConfig{}); err == nil {
		t.Fatal("expected error for missing base_url")
	}
}

func TestRemote_Score(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/score" {
			t.Errorf("path = %q; want /v1/score", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("auth header = %q", got)
		}
		var req struct {
			SampleRate int    `json:"sample_rate"`
			PCM16      string `json:"pcm16"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.SampleRate != 16000 {
			t.Errorf("sample_rate = %d; want 16000", req.SampleRate)
		}
		if req.PCM16 == "" {
			t.Error("expected base64 PCM payload")
		}
		json.NewEncoder(w).Encode(map[string]float64{"score": 0.83})
	}))
	defer srv.Close()

	r, err := scorer.NewRemote(scorer.RemoteConfig{BaseURL: srv.URL, APIKey: "sekrit"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	score, err := r.Score(context.Background(), make([]float64, 1600), 16000)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score != 0.83 {
		t.Errorf("score = %f; want 0.83", score)
	}
}

func TestRemote_BackendErrorIsUnavailable(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	r, err := scorer.NewRemote(scorer.RemoteConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := r.Score(context.Background(), nil, 16000); !errors.Is(err, scorer.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRemote_UnreachableIsUnavailable(t *testing.T) {
	t.Parallel()
	r, err := scorer.NewRemote(scorer.RemoteConfig{BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := r.Score(context.Background(), nil, 16000); !errors.Is(err, scorer.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRemote_RejectsOutOfRangeScore(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"score": 1.7})
	}))
	defer srv.Close()

	r, err := scorer.NewRemote(scorer.RemoteConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	if _, err := r.Score(context.Background(), nil, 16000); err == nil {
		t.Fatal("expected error for out-of-range score")
	}
}
