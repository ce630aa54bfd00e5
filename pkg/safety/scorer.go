package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mindhaven/bastion/pkg/httputil"
)

// ErrBlankText is returned when a scorer is asked to score empty or
// whitespace-only input. Callers must not swallow this into a zero score.
var ErrBlankText = errors.New("safety: blank text")

// RiskScorer produces an optional model-backed risk score for a message.
// Score returns a value in [0,1] with ok=true when a score is available, and
// ok=false when the backing model is unreachable or has no usable signal.
// Blank input is a caller error, not an absent score.
type RiskScorer interface {
	Score(ctx context.Context, text string) (score float64, ok bool, err error)
}

// NoopScorer is the scorer used when no model backend is configured.
// It validates input and reports no score.
type NoopScorer struct{}

func (NoopScorer) Score(_ context.Context, text string) (float64, bool, error) {
	if strings.TrimSpace(text) == "" {
		return 0, false, ErrBlankText
	}
	return 0, false, nil
}

// RemoteScorer calls an external HTTP risk-scoring service.
type RemoteScorer struct {
	baseURL string
	client  *http.Client
}

// NewRemoteScorer creates a scorer against the given base URL. Model-backed
// scoring can be slow, so it uses the slow shared client.
func NewRemoteScorer(baseURL string) *RemoteScorer {
	return &RemoteScorer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.SlowClient(),
	}
}

type scoreRequest struct {
	Text string `json:"text"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// Score posts the message to the scoring service and returns its risk score
// clamped to [0,1].
func (s *RemoteScorer) Score(ctx context.Context, text string) (float64, bool, error) {
	if strings.TrimSpace(text) == "" {
		return 0, false, ErrBlankText
	}

	body, err := json.Marshal(scoreRequest{Text: text})
	if err != nil {
		return 0, false, fmt.Errorf("safety: marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, false, fmt.Errorf("safety: build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("safety: score request: %w", err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		errBody, _ := httputil.ReadErrorBody(resp.Body)
		return 0, false, fmt.Errorf("safety: score service returned %d: %s", resp.StatusCode, string(errBody))
	}

	raw, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
	if err != nil {
		return 0, false, fmt.Errorf("safety: read score response: %w", err)
	}

	var out scoreResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return 0, false, fmt.Errorf("safety: decode score response: %w", err)
	}

	return clampScore(out.Score), true, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
