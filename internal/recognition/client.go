// Package recognition wraps the food image analysis service. Upstream
// failures degrade to a clearly marked low-confidence placeholder so a
// broken analyzer never blocks entry creation.
package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Analysis is the recognized food estimate for one image.
type Analysis struct {
	FoodName   string             `json:"food_name"`
	Calories   int64              `json:"calories"`
	Confidence float64            `json:"confidence"`
	Nutrients  map[string]float64 `json:"nutrients"`
	Fallback   bool               `json:"fallback"`
}

// Analyzer produces calorie estimates from food images.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (Analysis, error)
}

// Client calls the recognition HTTP service.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient constructs a Client for the service base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Analyze submits the image once, retries once with a JPEG MIME type, and
// falls back to a placeholder estimate when both attempts fail.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType string) (Analysis, error) {
	result, errFirst := c.analyzeOnce(ctx, image, mimeType)
	if errFirst == nil {
		return result, nil
	}
	if mimeType != "image/jpeg" {
		retried, errRetry := c.analyzeOnce(ctx, image, "image/jpeg")
		if errRetry == nil {
			return retried, nil
		}
		errFirst = errRetry
	}
	log.WithError(errFirst).Warn("recognition: analysis failed, returning placeholder")
	return PlaceholderAnalysis(), nil
}

func (c *Client) analyzeOnce(ctx context.Context, image []byte, mimeType string) (Analysis, error) {
	if c.baseURL == "" {
		return Analysis{}, fmt.Errorf("recognition: missing base url")
	}

	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(image))
	if errReq != nil {
		return Analysis{}, fmt.Errorf("recognition: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, errDo := c.client.Do(req)
	if errDo != nil {
		return Analysis{}, fmt.Errorf("recognition: analyze request: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Analysis{}, fmt.Errorf("recognition: unexpected status %d", resp.StatusCode)
	}

	raw, errRead := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if errRead != nil {
		return Analysis{}, fmt.Errorf("recognition: read response: %w", errRead)
	}

	var result Analysis
	if errUnmarshal := json.Unmarshal(raw, &result); errUnmarshal != nil {
		return Analysis{}, fmt.Errorf("recognition: decode response: %w", errUnmarshal)
	}
	if strings.TrimSpace(result.FoodName) == "" {
		return Analysis{}, fmt.Errorf("recognition: empty result")
	}
	return result, nil
}

// PlaceholderAnalysis is the degraded estimate persisted when the upstream
// analyzer is unavailable.
func PlaceholderAnalysis() Analysis {
	return Analysis{
		FoodName:   "Unknown food",
		Calories:   250,
		Confidence: 0.1,
		Nutrients:  map[string]float64{},
		Fallback:   true,
	}
}
