package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcus/memopad/internal/canvas"
)

// HTTPBackend posts strokes to a hosted recognition endpoint.
type HTTPBackend struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPBackend wraps a recognition endpoint. An empty endpoint makes
// the backend unavailable rather than erroring per request.
func NewHTTPBackend(endpoint, apiKey string) *HTTPBackend {
	return &HTTPBackend{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (b *HTTPBackend) Name() string { return "http" }

// Available only checks configuration; the endpoint itself is not
// probed, a dead server surfaces as a per-request error the chain
// falls through.
func (b *HTTPBackend) Available() bool { return b.endpoint != "" }

type httpRequest struct {
	Strokes [][]canvas.Point `json:"strokes"`
}

// Recognize posts the strokes and decodes the result.
func (b *HTTPBackend) Recognize(ctx context.Context, strokes [][]canvas.Point) (Result, error) {
	body, err := json.Marshal(httpRequest{Strokes: strokes})
	if err != nil {
		return Result{}, fmt.Errorf("encode strokes: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post strokes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Result{}, fmt.Errorf("recognition endpoint returned %d: %s", resp.StatusCode, data)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}
