// Package recognize turns canvas strokes into text through a chain of
// pluggable backends. The editor only sees the chain; which engine
// actually ran is a configuration detail.
package recognize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/memopad/internal/canvas"
)

// ErrUnavailable is returned when no backend is usable or every usable
// backend failed.
var ErrUnavailable = errors.New("recognize: no backend available")

// DefaultThreshold is the minimum confidence at which a recognition
// result is applied to the memo.
const DefaultThreshold = 0.75

// Result is a backend's transcription of a stroke set.
type Result struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Backend is one recognition engine.
type Backend interface {
	Name() string
	// Available reports whether the backend can run at all. Probed
	// once at startup; backends that cost something to check should
	// cache internally.
	Available() bool
	Recognize(ctx context.Context, strokes [][]canvas.Point) (Result, error)
}

// Chain tries backends in order and returns the first success.
type Chain struct {
	backends  []Backend
	threshold float64
	logger    *slog.Logger
}

// NewChain builds a chain over the given backends. A threshold of 0
// means DefaultThreshold.
func NewChain(logger *slog.Logger, threshold float64, backends ...Backend) *Chain {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Chain{backends: backends, threshold: threshold, logger: logger}
}

// Probe filters the chain down to available backends. Called once at
// startup so per-stroke recognition never pays the availability check.
func (c *Chain) Probe() {
	usable := c.backends[:0]
	for _, b := range c.backends {
		if b.Available() {
			usable = append(usable, b)
			continue
		}
		if c.logger != nil {
			c.logger.Debug("recognize: backend unavailable", "backend", b.Name())
		}
	}
	c.backends = usable
}

// Enabled reports whether any backend survived the probe.
func (c *Chain) Enabled() bool { return len(c.backends) > 0 }

// Recognize runs the strokes through the chain. A backend error falls
// through to the next backend; only when every backend has failed does
// the chain give up with ErrUnavailable wrapping the last failure.
func (c *Chain) Recognize(ctx context.Context, strokes [][]canvas.Point) (Result, error) {
	if len(c.backends) == 0 {
		return Result{}, ErrUnavailable
	}
	var lastErr error
	for _, b := range c.backends {
		res, err := b.Recognize(ctx, strokes)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("recognize: backend failed", "backend", b.Name(), "error", err)
			}
			lastErr = err
			continue
		}
		return res, nil
	}
	return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// ShouldConvert reports whether a result clears the confidence gate
// and carries any text at all.
func (c *Chain) ShouldConvert(res Result) bool {
	return res.Text != "" && res.Confidence >= c.threshold
}
