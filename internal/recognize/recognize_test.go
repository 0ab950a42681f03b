package recognize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcus/memopad/internal/canvas"
)

type stubBackend struct {
	name      string
	available bool
	res       Result
	err       error
	calls     int
}

func (b *stubBackend) Name() string    { return b.name }
func (b *stubBackend) Available() bool { return b.available }

func (b *stubBackend) Recognize(ctx context.Context, strokes [][]canvas.Point) (Result, error) {
	b.calls++
	return b.res, b.err
}

var testStrokes = [][]canvas.Point{{{X: 1, Y: 1}, {X: 2, Y: 2}}}

func TestChain_ProbeDropsUnavailable(t *testing.T) {
	dead := &stubBackend{name: "dead"}
	live := &stubBackend{name: "live", available: true, res: Result{Text: "hi", Confidence: 0.9}}
	c := NewChain(nil, 0, dead, live)
	c.Probe()

	if !c.Enabled() {
		t.Fatal("chain with a live backend should be enabled")
	}
	res, err := c.Recognize(context.Background(), testStrokes)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "hi" {
		t.Errorf("got %q", res.Text)
	}
	if dead.calls != 0 {
		t.Error("probed-out backend must never be called")
	}
}

func TestChain_FallsThroughOnError(t *testing.T) {
	failing := &stubBackend{name: "first", available: true, err: errors.New("engine crashed")}
	second := &stubBackend{name: "second", available: true, res: Result{Text: "fallback", Confidence: 0.8}}
	c := NewChain(nil, 0, failing, second)
	c.Probe()

	res, err := c.Recognize(context.Background(), testStrokes)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "fallback" {
		t.Errorf("got %q, want the second backend's result", res.Text)
	}
	if failing.calls != 1 {
		t.Error("first backend should have been tried")
	}
}

func TestChain_AllFailedIsUnavailable(t *testing.T) {
	a := &stubBackend{name: "a", available: true, err: errors.New("boom")}
	b := &stubBackend{name: "b", available: true, err: errors.New("bust")}
	c := NewChain(nil, 0, a, b)
	c.Probe()

	if _, err := c.Recognize(context.Background(), testStrokes); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestChain_EmptyIsUnavailable(t *testing.T) {
	c := NewChain(nil, 0)
	c.Probe()
	if c.Enabled() {
		t.Error("empty chain should not be enabled")
	}
	if _, err := c.Recognize(context.Background(), nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

func TestShouldConvert_ThresholdGate(t *testing.T) {
	c := NewChain(nil, 0)
	tests := []struct {
		res  Result
		want bool
	}{
		{Result{Text: "hello", Confidence: 0.9}, true},
		{Result{Text: "hello", Confidence: 0.75}, true},
		{Result{Text: "hello", Confidence: 0.5}, false},
		{Result{Text: "", Confidence: 0.99}, false},
	}
	for _, tt := range tests {
		if got := c.ShouldConvert(tt.res); got != tt.want {
			t.Errorf("ShouldConvert(%+v) = %v, want %v", tt.res, got, tt.want)
		}
	}
}

func TestShouldConvert_CustomThreshold(t *testing.T) {
	c := NewChain(nil, 0.5)
	if !c.ShouldConvert(Result{Text: "ok", Confidence: 0.6}) {
		t.Error("0.6 should clear a 0.5 threshold")
	}
}

func TestHTTPBackend_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("got auth header %q", got)
		}
		var req httpRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Strokes) != 1 {
			t.Errorf("got %d strokes", len(req.Strokes))
		}
		json.NewEncoder(w).Encode(Result{Text: "note to self", Confidence: 0.82})
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "secret")
	if !b.Available() {
		t.Fatal("configured backend should be available")
	}
	res, err := b.Recognize(context.Background(), testStrokes)
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "note to self" || res.Confidence != 0.82 {
		t.Errorf("got %+v", res)
	}
}

func TestHTTPBackend_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "")
	if _, err := b.Recognize(context.Background(), testStrokes); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestHTTPBackend_UnconfiguredUnavailable(t *testing.T) {
	if NewHTTPBackend("", "").Available() {
		t.Error("empty endpoint must be unavailable")
	}
}

func TestCommandBackend_MissingBinary(t *testing.T) {
	b := NewCommandBackend("definitely-not-a-real-recognizer-binary")
	if b.Available() {
		t.Error("missing binary must be unavailable")
	}
}
