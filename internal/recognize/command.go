package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/marcus/memopad/internal/canvas"
)

// CommandBackend shells out to an external recognizer binary. Strokes
// go in as JSON on stdin, the result comes back as JSON on stdout.
type CommandBackend struct {
	bin  string
	args []string
	path string // resolved by Available
}

// NewCommandBackend wraps a recognizer binary. bin may be a bare name
// resolved against PATH.
func NewCommandBackend(bin string, args ...string) *CommandBackend {
	return &CommandBackend{bin: bin, args: args}
}

func (b *CommandBackend) Name() string { return "command:" + b.bin }

// Available resolves the binary once and caches the path.
func (b *CommandBackend) Available() bool {
	if b.bin == "" {
		return false
	}
	if b.path != "" {
		return true
	}
	path, err := exec.LookPath(b.bin)
	if err != nil {
		return false
	}
	b.path = path
	return true
}

type commandRequest struct {
	Strokes [][]canvas.Point `json:"strokes"`
}

// Recognize runs the binary with the strokes on stdin.
func (b *CommandBackend) Recognize(ctx context.Context, strokes [][]canvas.Point) (Result, error) {
	if b.path == "" && !b.Available() {
		return Result{}, fmt.Errorf("recognizer binary %q not found", b.bin)
	}

	input, err := json.Marshal(commandRequest{Strokes: strokes})
	if err != nil {
		return Result{}, fmt.Errorf("encode strokes: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.path, b.args...)
	cmd.Stdin = bytes.NewReader(input)
	out, err := cmd.Output()
	if err != nil {
		return Result{}, fmt.Errorf("run %s: %w", b.bin, err)
	}

	var res Result
	if err := json.Unmarshal(out, &res); err != nil {
		return Result{}, fmt.Errorf("decode %s output: %w", b.bin, err)
	}
	return res, nil
}
