// Package tools runs external command-line tools with explicit timeouts.
//
// Both media subsystems go through Run so tool absence and timeouts are
// classified uniformly: a missing binary maps to fault.ErrToolUnavailable
// and an exceeded budget to fault.ErrTimeout, letting callers degrade
// instead of crash or hang.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/harborview/harborview/internal/fault"
)

// Run executes name with args under the given timeout and returns its
// stdout. The subprocess is killed when the deadline passes.
func Run(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%s: %w", name, fault.ErrTimeout)
	}
	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", name, fault.ErrToolUnavailable)
	}
	return nil, fmt.Errorf("%s: %v: %s", name, err, tail(stderr.Bytes(), 500))
}

// tail returns the last n bytes of b as a string; tool stderr can run to
// megabytes on long encodes.
func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(bytes.TrimSpace(b))
}
