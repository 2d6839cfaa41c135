package execx

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Result carries the exit code and raw error of a finished process.
type Result struct {
	Code int
	Err  error
}

// Failed reports whether the process exited non-zero or failed to start.
func (r Result) Failed() bool { return r.Code != 0 }

func resultFrom(ctx context.Context, err error) Result {
	if err == nil {
		return Result{}
	}
	code := 1
	if ctx.Err() == context.DeadlineExceeded {
		code = 124
	} else if ee, ok := err.(*exec.ExitError); ok {
		code = ee.ExitCode()
	}
	return Result{Code: code, Err: err}
}

func logCommand(name string, args []string) {
	log.Debug().Str("cmd", name+" "+strings.Join(args, " ")).Msg("exec")
}

// Run executes a command streaming stdio to the host terminal.
func Run(ctx context.Context, name string, args ...string) Result {
	logCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return resultFrom(ctx, cmd.Run())
}

// RunWithInput executes a command with the given bytes as stdin.
func RunWithInput(ctx context.Context, input []byte, name string, args ...string) Result {
	logCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return resultFrom(ctx, cmd.Run())
}

// Capture executes a command and returns its stdout. Stderr goes to the host
// terminal so compose warnings stay visible.
func Capture(ctx context.Context, name string, args ...string) (string, Result) {
	logCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = os.Stderr
	out, err := cmd.Output()
	return string(out), resultFrom(ctx, err)
}

// CaptureCombined executes a command streaming output while also buffering it.
func CaptureCombined(ctx context.Context, name string, args ...string) (string, Result) {
	logCommand(name, args)
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = io.MultiWriter(os.Stdout, &buf)
	cmd.Stderr = io.MultiWriter(os.Stderr, &buf)
	err := cmd.Run()
	return buf.String(), resultFrom(ctx, err)
}

// WithTimeout is a shorthand for a background context with a deadline.
func WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// LookPath reports whether a binary is resolvable on PATH.
func LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
