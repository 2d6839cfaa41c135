package compose

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/execx"
)

// Runner shells out to the external `docker compose` CLI. Compose semantics
// are never reimplemented in-process; this only assembles argv.
type Runner struct {
	Project string
	Files   []string
	EnvFile string
	// DryRun prints the command to stderr instead of executing it.
	DryRun bool
	// Timeout bounds non-interactive invocations.
	Timeout time.Duration
}

// NewRunner builds a Runner from loaded configuration.
func NewRunner(cfg config.Config) *Runner {
	return &Runner{
		Project: cfg.Project,
		Files:   cfg.Compose.Files,
		EnvFile: cfg.Compose.EnvFile,
		Timeout: 10 * time.Minute,
	}
}

// Args assembles the full docker argv for a compose subcommand.
func (r *Runner) Args(sub ...string) []string {
	args := []string{"compose"}
	if r.Project != "" {
		args = append(args, "-p", r.Project)
	}
	for _, f := range r.Files {
		args = append(args, "-f", f)
	}
	if r.EnvFile != "" {
		args = append(args, "--env-file", r.EnvFile)
	}
	return append(args, sub...)
}

// Render returns the command line as it would be executed, for dry runs.
func (r *Runner) Render(sub ...string) string {
	return "docker " + strings.Join(r.Args(sub...), " ")
}

// Run executes a compose subcommand streaming output to the terminal.
func (r *Runner) Run(ctx context.Context, sub ...string) error {
	if r.DryRun {
		fmt.Fprintln(os.Stderr, "+ "+r.Render(sub...))
		return nil
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	res := execx.Run(ctx, "docker", r.Args(sub...)...)
	if res.Failed() {
		return fmt.Errorf("docker compose %s exited with code %d", strings.Join(sub, " "), res.Code)
	}
	return nil
}

// RunInteractive executes without a timeout, for log following and attach.
func (r *Runner) RunInteractive(ctx context.Context, sub ...string) error {
	if r.DryRun {
		fmt.Fprintln(os.Stderr, "+ "+r.Render(sub...))
		return nil
	}
	res := execx.Run(ctx, "docker", r.Args(sub...)...)
	if res.Failed() {
		return fmt.Errorf("docker compose %s exited with code %d", strings.Join(sub, " "), res.Code)
	}
	return nil
}

// Capture executes a compose subcommand and returns its stdout.
func (r *Runner) Capture(ctx context.Context, sub ...string) (string, error) {
	if r.DryRun {
		fmt.Fprintln(os.Stderr, "+ "+r.Render(sub...))
		return "", nil
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	out, res := execx.Capture(ctx, "docker", r.Args(sub...)...)
	if res.Failed() {
		return out, fmt.Errorf("docker compose %s exited with code %d", strings.Join(sub, " "), res.Code)
	}
	return out, nil
}

// ServiceState is one row of `docker compose ps`.
type ServiceState struct {
	Service string
	State   string
}

// PS lists compose service states via the machine-readable ps format.
func (r *Runner) PS(ctx context.Context) ([]ServiceState, error) {
	out, err := r.Capture(ctx, "ps", "--format", "{{.Service}}\t{{.State}}")
	if err != nil {
		return nil, err
	}
	var states []ServiceState
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		st := ServiceState{Service: parts[0]}
		if len(parts) == 2 {
			st.State = strings.TrimSpace(parts[1])
		}
		states = append(states, st)
	}
	return states, nil
}

// CheckEnvFile verifies the configured env file exists before lifecycle
// mutations, mirroring the guard the stack's start wrapper always ran.
func (r *Runner) CheckEnvFile() error {
	if r.EnvFile == "" {
		return nil
	}
	if _, err := os.Stat(r.EnvFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("env file %s missing; run `stackctl init` first", r.EnvFile)
		}
		return fmt.Errorf("env file %s: %w", r.EnvFile, err)
	}
	return nil
}

// Preflight warns when the docker binary is unavailable.
func Preflight() error {
	if !execx.LookPath("docker") {
		return fmt.Errorf("docker not found on PATH")
	}
	log.Debug().Msg("docker binary found")
	return nil
}
