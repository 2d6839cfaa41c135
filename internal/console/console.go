package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Actions are the operations the console can dispatch to. Each returns
// rendered output for the terminal.
type Actions struct {
	Health    func(ctx context.Context) (string, error)
	Providers func(ctx context.Context) (string, error)
	Status    func(ctx context.Context) (string, error)
	Wait      func(ctx context.Context, service string) (string, error)
}

// Console is an interactive slash-command loop over the CLI's own operations.
type Console struct {
	In      io.Reader
	Out     io.Writer
	Actions Actions
	Prompt  string
}

const helpText = `Commands:
  /help               show this help
  /health             gateway health document
  /providers          gateway provider listing
  /status             full stack status
  /wait [service]     block until a service reports healthy
  /quit               leave the console
`

// Run reads commands until /quit, EOF or context cancellation.
func (c *Console) Run(ctx context.Context) error {
	prompt := c.Prompt
	if prompt == "" {
		prompt = "stackctl> "
	}
	scanner := bufio.NewScanner(c.In)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		fmt.Fprint(c.Out, prompt)
		if !scanner.Scan() {
			fmt.Fprintln(c.Out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, arg := split(line)
		if cmd == "/quit" || cmd == "/exit" {
			return nil
		}
		out, err := c.dispatch(ctx, cmd, arg)
		if err != nil {
			fmt.Fprintf(c.Out, "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Fprintln(c.Out, strings.TrimRight(out, "\n"))
		}
	}
}

func split(line string) (cmd, arg string) {
	parts := strings.SplitN(line, " ", 2)
	cmd = parts[0]
	if len(parts) == 2 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func (c *Console) dispatch(ctx context.Context, cmd, arg string) (string, error) {
	switch cmd {
	case "/help":
		return helpText, nil
	case "/health":
		if c.Actions.Health == nil {
			return "", fmt.Errorf("health not available")
		}
		return c.Actions.Health(ctx)
	case "/providers":
		if c.Actions.Providers == nil {
			return "", fmt.Errorf("providers not available")
		}
		return c.Actions.Providers(ctx)
	case "/status":
		if c.Actions.Status == nil {
			return "", fmt.Errorf("status not available")
		}
		return c.Actions.Status(ctx)
	case "/wait":
		if c.Actions.Wait == nil {
			return "", fmt.Errorf("wait not available")
		}
		return c.Actions.Wait(ctx, arg)
	default:
		return "", fmt.Errorf("unknown command %s (try /help)", cmd)
	}
}
