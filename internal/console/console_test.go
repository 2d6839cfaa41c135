package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func testConsole(input string) (*Console, *bytes.Buffer) {
	var out bytes.Buffer
	c := &Console{
		In:  strings.NewReader(input),
		Out: &out,
		Actions: Actions{
			Health:    func(ctx context.Context) (string, error) { return "status: healthy", nil },
			Providers: func(ctx context.Context) (string, error) { return "openai", nil },
			Status:    func(ctx context.Context) (string, error) { return "", errors.New("compose down") },
			Wait: func(ctx context.Context, service string) (string, error) {
				return "ready: " + service, nil
			},
		},
	}
	return c, &out
}

func TestRunDispatch(t *testing.T) {
	c, out := testConsole("/health\n/providers\n/wait gateway\n/quit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	for _, want := range []string{"status: healthy", "openai", "ready: gateway"} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
}

func TestRunHelpAndUnknown(t *testing.T) {
	c, out := testConsole("/help\n/bogus\n/quit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	s := out.String()
	if !strings.Contains(s, "/wait [service]") {
		t.Errorf("help missing:\n%s", s)
	}
	if !strings.Contains(s, "unknown command /bogus") {
		t.Errorf("unknown hint missing:\n%s", s)
	}
}

func TestRunActionError(t *testing.T) {
	c, out := testConsole("/status\n/quit\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "error: compose down") {
		t.Errorf("error not surfaced:\n%s", out.String())
	}
}

func TestRunEOF(t *testing.T) {
	c, _ := testConsole("/health\n")
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("EOF should end cleanly: %v", err)
	}
}

func TestSplit(t *testing.T) {
	cmd, arg := split("/wait  gateway ")
	if cmd != "/wait" || arg != "gateway" {
		t.Fatalf("split = %q %q", cmd, arg)
	}
	cmd, arg = split("/help")
	if cmd != "/help" || arg != "" {
		t.Fatalf("split = %q %q", cmd, arg)
	}
}
