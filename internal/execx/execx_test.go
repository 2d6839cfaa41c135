package execx

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCapture(t *testing.T) {
	out, res := Capture(context.Background(), "echo", "hello")
	if res.Failed() {
		t.Fatalf("echo failed: %v", res.Err)
	}
	if strings.TrimSpace(out) != "hello" {
		t.Fatalf("expected hello, got %q", out)
	}
}

func TestCaptureExitCode(t *testing.T) {
	_, res := Capture(context.Background(), "false")
	if !res.Failed() {
		t.Fatalf("expected non-zero exit")
	}
	if res.Code != 1 {
		t.Fatalf("expected code 1, got %d", res.Code)
	}
}

func TestRunTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(50 * time.Millisecond)
	defer cancel()
	res := Run(ctx, "sleep", "5")
	if !res.Failed() {
		t.Fatalf("expected timeout failure")
	}
	if res.Code != 124 {
		t.Fatalf("expected code 124, got %d", res.Code)
	}
}

func TestRunWithInput(t *testing.T) {
	res := RunWithInput(context.Background(), []byte("ignored"), "true")
	if res.Failed() {
		t.Fatalf("true failed: %v", res.Err)
	}
}

func TestLookPath(t *testing.T) {
	if !LookPath("echo") {
		t.Fatalf("echo should be on PATH")
	}
	if LookPath("definitely-not-a-binary-xyz") {
		t.Fatalf("unexpected lookup success")
	}
}
