package compose

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
)

func TestArgs(t *testing.T) {
	r := &Runner{
		Project: "agent-stack",
		Files:   []string{"docker-compose.yml", "docker-compose.dev.yml"},
		EnvFile: ".env",
	}
	got := strings.Join(r.Args("up", "-d"), " ")
	want := "compose -p agent-stack -f docker-compose.yml -f docker-compose.dev.yml --env-file .env up -d"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestArgsMinimal(t *testing.T) {
	r := &Runner{}
	got := strings.Join(r.Args("down"), " ")
	if got != "compose down" {
		t.Fatalf("args = %q", got)
	}
}

func TestRender(t *testing.T) {
	r := &Runner{Project: "p", Files: []string{"c.yml"}}
	if got := r.Render("ps"); got != "docker compose -p p -f c.yml ps" {
		t.Fatalf("render = %q", got)
	}
}

func TestNewRunnerFromConfig(t *testing.T) {
	cfg := config.Config{Project: "x"}
	cfg.Compose.Files = []string{"a.yml"}
	cfg.Compose.EnvFile = ".env"
	r := NewRunner(cfg)
	if r.Project != "x" || len(r.Files) != 1 || r.EnvFile != ".env" {
		t.Fatalf("runner = %+v", r)
	}
}

func TestDryRun(t *testing.T) {
	r := &Runner{Project: "p", DryRun: true}
	// Must not attempt to execute docker at all.
	if err := r.Run(context.Background(), "up", "-d"); err != nil {
		t.Fatalf("dry run should not fail: %v", err)
	}
	out, err := r.Capture(context.Background(), "ps")
	if err != nil || out != "" {
		t.Fatalf("dry capture: out=%q err=%v", out, err)
	}
}

func TestCheckEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")

	r := &Runner{EnvFile: env}
	if err := r.CheckEnvFile(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
	if err := os.WriteFile(env, []byte("A=1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := r.CheckEnvFile(); err != nil {
		t.Fatalf("env file exists: %v", err)
	}
	r.EnvFile = ""
	if err := r.CheckEnvFile(); err != nil {
		t.Fatalf("no env file configured: %v", err)
	}
}
