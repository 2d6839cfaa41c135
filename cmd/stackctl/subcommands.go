package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/compose"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/console"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/execx"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/gateway"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/history"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/metrics"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/probe"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/stack"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/statusd"
	"github.com/alokkulkarni/agentOchestrator-sub002/pkg/api"
)

// Load configuration honoring the persistent --config flag
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	return config.Load(cfgPath)
}

// Build the compose runner honoring the persistent --dry-run flag
func newComposeRunner(cmd *cobra.Command, cfg config.Config) *compose.Runner {
	r := compose.NewRunner(cfg)
	dry, _ := cmd.Flags().GetBool("dry-run")
	r.DryRun = dry
	return r
}

func newGatewayClient(cfg config.Config) *gateway.Client {
	var opts []gateway.Option
	if cfg.Gateway.APIKey != "" {
		opts = append(opts, gateway.WithAPIKey(cfg.Gateway.APIKey))
	}
	if cfg.Gateway.RequestsPerSecond > 0 {
		opts = append(opts, gateway.WithRateLimit(cfg.Gateway.RequestsPerSecond))
	}
	return gateway.New(cfg.Gateway.URL, cfg.Gateway.Timeout(), opts...)
}

// composeLister adapts the compose runner to the stack checker.
type composeLister struct{ r *compose.Runner }

func (l composeLister) PS(ctx context.Context) ([]stack.ServiceState, error) {
	rows, err := l.r.PS(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]stack.ServiceState, 0, len(rows))
	for _, row := range rows {
		out = append(out, stack.ServiceState{Service: row.Service, State: row.State})
	}
	return out, nil
}

func newChecker(cmd *cobra.Command, cfg config.Config) *stack.Checker {
	prober := probe.NewHTTPProber(cfg.Gateway.Timeout())
	prober.APIKey = cfg.Gateway.APIKey
	return &stack.Checker{
		Services: cfg.Services,
		Lister:   composeLister{r: newComposeRunner(cmd, cfg)},
		Prober:   prober,
	}
}

// recordChecks persists probe outcomes. Best effort: failures only warn.
func recordChecks(cfg config.Config, checks []api.Check) {
	store, err := history.Open(cfg.HistoryDBPath())
	if err != nil {
		log.Warn().Err(err).Msg("history unavailable")
		return
	}
	defer store.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.RecordAll(ctx, checks); err != nil {
		log.Warn().Err(err).Msg("history write failed")
	}
}

// Initialize configuration and working directory
func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default config and .env file. Run this the first time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			envPath, _ := cmd.Flags().GetString("env")
			force, _ := cmd.Flags().GetBool("force")
			res, err := config.Scaffold(cfgPath, envPath, force)
			if err != nil {
				return err
			}
			if res.ConfigWritten {
				fmt.Printf("wrote %s\n", res.ConfigPath)
			} else {
				fmt.Printf("kept existing %s\n", res.ConfigPath)
			}
			if res.EnvWritten {
				fmt.Printf("wrote %s (fill in credentials before `stackctl up`)\n", res.EnvPath)
			} else {
				fmt.Printf("kept existing %s\n", res.EnvPath)
			}
			if cfg, err := config.Load(res.ConfigPath); err == nil {
				if err := os.MkdirAll(cfg.State.Dir, 0o700); err != nil {
					log.Warn().Err(err).Msg("could not create state dir")
				}
			}
			return nil
		},
	}
	cmd.Flags().String("env", ".env", "env file to scaffold")
	cmd.Flags().Bool("force", false, "rewrite the config file even if present")
	return cmd
}

// Start the stack
func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up",
		Short: "Start the stack via docker compose",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := compose.Preflight(); err != nil {
				return err
			}
			r := newComposeRunner(cmd, cfg)
			if err := r.CheckEnvFile(); err != nil {
				return err
			}
			sub := []string{"up"}
			if detach, _ := cmd.Flags().GetBool("detach"); detach {
				sub = append(sub, "-d")
			}
			if build, _ := cmd.Flags().GetBool("build"); build {
				sub = append(sub, "--build")
			}
			if err := r.Run(cmd.Context(), sub...); err != nil {
				return err
			}
			if wait, _ := cmd.Flags().GetBool("wait"); wait && !r.DryRun {
				svc, err := cfg.Service("")
				if err != nil || svc.HealthURL == "" {
					log.Warn().Msg("no gateway health URL configured, skipping wait")
					return nil
				}
				return waitForURL(cmd.Context(), cfg, svc.HealthURL, cfg.Probe.Timeout())
			}
			return nil
		},
	}
	cmd.Flags().Bool("detach", true, "run containers in the background")
	cmd.Flags().Bool("build", false, "build images before starting")
	cmd.Flags().Bool("wait", false, "wait for the gateway to report healthy")
	return cmd
}

// Stop the stack
func newDownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := newComposeRunner(cmd, cfg)
			sub := []string{"down"}
			if vols, _ := cmd.Flags().GetBool("volumes"); vols {
				sub = append(sub, "-v")
			}
			return r.Run(cmd.Context(), sub...)
		},
	}
	cmd.Flags().Bool("volumes", false, "also remove named volumes")
	return cmd
}

// Restart the stack
func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop and start the stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := newComposeRunner(cmd, cfg)
			if err := r.CheckEnvFile(); err != nil {
				return err
			}
			if err := r.Run(cmd.Context(), "down"); err != nil {
				return err
			}
			return r.Run(cmd.Context(), "up", "-d")
		},
	}
}

// Build images
func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [service...]",
		Short: "Build stack images",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := newComposeRunner(cmd, cfg)
			sub := append([]string{"build"}, args...)
			if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
				sub = append([]string{"build", "--no-cache"}, args...)
			}
			return r.Run(cmd.Context(), sub...)
		},
	}
	cmd.Flags().Bool("no-cache", false, "build without the image cache")
	return cmd
}

// List containers
func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps",
		Short: "List stack containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return newComposeRunner(cmd, cfg).Run(cmd.Context(), "ps")
		},
	}
}

// Tail logs
func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [service...]",
		Short: "Show stack logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			r := newComposeRunner(cmd, cfg)
			sub := []string{"logs"}
			follow, _ := cmd.Flags().GetBool("follow")
			if follow {
				sub = append(sub, "-f")
			}
			if tail, _ := cmd.Flags().GetString("tail"); tail != "" {
				sub = append(sub, "--tail", tail)
			}
			sub = append(sub, args...)
			if follow {
				return r.RunInteractive(cmd.Context(), sub...)
			}
			return r.Run(cmd.Context(), sub...)
		},
	}
	cmd.Flags().BoolP("follow", "f", false, "follow log output")
	cmd.Flags().String("tail", "", "number of lines to show from the end")
	return cmd
}

// Query the gateway health endpoint
func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Fetch the gateway health document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, raw, err := newGatewayClient(cfg).Health(cmd.Context())
			if err != nil {
				return err
			}
			rawFlag, _ := cmd.Flags().GetBool("raw")
			fmt.Println(renderHealth(doc, raw, rawFlag))
			recordChecks(cfg, []api.Check{{
				Name:    "gateway",
				Status:  doc.Status,
				Message: string(doc.Status),
			}})
			if !doc.Healthy() {
				return fmt.Errorf("gateway reports %s", doc.Status)
			}
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "print the unformatted response body")
	return cmd
}

// Query the gateway providers endpoint
func newProvidersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the gateway's configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			doc, raw, err := newGatewayClient(cfg).Providers(cmd.Context())
			if err != nil {
				return err
			}
			if rawFlag, _ := cmd.Flags().GetBool("raw"); rawFlag {
				fmt.Println(string(raw))
				return nil
			}
			fmt.Print(renderProviders(doc))
			return nil
		},
	}
	cmd.Flags().Bool("raw", false, "print the unformatted response body")
	return cmd
}

// Show stack-wide status
func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show container state and health for every service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			checks := newChecker(cmd, cfg).Run(cmd.Context())
			overall := api.Rollup(checks)
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				fmt.Print(renderStatus(cfg.Project, overall, checks))
			}
			recordChecks(cfg, checks)
			switch overall {
			case api.StatusUnhealthy:
				os.Exit(1)
			case api.StatusDegraded:
				os.Exit(2)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "suppress output, signal via exit code only")
	return cmd
}

func waitForURL(ctx context.Context, cfg config.Config, healthURL string, timeout time.Duration) error {
	prober := probe.NewHTTPProber(cfg.Gateway.Timeout())
	prober.APIKey = cfg.Gateway.APIKey
	w := probe.NewWaiter(prober)
	attempts, err := w.Wait(ctx, healthURL, timeout)
	if err != nil {
		return err
	}
	fmt.Printf("ready after %d attempt(s): %s\n", attempts, healthURL)
	return nil
}

// Wait for a service to report healthy, then optionally exec a command
func newWaitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait [service] [-- command args...]",
		Short: "Block until a service reports healthy, then run a trailing command",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			dash := cmd.ArgsLenAtDash()
			named := args
			var trailing []string
			if dash >= 0 {
				named = args[:dash]
				trailing = args[dash:]
			}
			if len(named) > 1 {
				return fmt.Errorf("at most one service name expected")
			}

			healthURL, _ := cmd.Flags().GetString("url")
			if healthURL == "" {
				name := ""
				if len(named) == 1 {
					name = named[0]
				}
				svc, err := cfg.Service(name)
				if err != nil {
					return err
				}
				if svc.HealthURL == "" {
					return fmt.Errorf("service %s has no health_url configured", svc.Name)
				}
				healthURL = svc.HealthURL
			}

			timeout, _ := cmd.Flags().GetDuration("timeout")
			if timeout == 0 {
				timeout = cfg.Probe.Timeout()
			}
			if err := waitForURL(cmd.Context(), cfg, healthURL, timeout); err != nil {
				return err
			}
			if len(trailing) > 0 {
				res := execx.Run(cmd.Context(), trailing[0], trailing[1:]...)
				if res.Failed() {
					os.Exit(res.Code)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("url", "", "health URL to poll (overrides the configured service)")
	cmd.Flags().Duration("timeout", 0, "overall wait deadline (default from config)")
	return cmd
}

// Show recorded probe history
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent probe results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			store, err := history.Open(cfg.HistoryDBPath())
			if err != nil {
				return err
			}
			defer store.Close()

			if prune, _ := cmd.Flags().GetDuration("prune"); prune > 0 {
				n, err := store.Prune(cmd.Context(), prune)
				if err != nil {
					return err
				}
				fmt.Printf("pruned %d entries older than %s\n", n, prune)
				return nil
			}

			service, _ := cmd.Flags().GetString("service")
			limit, _ := cmd.Flags().GetInt("limit")
			entries, err := store.Recent(cmd.Context(), service, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\t%s\t%s\n",
					e.CheckedAt.Local().Format(time.RFC3339), e.Service, e.Status, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().String("service", "", "filter by service name")
	cmd.Flags().Int("limit", 20, "maximum entries to show")
	cmd.Flags().Duration("prune", 0, "delete entries older than this and exit")
	return cmd
}

// Serve aggregated status over HTTP
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve aggregated stack status over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			addr, _ := cmd.Flags().GetString("addr")
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval == 0 {
				interval = cfg.Probe.Interval()
			}
			checker := newChecker(cmd, cfg)
			srv := &statusd.Server{
				Checks:    checker.Run,
				Collector: metrics.NewCollector(),
				Interval:  interval,
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

			sigc := make(chan os.Signal, 1)
			signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case <-sigc:
			}
			log.Info().Msg("status server shutting down")
			cancel()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("addr", ":8099", "listen address")
	cmd.Flags().Duration("interval", 0, "background refresh interval (default from config)")
	return cmd
}

// Interactive console
func newConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactive console for stack operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client := newGatewayClient(cfg)
			checker := newChecker(cmd, cfg)
			c := &console.Console{
				In:  cmd.InOrStdin(),
				Out: cmd.OutOrStdout(),
				Actions: console.Actions{
					Health: func(ctx context.Context) (string, error) {
						doc, raw, err := client.Health(ctx)
						if err != nil {
							return "", err
						}
						return renderHealth(doc, raw, false), nil
					},
					Providers: func(ctx context.Context) (string, error) {
						doc, _, err := client.Providers(ctx)
						if err != nil {
							return "", err
						}
						return renderProviders(doc), nil
					},
					Status: func(ctx context.Context) (string, error) {
						checks := checker.Run(ctx)
						return renderStatus(cfg.Project, api.Rollup(checks), checks), nil
					},
					Wait: func(ctx context.Context, service string) (string, error) {
						svc, err := cfg.Service(service)
						if err != nil {
							return "", err
						}
						if svc.HealthURL == "" {
							return "", fmt.Errorf("service %s has no health_url configured", svc.Name)
						}
						if err := waitForURL(ctx, cfg, svc.HealthURL, cfg.Probe.Timeout()); err != nil {
							return "", err
						}
						return fmt.Sprintf("%s is healthy", svc.Name), nil
					},
				},
			}
			return c.Run(cmd.Context())
		},
	}
}
