package main

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alokkulkarni/agentOchestrator-sub002/internal/config"
	"github.com/alokkulkarni/agentOchestrator-sub002/internal/sshx"
)

func remoteKeyPath(cfg config.Config) string {
	if cfg.Remote.KeyPath != "" {
		return cfg.Remote.KeyPath
	}
	return filepath.Join(config.ConfigDir(), "ssh", "id_ed25519")
}

func remoteKnownHostsPath(cfg config.Config) string {
	if cfg.Remote.KnownHosts != "" {
		return cfg.Remote.KnownHosts
	}
	return filepath.Join(config.ConfigDir(), "ssh", "known_hosts")
}

func remoteDir(cfg config.Config) string {
	if cfg.Remote.Dir != "" {
		return cfg.Remote.Dir
	}
	return cfg.Project
}

func newSSHClient(cfg config.Config) (*sshx.Client, error) {
	if cfg.Remote.Host == "" {
		return nil, fmt.Errorf("remote.host not configured")
	}
	if cfg.Remote.User == "" {
		return nil, fmt.Errorf("remote.user not configured")
	}
	signer, err := sshx.LoadPrivateKeySigner(remoteKeyPath(cfg))
	if err != nil {
		return nil, err
	}
	cb, err := sshx.LoadKnownHostsCallback(remoteKnownHostsPath(cfg))
	if err != nil {
		return nil, err
	}
	return &sshx.Client{
		Addr:       fmt.Sprintf("%s:%d", cfg.Remote.Host, cfg.Remote.Port),
		User:       cfg.Remote.User,
		Signer:     signer,
		KnownHosts: cb,
		Timeout:    cfg.Gateway.Timeout(),
		Retries:    2,
	}, nil
}

// Operate the stack on a remote docker host
func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Deploy and operate the stack on a remote docker host over SSH",
	}
	cmd.AddCommand(newRemoteKeygenCmd())
	cmd.AddCommand(newRemoteDeployCmd())
	cmd.AddCommand(newRemoteRunCmd())
	return cmd
}

func newRemoteKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate the ed25519 deploy key and print the public half",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			keyPath := remoteKeyPath(cfg)
			if _, err := os.Stat(keyPath); err == nil {
				return fmt.Errorf("key already exists at %s", keyPath)
			}
			if err := os.MkdirAll(filepath.Dir(keyPath), 0o700); err != nil {
				return err
			}
			pub, err := sshx.GenerateEd25519Keypair(keyPath)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s\nadd to the remote authorized_keys:\n%s", keyPath, pub)
			return nil
		},
	}
}

// Push compose and env files to the remote host
func newRemoteDeployCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Upload compose and env files to the remote docker host",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newSSHClient(cfg)
			if err != nil {
				return err
			}
			dir := remoteDir(cfg)
			files := make(map[string]string, len(cfg.Compose.Files)+1)
			for _, f := range cfg.Compose.Files {
				files[f] = path.Join(dir, filepath.Base(f))
			}
			if cfg.Compose.EnvFile != "" {
				files[cfg.Compose.EnvFile] = path.Join(dir, filepath.Base(cfg.Compose.EnvFile))
			}

			conn, err := sshx.Dial(cmd.Context(), client)
			if err != nil {
				return fmt.Errorf("dial %s: %w", client.Addr, err)
			}
			defer conn.Close()
			if err := sshx.PushFiles(cmd.Context(), conn, files); err != nil {
				return err
			}
			for local, remote := range files {
				fmt.Printf("pushed %s -> %s:%s\n", local, cfg.Remote.Host, remote)
			}
			return nil
		},
	}
}

// Run a compose subcommand on the remote host
func newRemoteRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [compose args...]",
		Short: "Run docker compose on the remote host inside the deployed directory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			command := remoteComposeCommand(cfg, args)
			if dry, _ := cmd.Flags().GetBool("dry-run"); dry {
				fmt.Fprintf(os.Stderr, "+ ssh %s@%s:%d %s\n",
					cfg.Remote.User, cfg.Remote.Host, cfg.Remote.Port, command)
				return nil
			}
			client, err := newSSHClient(cfg)
			if err != nil {
				return err
			}
			out, err := client.RunCommand(cmd.Context(), command)
			if out != "" {
				fmt.Print(out)
			}
			return err
		},
	}
}

// remoteComposeCommand builds the compose invocation against the file
// basenames deploy uploaded into the remote directory.
func remoteComposeCommand(cfg config.Config, sub []string) string {
	parts := []string{"cd", remoteDir(cfg), "&&", "docker", "compose", "-p", cfg.Project}
	for _, f := range cfg.Compose.Files {
		parts = append(parts, "-f", filepath.Base(f))
	}
	if cfg.Compose.EnvFile != "" {
		parts = append(parts, "--env-file", filepath.Base(cfg.Compose.EnvFile))
	}
	return strings.Join(append(parts, sub...), " ")
}
