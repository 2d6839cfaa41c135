package sshx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/pkg/sftp"
	xssh "golang.org/x/crypto/ssh"
)

// PushFile uploads a local file via SFTP and verifies the remote SHA-256
// checksum before returning. A failed verification removes the upload.
func PushFile(ctx context.Context, client *xssh.Client, localPath, remotePath string) error {
	localSum, err := fileChecksum(localPath)
	if err != nil {
		return fmt.Errorf("checksum %s: %w", localPath, err)
	}

	sf, err := sftp.NewClient(client)
	if err != nil {
		return fmt.Errorf("sftp client: %w", err)
	}
	defer sf.Close()

	if dir := path.Dir(remotePath); dir != "." && dir != "/" {
		if err := sf.MkdirAll(dir); err != nil {
			return fmt.Errorf("mkdir remote: %w", err)
		}
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local: %w", err)
	}
	defer src.Close()
	dst, err := sf.Create(remotePath)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close remote: %w", err)
	}

	if err := verifyRemoteChecksum(client, remotePath, localSum); err != nil {
		_ = sf.Remove(remotePath)
		return err
	}
	return nil
}

// PushFiles uploads local→remote path pairs in map order.
func PushFiles(ctx context.Context, client *xssh.Client, files map[string]string) error {
	for local, remote := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := PushFile(ctx, client, local, remote); err != nil {
			return fmt.Errorf("push %s -> %s: %w", local, remote, err)
		}
	}
	return nil
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func verifyRemoteChecksum(client *xssh.Client, remotePath, expected string) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	defer session.Close()
	out, err := session.Output(fmt.Sprintf("sha256sum %s | cut -d' ' -f1", remotePath))
	if err != nil {
		return fmt.Errorf("remote checksum: %w", err)
	}
	got := strings.TrimSpace(string(out))
	if got != expected {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", remotePath, expected, got)
	}
	return nil
}
