package slurm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig describes the login node sacct is run on when it is not
// available locally.
type SSHConfig struct {
	Host string
	// Port defaults to 22.
	Port string
	User string
	// KeyFile defaults to ~/.ssh/id_rsa.
	KeyFile string
	// KnownHostsFile defaults to ~/.ssh/known_hosts.
	KnownHostsFile string
}

// SSHRunner runs commands on a remote host over ssh.
type SSHRunner struct {
	config SSHConfig
}

func NewSSHRunner(config SSHConfig) (*SSHRunner, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("ssh host must not be empty")
	}
	if config.Port == "" {
		config.Port = "22"
	}
	if config.KeyFile == "" || config.KnownHostsFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		if config.KeyFile == "" {
			config.KeyFile = filepath.Join(home, ".ssh", "id_rsa")
		}
		if config.KnownHostsFile == "" {
			config.KnownHostsFile = filepath.Join(home, ".ssh", "known_hosts")
		}
	}
	return &SSHRunner{config: config}, nil
}

func (r *SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(r.config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key %s: %w", r.config.KeyFile, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key %s: %w", r.config.KeyFile, err)
	}
	hostKeyCallback, err := knownhosts.New(r.config.KnownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load known hosts %s: %w", r.config.KnownHostsFile, err)
	}
	return &ssh.ClientConfig{
		User: r.config.User,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func (r *SSHRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	config, err := r.clientConfig()
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(r.config.Host, r.config.Port)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial host %s: %w", addr, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open ssh connection to %s: %w", addr, err)
	}
	client := ssh.NewClient(c, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed create session on host %v with ssh: %w", r.config.Host, err)
	}
	defer session.Close()

	// Closing the client unblocks session.Run if ctx is cancelled first.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()

	var out, stderr bytes.Buffer
	session.Stdout = &out
	session.Stderr = &stderr
	cmd := commandLine(name, args...)
	slog.Debug("running remote command", "host", r.config.Host, "cmd", cmd)
	if err := session.Run(cmd); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to run %v on %v: %w (stderr: %s)", name, r.config.Host, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return out.Bytes(), nil
}

// commandLine quotes name and args for the remote shell.
func commandLine(name string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(name))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./=,:+@", r))
	}) == -1 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
