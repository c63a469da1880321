// Package tunnel dials the receiver's control channel through an SSH
// connection, for receivers that only expose their control port on
// loopback or sit behind a jump host.
package tunnel

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config describes the SSH endpoint the control channel is tunneled
// through.
type Config struct {
	Host     string
	User     string
	Password string
	KeyPath  string
	Port     int
}

// Dialer opens control-channel connections through one shared SSH
// client, established lazily on the first dial.
type Dialer struct {
	mu     sync.Mutex
	cfg    Config
	client *ssh.Client
}

// NewDialer validates the configuration and prepares a dialer.
func NewDialer(cfg Config) (*Dialer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("ssh host is required for tunneled control")
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	return &Dialer{cfg: cfg}, nil
}

// DialContext opens a connection to addr through the SSH client. It
// satisfies the control transport's dial hook.
func (d *Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}
	conn, err := client.Dial(network, addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s through ssh tunnel: %w", addr, err)
	}
	return conn, nil
}

// Close tears down the shared SSH client. Subsequent dials reconnect.
func (d *Dialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *Dialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	auth := []ssh.AuthMethod{}
	if d.cfg.Password != "" {
		auth = append(auth, ssh.Password(d.cfg.Password))
	}
	if d.cfg.KeyPath != "" {
		key, err := os.ReadFile(d.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if len(auth) == 0 {
		return nil, fmt.Errorf("no ssh password or key configured")
	}

	config := &ssh.ClientConfig{
		User: d.cfg.User,
		Auth: auth,
		// Lab receivers regenerate host keys on reflash; pinning them
		// would break every redeploy.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         5 * time.Second,
	}

	addr := net.JoinHostPort(d.cfg.Host, fmt.Sprint(d.cfg.Port))
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial ssh: %w", err)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create ssh client: %w", err)
	}

	d.client = ssh.NewClient(clientConn, chans, reqs)
	return d.client, nil
}
