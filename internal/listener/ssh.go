package listener

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

type SshListener struct {
	addr     string
	cm       *ConnectionManager
	hostKey  ssh.Signer
	password string
}

// NewSshListener serves the console over ssh. An empty password lets any
// client in.
func NewSshListener(host string, port uint16, cm *ConnectionManager, hostKey ssh.Signer, password string) *SshListener {
	return &SshListener{
		addr:     fmt.Sprintf("%s:%d", host, port),
		cm:       cm,
		hostKey:  hostKey,
		password: password,
	}
}

func (l *SshListener) serverConfig() *ssh.ServerConfig {
	config := &ssh.ServerConfig{}
	if l.password == "" {
		config.NoClientAuth = true
	} else {
		config.PasswordCallback = func(meta ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if subtle.ConstantTimeCompare(pass, []byte(l.password)) == 1 {
				return nil, nil
			}
			return nil, fmt.Errorf("password rejected for %s", meta.User())
		}
	}
	config.AddHostKey(l.hostKey)
	return config
}

func (l *SshListener) Start(ctx context.Context) error {
	config := l.serverConfig()

	listener, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", l.addr, err)
	}

	slog.InfoContext(ctx, "listening for ssh", "addr", l.addr)

	connCtx, cancelConns := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Close the listener when the parent context is canceled
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Check if shutdown was requested
			select {
			case <-ctx.Done():
				cancelConns()
				wg.Wait()
				return nil
			default:
			}
			slog.ErrorContext(ctx, "accepting ssh connection", "error", err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.handleConnection(connCtx, conn, config)
		}()
	}
}

func (l *SshListener) handleConnection(ctx context.Context, conn net.Conn, config *ssh.ServerConfig) {
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, config)
	if err != nil {
		slog.WarnContext(ctx, "ssh handshake", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()

	slog.InfoContext(ctx, "ssh connection established", "remote", conn.RemoteAddr(), "user", sshConn.User())

	// Closing the connection ends the channel loop below.
	go func() {
		<-ctx.Done()
		sshConn.Close()
	}()

	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}

		ch, requests, err := newChan.Accept()
		if err != nil {
			slog.WarnContext(ctx, "accepting ssh channel", "error", err)
			continue
		}
		l.serveChannel(ctx, ch, requests)
	}
}

// serveChannel runs a console session once the client asks for a shell.
// An exec request runs its command as the only input line.
func (l *SshListener) serveChannel(ctx context.Context, ch ssh.Channel, requests <-chan *ssh.Request) {
	defer ch.Close()

	start := make(chan io.ReadWriter, 1)
	go func() {
		var once sync.Once
		for req := range requests {
			switch req.Type {
			case "shell":
				_ = req.Reply(true, nil)
				once.Do(func() { start <- newCRLFReadWriter(ch) })
			case "exec":
				var payload struct{ Command string }
				if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
					_ = req.Reply(false, nil)
					continue
				}
				_ = req.Reply(true, nil)
				once.Do(func() { start <- newExecReadWriter(ch, payload.Command) })
			default:
				// pty-req is refused so the client keeps local echo and line editing.
				_ = req.Reply(false, nil)
			}
		}
	}()

	var rw io.ReadWriter
	select {
	case rw = <-start:
	case <-ctx.Done():
		return
	}

	l.cm.AcceptConnection(ctx, rw)
	_, _ = ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
}

// execReadWriter reads a single command then reports EOF.
type execReadWriter struct {
	io.Reader
	io.Writer
}

func newExecReadWriter(ch ssh.Channel, command string) io.ReadWriter {
	return &execReadWriter{
		Reader: strings.NewReader(command + "\n"),
		Writer: newCRLFReadWriter(ch),
	}
}
