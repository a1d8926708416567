package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall"

	"github.com/iammegalith/telnet"
)

// TelnetListener serves the admin console over plain telnet.
type TelnetListener struct {
	addr string
	cm   *ConnectionManager
}

func NewTelnetListener(host string, port uint16, cm *ConnectionManager) *TelnetListener {
	return &TelnetListener{
		addr: fmt.Sprintf("%s:%d", host, port),
		cm:   cm,
	}
}

func (l *TelnetListener) Start(ctx context.Context) error {
	sessions := newTelnetSessions(l.cm)
	svr := telnet.NewServer(l.addr, sessions)

	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			svr.Stop()
			sessions.closeAll()
		case <-stopped:
		}
	}()

	slog.InfoContext(ctx, "listening for telnet", "addr", l.addr)

	err := svr.ListenAndServe()
	if errors.Is(err, syscall.EADDRINUSE) {
		return fmt.Errorf("address %s is already in use", l.addr)
	}
	if err != nil {
		return fmt.Errorf("serving telnet on %s: %w", l.addr, err)
	}
	return nil
}

// telnetSessions runs each connection on a context that outlives the
// accept loop until closeAll.
type telnetSessions struct {
	cm     *ConnectionManager
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newTelnetSessions(cm *ConnectionManager) *telnetSessions {
	ctx, cancel := context.WithCancel(context.Background())
	return &telnetSessions{cm: cm, ctx: ctx, cancel: cancel}
}

func (s *telnetSessions) HandleTelnet(conn *telnet.Connection) {
	s.wg.Add(1)
	defer s.wg.Done()

	s.cm.AcceptConnection(s.ctx, newCRLFReadWriter(conn))

	err := conn.Close()
	if err != nil {
		slog.Warn("closing telnet connection", "error", err)
	}
}

func (s *telnetSessions) closeAll() {
	s.cancel()
	s.wg.Wait()
}
