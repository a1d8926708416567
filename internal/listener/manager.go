package listener

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
)

// SessionRunner serves one connection until it ends.
type SessionRunner interface {
	RunSession(ctx context.Context, rw io.ReadWriter) error
}

// ConnectionManager hands accepted connections to the admin console.
type ConnectionManager struct {
	sessions    SessionRunner
	maxSessions int64
	active      atomic.Int64
}

type ManagerOpt func(*ConnectionManager)

// WithMaxSessions turns away connections beyond n open sessions. Zero means
// no limit.
func WithMaxSessions(n int) ManagerOpt {
	return func(m *ConnectionManager) {
		m.maxSessions = int64(n)
	}
}

func NewConnectionManager(s SessionRunner, opts ...ManagerOpt) *ConnectionManager {
	m := &ConnectionManager{
		sessions: s,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *ConnectionManager) AcceptConnection(ctx context.Context, conn io.ReadWriter) {
	n := m.active.Add(1)
	defer m.active.Add(-1)

	if m.maxSessions > 0 && n > m.maxSessions {
		slog.WarnContext(ctx, "console session refused", "active", n-1, "max", m.maxSessions)
		_, _ = io.WriteString(conn, "Too many console sessions, try again later.\n")
		return
	}

	slog.InfoContext(ctx, "console session started", "active", n)
	if err := m.sessions.RunSession(ctx, conn); err != nil {
		slog.WarnContext(ctx, "console session", "error", err)
	}
	slog.InfoContext(ctx, "console session ended")
}

// Active returns the number of open sessions.
func (m *ConnectionManager) Active() int64 {
	return m.active.Load()
}
