package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

var ErrNotStarted = errors.New("nats server not started")

type NatsServer struct {
	ns   *server.Server
	conn *nats.Conn

	startupTimeout time.Duration
	requestTimeout time.Duration
	host           string
	port           int

	ready chan struct{}
	once  sync.Once
}

func NewNatsServer(opts ...NatsServerOpt) (*NatsServer, error) {
	s := &NatsServer{
		startupTimeout: 10 * time.Second,
		requestTimeout: 5 * time.Second,
		host:           "127.0.0.1",
		ready:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	ns, err := server.NewServer(&server.Options{
		Host:   s.host,
		Port:   s.port,
		NoSigs: true, // Let the application handle signals
	})
	if err != nil {
		return nil, err
	}
	s.ns = ns

	return s, nil
}

func (n *NatsServer) Start(ctx context.Context) error {
	n.ns.Start()

	if !n.ns.ReadyForConnections(n.startupTimeout) {
		return fmt.Errorf("nats server not ready for connections")
	}

	// Create internal client connection
	conn, err := nats.Connect(n.ns.ClientURL())
	if err != nil {
		return fmt.Errorf("creating nats client connection: %w", err)
	}
	n.conn = conn
	n.once.Do(func() { close(n.ready) })

	slog.InfoContext(ctx, "nats server listening", "addr", n.ns.Addr())

	<-ctx.Done()
	n.conn.Close()
	n.ns.Shutdown()
	n.ns.WaitForShutdown()

	return nil
}

// WaitReady blocks until the internal connection is up.
func (n *NatsServer) WaitReady(ctx context.Context) error {
	select {
	case <-n.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientURL returns the url clients in other processes connect to.
func (n *NatsServer) ClientURL() string {
	return n.ns.ClientURL()
}

// Subscribe creates a subscription on the given subject.
// The handler is called for each message received.
// Returns an unsubscribe function to remove the subscription.
func (n *NatsServer) Subscribe(subject string, handler func(data []byte)) (func(), error) {
	if n.conn == nil {
		return nil, ErrNotStarted
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Handle subscribes to subject and replies to each request with the
// handler's result.
func (n *NatsServer) Handle(subject string, handler func(data []byte) []byte) (func(), error) {
	if n.conn == nil {
		return nil, ErrNotStarted
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		err := msg.Respond(handler(msg.Data))
		if err != nil {
			slog.Warn("responding to request", "subject", subject, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Request sends data to subject and waits for a single reply.
func (n *NatsServer) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if n.conn == nil {
		return nil, ErrNotStarted
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.requestTimeout)
		defer cancel()
	}

	msg, err := n.conn.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", subject, err)
	}
	return msg.Data, nil
}

// Publish sends a message to the given subject
func (n *NatsServer) Publish(subject string, data []byte) error {
	if n.conn == nil {
		return ErrNotStarted
	}
	return n.conn.Publish(subject, data)
}
