package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/katacr/go-oneblock/internal/console"
	"github.com/katacr/go-oneblock/internal/driver"
	"github.com/katacr/go-oneblock/internal/game"
	"github.com/katacr/go-oneblock/internal/listener"
	"github.com/katacr/go-oneblock/internal/messaging"
	"github.com/katacr/go-oneblock/internal/world"
	"github.com/pixil98/go-service"
)

type worker interface {
	Start(ctx context.Context) error
}

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	cfg.applyLogLevel()

	stages, chests, packs, err := cfg.Content.buildCatalogs(&cfg.Generator)
	if err != nil {
		return nil, err
	}

	store, err := cfg.Storage.openDatabase()
	if err != nil {
		return nil, err
	}

	ns, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	workers := service.WorkerList{
		"nats":    ns,
		"storage": &closer{name: "database", c: store},
	}

	w := cfg.World.buildWorld(ns)
	if mem, ok := w.(*world.Memory); ok && cfg.World.Serve {
		workers["world"] = &hostWorker{host: world.NewHost(mem), ns: ns}
	}

	publisher := messaging.NewPlayerPublisher(ns)
	sched := driver.NewScheduler()

	opts := append(cfg.Generator.serviceOpts(),
		game.WithRepository(store),
		game.WithNotifier(publisher),
		game.WithCustomBlocks(w),
		game.WithItemResolver(w),
	)
	if aw := cfg.Storage.buildAuditWriter(); aw != nil {
		opts = append(opts, game.WithAuditor(aw))
		workers["audit"] = aw
	}

	svc := game.NewService(stages, chests, packs, w, store, sched, opts...)
	err = svc.Preload(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preloading progress: %w", err)
	}

	workers["ingress"] = messaging.NewIngress(ns, sched, svc, publisher)

	cm := listener.NewConnectionManager(console.New(svc, sched), listener.WithMaxSessions(cfg.MaxSessions))
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, lc := range cfg.Listeners {
		l, err := lc.buildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("building listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = l
	}
	if len(listeners) > 0 {
		workers["listeners"] = &listeners
	}

	var driverOpts []driver.DriverOpt
	if d := cfg.tickLength(); d > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	workers["driver"] = driver.NewDriver([]driver.Ticker{sched}, driverOpts...)

	return workers, nil
}

// closer releases c once the application shuts down.
type closer struct {
	name string
	c    io.Closer
}

func (w *closer) Start(ctx context.Context) error {
	<-ctx.Done()
	err := w.c.Close()
	if err != nil {
		slog.Warn("closing", "name", w.name, "error", err)
	}
	return nil
}
