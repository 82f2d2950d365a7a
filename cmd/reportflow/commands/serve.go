package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguimbarda/reportflow/internal/server"
	"github.com/lguimbarda/reportflow/report/refresh"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string        `help:"Listen address (overrides server.addr)"`
	Refresh time.Duration `help:"Resubmit the last URL this often (overrides refresh.interval)"`
}

func (s *ServeCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	addr := g.Config.Server.Addr
	if s.Addr != "" {
		addr = s.Addr
	}
	interval := g.Config.Refresh.Interval.Duration()
	if s.Refresh > 0 {
		interval = s.Refresh
	}

	if interval > 0 {
		r, err := refresh.New(a.pipeline, g.Logger)
		if err != nil {
			return err
		}
		if _, err := r.Every(interval); err != nil {
			return err
		}
		r.Start()
		defer r.Stop()
	}

	srv := server.NewServer(server.ServerConfig{
		Addr:     addr,
		Pipeline: a.pipeline,
		History:  a.store,
		Metrics:  promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}),
		Logger:   g.Logger,
	})

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
