package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lguimbarda/reportflow/report"
	"github.com/lguimbarda/reportflow/report/importer"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	File     string        `arg:"" help:"File to watch" type:"path"`
	Debounce time.Duration `help:"Quiet period before a change is reported" default:"200ms"`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	first := true
	cancel := a.pipeline.Project().Observe(func(r report.ProjectResult) {
		if first {
			first = false
			return
		}
		if v, err, ok := r.Get(); ok {
			fmt.Fprintf(g.Out, "--- %s\n", time.Now().Format(time.TimeOnly))
			printTerms(g.Out, v)
		} else {
			fmt.Fprintf(g.Out, "--- %s error: %v\n", time.Now().Format(time.TimeOnly), err)
		}
	})
	defer cancel()

	watcher, err := importer.NewWatcher(w.File, a.pipeline,
		importer.WithDebounce(w.Debounce),
		importer.WithLogger(g.Logger),
	)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	<-ctx.Done()
	return nil
}
