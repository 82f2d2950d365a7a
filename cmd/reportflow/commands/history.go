package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lguimbarda/reportflow/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to list" default:"20"`
	JSON  bool `help:"Print runs as JSON"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	if g.Config.History.Path == "" {
		return errors.New("history is disabled: set history.path")
	}
	store, err := history.Open(g.Config.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}

	if h.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(g.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tOUTCOME\tURL\tDETAIL")
	for _, r := range runs {
		detail := r.Error
		if len(r.TopTerms) > 0 {
			detail = fmt.Sprintf("top: %s (%d)", r.TopTerms[0].Token, r.TopTerms[0].Count)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.RecordedAt.Local().Format(time.DateTime), r.Outcome, r.URL, detail)
	}
	return tw.Flush()
}
