package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lguimbarda/reportflow/report"
	"github.com/lguimbarda/reportflow/report/importer"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Inputs []string `arg:"" name:"input" help:"URLs or paths, processed in order; the last one is reported"`
	File   bool     `short:"f" help:"Check inputs as local files before submitting"`
	JSON   bool     `help:"Print the project as JSON"`
}

func (r *RunCmd) Run(g *Global, _ *CLI) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	p := a.pipeline
	for _, in := range r.Inputs {
		if r.File {
			p.Submit(importer.Import(in))
		} else {
			p.SubmitURL(report.URL(in))
		}
		p.Wait()
	}

	res := p.Project().Current()
	if res.IsFailure() {
		return res.Error()
	}
	if r.JSON {
		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Value())
	}
	return printTerms(g.Out, res.Value())
}

func printTerms(w io.Writer, p report.Project) error {
	if len(p.TopTerms) == 0 {
		return errors.New("no terms")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TERM\tCOUNT")
	for _, t := range p.TopTerms {
		fmt.Fprintf(tw, "%s\t%d\n", t.Token, t.Count)
	}
	return tw.Flush()
}
