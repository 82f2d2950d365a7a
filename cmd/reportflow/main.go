package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lguimbarda/reportflow/cmd/reportflow/commands"
)

var version = "dev"

func main() {
	var cli commands.CLI
	kctx := kong.Parse(&cli,
		kong.Name("reportflow"),
		kong.Description("Load text from files or URLs and report its most frequent terms."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)

	global, err := commands.Setup(&cli, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reportflow:", err)
		os.Exit(1)
	}

	kctx.FatalIfErrorf(kctx.Run(global, &cli))
}
