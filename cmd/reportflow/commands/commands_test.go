package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/lguimbarda/reportflow/internal/config"
	"github.com/lguimbarda/reportflow/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGlobal(t *testing.T) (*Global, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Global{
		Config: config.Default(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Out:    &out,
	}, &out
}

func writeInput(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestParse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)

	kctx, err := parser.Parse([]string{"-v", "run", "-f", "a.txt", "b.txt"})
	require.NoError(t, err)
	assert.Equal(t, "run <input>", kctx.Command())
	assert.True(t, cli.Verbose)
	assert.True(t, cli.Run.File)
	assert.Equal(t, []string{"a.txt", "b.txt"}, cli.Run.Inputs)

	_, err = parser.Parse([]string{"history", "-n", "5"})
	require.NoError(t, err)
	assert.Equal(t, 5, cli.History.Limit)
}

func TestSetup(t *testing.T) {
	t.Chdir(t.TempDir())
	cfgPath := writeInput(t, "reportflow.yaml", "log:\n  format: json\n")

	var logs bytes.Buffer
	g, err := Setup(&CLI{Config: cfgPath, Verbose: true}, io.Discard, &logs)
	require.NoError(t, err)
	assert.Equal(t, "debug", g.Config.Log.Level)

	g.Logger.Debug("hello")
	assert.Contains(t, logs.String(), `"msg":"hello"`)

	_, err = Setup(&CLI{Config: filepath.Join(t.TempDir(), "missing.yaml")}, io.Discard, io.Discard)
	assert.Error(t, err)
}

func TestRunCmd(t *testing.T) {
	g, out := testGlobal(t)
	first := writeInput(t, "first.txt", "alpha")
	last := writeInput(t, "last.txt", "the cat and the hat")

	cmd := &RunCmd{Inputs: []string{first, last}, File: true}
	require.NoError(t, cmd.Run(g, nil))

	assert.Contains(t, out.String(), "TERM")
	assert.Regexp(t, `the\s+2`, out.String())
	assert.NotContains(t, out.String(), "alpha")
}

func TestRunCmd_JSON(t *testing.T) {
	g, out := testGlobal(t)
	cmd := &RunCmd{Inputs: []string{writeInput(t, "doc.md", "# Bingo\n\nbingo *bingo*")}, JSON: true}
	require.NoError(t, cmd.Run(g, nil))

	var p report.Project
	require.NoError(t, json.Unmarshal(out.Bytes(), &p))
	require.NotEmpty(t, p.TopTerms)
	assert.Equal(t, report.Term{Token: "bingo", Count: 3}, p.TopTerms[0])
}

func TestRunCmd_Failure(t *testing.T) {
	g, _ := testGlobal(t)
	cmd := &RunCmd{Inputs: []string{filepath.Join(t.TempDir(), "missing.txt")}, File: true}

	err := cmd.Run(g, nil)
	require.Error(t, err)

	var ie *report.ImportError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, report.FileNotFound, ie.Kind)
}

func TestHistoryCmd(t *testing.T) {
	g, out := testGlobal(t)

	err := (&HistoryCmd{Limit: 5}).Run(g, nil)
	assert.ErrorContains(t, err, "history is disabled")

	g.Config.History.Path = filepath.Join(t.TempDir(), "runs.db")
	require.NoError(t, (&RunCmd{Inputs: []string{writeInput(t, "a.txt", "one two two")}}).Run(g, nil))
	require.Error(t, (&RunCmd{Inputs: []string{writeInput(t, "b.txt", "  ")}}).Run(g, nil))

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 5}).Run(g, nil))
	assert.Contains(t, out.String(), "OUTCOME")
	assert.Contains(t, out.String(), "top: two (2)")
	assert.Contains(t, out.String(), "empty content")

	out.Reset()
	require.NoError(t, (&HistoryCmd{Limit: 1, JSON: true}).Run(g, nil))
	var runs []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "error", runs[0]["outcome"])
}
