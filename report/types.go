// Package report wires the content → report → project pipeline: three
// injected stages joined by links, one published slot per stage, an Input
// Gate that accepts fallible URLs, and a derived status.
package report

import (
	"context"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/flow/link"
)

// URL locates the content to load. Its scheme is interpreted by the
// content stage.
type URL string

// Content is the text loaded from a URL.
type Content string

// Report is the tokenized form of some Content.
type Report struct {
	Text   string         `json:"text"`
	Tokens []string       `json:"tokens,omitempty"`
	Counts map[string]int `json:"counts,omitempty"`
}

// Term is a token and the number of times it occurs.
type Term struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Project is the final projection of a Report.
type Project struct {
	Report   Report `json:"report"`
	TopTerms []Term `json:"top_terms,omitempty"`
}

// Result types held by the published slots.
type (
	ContentResult = core.Result[Content, *ContentError]
	ReportResult  = core.Result[Report, *ReportError]
	ProjectResult = core.Result[Project, *ProjectError]
)

// Stages are the three transforms the pipeline runs. Each one receives an
// unwrapped upstream value; upstream failures are mapped by the pipeline
// and never reach them.
type Stages struct {
	Content link.ValueStage[URL, Content, *ContentError]
	Report  link.ValueStage[Content, Report, *ReportError]
	Project link.ValueStage[Report, Project, *ProjectError]
}

// Submission identifies one call to Submit. It is attached to the context
// every stage of that submission runs with.
type Submission struct {
	ID  string
	URL URL
}

// SubmissionFrom returns the Submission a stage is running for.
func SubmissionFrom(ctx context.Context) (Submission, bool) {
	return core.ValueFrom[Submission](ctx)
}
