package stages

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"unicode"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/report"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultTopTerms is how many terms BuildProject keeps.
const DefaultTopTerms = 10

// Tokenize splits s into case-folded, NFC-normalized words. Anything that
// is not a letter or a digit separates words.
func Tokenize(s string) []string {
	folded := norm.NFC.String(cases.Fold().String(s))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.Is(unicode.Mn, r)
	})
}

// BuildReport is the report stage. Content without a single word is
// EmptyReport.
func BuildReport(_ context.Context, c report.Content) report.ReportResult {
	tokens := Tokenize(string(c))
	if len(tokens) == 0 {
		return core.Failure[report.Report](report.NewReportError(report.EmptyReport, nil))
	}
	return core.Success[report.Report, *report.ReportError](report.Report{
		Text:   string(c),
		Tokens: tokens,
		Counts: lo.CountValues(tokens),
	})
}

// BuildProject is the project stage, keeping DefaultTopTerms terms.
func BuildProject(ctx context.Context, r report.Report) report.ProjectResult {
	return TopTerms(DefaultTopTerms)(ctx, r)
}

// TopTerms returns a project stage keeping the n most frequent terms,
// ties broken alphabetically. n <= 0 keeps every term. A report without
// terms is EmptyProject.
func TopTerms(n int) func(context.Context, report.Report) report.ProjectResult {
	return func(_ context.Context, r report.Report) report.ProjectResult {
		counts := r.Counts
		if counts == nil {
			counts = lo.CountValues(r.Tokens)
		}
		if len(counts) == 0 {
			return core.Failure[report.Project](report.NewProjectError(report.EmptyProject, nil))
		}

		terms := lo.MapToSlice(counts, func(token string, count int) report.Term {
			return report.Term{Token: token, Count: count}
		})
		slices.SortFunc(terms, func(a, b report.Term) int {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}
			return strings.Compare(a.Token, b.Token)
		})
		if n > 0 && len(terms) > n {
			terms = terms[:n]
		}
		return core.Success[report.Project, *report.ProjectError](report.Project{Report: r, TopTerms: terms})
	}
}
