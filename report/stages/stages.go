package stages

import (
	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/flow/link"
	"github.com/lguimbarda/reportflow/report"
)

// Default returns the loader, report builder and projection as pipeline
// stages. A panic in any of them becomes that stage's failure instead of
// taking the process down.
func Default(loader *Loader) report.Stages {
	return Guarded(report.Stages{
		Content: loader.Load,
		Report:  BuildReport,
		Project: BuildProject,
	})
}

// Guarded wraps each of s's stages so that a panic becomes a
// LoadFailed, TransformationFailed or ProjectionFailed failure carrying
// a core.ErrPanic.
func Guarded(s report.Stages) report.Stages {
	return report.Stages{
		Content: link.GuardValue(s.Content, func(p core.ErrPanic) *report.ContentError {
			return report.NewContentError(report.LoadFailed, p)
		}),
		Report: link.GuardValue(s.Report, func(p core.ErrPanic) *report.ReportError {
			return report.NewReportError(report.TransformationFailed, p)
		}),
		Project: link.GuardValue(s.Project, func(p core.ErrPanic) *report.ProjectError {
			return report.NewProjectError(report.ProjectionFailed, p)
		}),
	}
}
