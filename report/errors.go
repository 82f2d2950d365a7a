package report

import (
	"fmt"

	"github.com/lguimbarda/reportflow/flow/core"
)

// ImportErrorKind enumerates why a file could not be turned into a URL.
type ImportErrorKind int

const (
	EmptyFilename ImportErrorKind = iota + 1
	InvalidFilename
	FileNotFound
	AccessDenied
)

func (k ImportErrorKind) String() string {
	switch k {
	case EmptyFilename:
		return "empty filename"
	case InvalidFilename:
		return "invalid filename"
	case FileNotFound:
		return "file not found"
	case AccessDenied:
		return "access denied"
	default:
		return "unknown import error"
	}
}

// ImportError is raised before the pipeline, while acquiring its input.
// The Input Gate wraps it into a ContentError of kind FileImportFailed.
type ImportError struct {
	Kind  ImportErrorKind
	Name  string
	Cause error
}

func (e *ImportError) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() error { return e.Cause }

// Is matches another ImportError with the same kind, name and cause.
func (e *ImportError) Is(target error) bool {
	t, ok := target.(*ImportError)
	return ok && t.Kind == e.Kind && t.Name == e.Name && core.SameError(e.Cause, t.Cause)
}

// ContentErrorKind enumerates content stage failures.
type ContentErrorKind int

const (
	// ContentNotComputed is the sentinel a content slot holds before its
	// first Result.
	ContentNotComputed ContentErrorKind = iota
	EmptyContent
	LoadFailed
	FileImportFailed
)

func (k ContentErrorKind) String() string {
	switch k {
	case ContentNotComputed:
		return "content not computed"
	case EmptyContent:
		return "empty content"
	case LoadFailed:
		return "content load failed"
	case FileImportFailed:
		return "file import failed"
	default:
		return "unknown content error"
	}
}

// ContentError is the error type of the content stage.
type ContentError struct {
	Kind  ContentErrorKind
	Cause error
}

// NewContentError creates a ContentError.
func NewContentError(kind ContentErrorKind, cause error) *ContentError {
	return &ContentError{Kind: kind, Cause: cause}
}

func (e *ContentError) Error() string { return render(e.Kind.String(), e.Cause) }

func (e *ContentError) Unwrap() error { return e.Cause }

// Is matches another ContentError with the same kind and cause.
func (e *ContentError) Is(target error) bool {
	t, ok := target.(*ContentError)
	return ok && t.Kind == e.Kind && core.SameError(e.Cause, t.Cause)
}

// ReportErrorKind enumerates report stage failures.
type ReportErrorKind int

const (
	ReportNotComputed ReportErrorKind = iota
	EmptyReport
	TransformationFailed
	// ContentFailed wraps the upstream ContentError.
	ContentFailed
)

func (k ReportErrorKind) String() string {
	switch k {
	case ReportNotComputed:
		return "report not computed"
	case EmptyReport:
		return "empty report"
	case TransformationFailed:
		return "transformation failed"
	case ContentFailed:
		return "content failed"
	default:
		return "unknown report error"
	}
}

// ReportError is the error type of the report stage.
type ReportError struct {
	Kind  ReportErrorKind
	Cause error
}

// NewReportError creates a ReportError.
func NewReportError(kind ReportErrorKind, cause error) *ReportError {
	return &ReportError{Kind: kind, Cause: cause}
}

// WrapContentError maps an upstream content failure into the report stage.
func WrapContentError(err *ContentError) *ReportError {
	return &ReportError{Kind: ContentFailed, Cause: err}
}

func (e *ReportError) Error() string { return render(e.Kind.String(), e.Cause) }

func (e *ReportError) Unwrap() error { return e.Cause }

// Is matches another ReportError with the same kind and cause.
func (e *ReportError) Is(target error) bool {
	t, ok := target.(*ReportError)
	return ok && t.Kind == e.Kind && core.SameError(e.Cause, t.Cause)
}

// ProjectErrorKind enumerates project stage failures.
type ProjectErrorKind int

const (
	ProjectNotComputed ProjectErrorKind = iota
	EmptyProject
	ProjectionFailed
	// ReportFailed wraps the upstream ReportError.
	ReportFailed
)

func (k ProjectErrorKind) String() string {
	switch k {
	case ProjectNotComputed:
		return "project not computed"
	case EmptyProject:
		return "empty project"
	case ProjectionFailed:
		return "projection failed"
	case ReportFailed:
		return "report failed"
	default:
		return "unknown project error"
	}
}

// ProjectError is the error type of the project stage.
type ProjectError struct {
	Kind  ProjectErrorKind
	Cause error
}

// NewProjectError creates a ProjectError.
func NewProjectError(kind ProjectErrorKind, cause error) *ProjectError {
	return &ProjectError{Kind: kind, Cause: cause}
}

// WrapReportError maps an upstream report failure into the project stage.
func WrapReportError(err *ReportError) *ProjectError {
	return &ProjectError{Kind: ReportFailed, Cause: err}
}

func (e *ProjectError) Error() string { return render(e.Kind.String(), e.Cause) }

func (e *ProjectError) Unwrap() error { return e.Cause }

// Is matches another ProjectError with the same kind and cause.
func (e *ProjectError) Is(target error) bool {
	t, ok := target.(*ProjectError)
	return ok && t.Kind == e.Kind && core.SameError(e.Cause, t.Cause)
}

// Sentinel errors for use with errors.Is. Matching is structural, so a
// freshly built error of the same kind and no cause matches too.
var (
	ErrEmptyContent = &ContentError{Kind: EmptyContent}
	ErrEmptyReport  = &ReportError{Kind: EmptyReport}
	ErrEmptyProject = &ProjectError{Kind: EmptyProject}
)

// normalizeInputError turns an error raised before the pipeline into the
// content stage's error type. A ContentError passes through unchanged;
// anything else becomes FileImportFailed carrying the original cause.
func normalizeInputError(err error) *ContentError {
	if ce, ok := err.(*ContentError); ok && ce != nil {
		return ce
	}
	return &ContentError{Kind: FileImportFailed, Cause: err}
}

func render(kind string, cause error) string {
	if cause == nil {
		return kind
	}
	return kind + ": " + cause.Error()
}
