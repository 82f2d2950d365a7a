// Package importer turns local filenames into pipeline input and watches
// files so that every change is submitted again.
package importer

import (
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/report"
)

var errIsDir = errors.New("is a directory")

// Resolve checks that name is a readable regular file and returns its
// file:// URL. Failures are *report.ImportError.
func Resolve(name string) (report.URL, error) {
	if strings.TrimSpace(name) == "" {
		return "", &report.ImportError{Kind: report.EmptyFilename}
	}
	if strings.ContainsRune(name, 0) || !utf8.ValidString(name) {
		return "", &report.ImportError{Kind: report.InvalidFilename, Name: name}
	}

	abs, err := filepath.Abs(name)
	if err != nil {
		return "", &report.ImportError{Kind: report.InvalidFilename, Name: name, Cause: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", statError(name, err)
	}
	if info.IsDir() {
		return "", &report.ImportError{Kind: report.InvalidFilename, Name: name, Cause: errIsDir}
	}

	f, err := os.Open(abs)
	if err != nil {
		return "", statError(name, err)
	}
	f.Close()

	return report.URL((&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()), nil
}

// Import resolves name into a Result ready for report.Pipeline.Submit.
func Import(name string) core.Result[report.URL, error] {
	u, err := Resolve(name)
	return core.From(u, err, func(err error) error { return err })
}

func statError(name string, err error) *report.ImportError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &report.ImportError{Kind: report.FileNotFound, Name: name, Cause: err}
	case errors.Is(err, fs.ErrPermission):
		return &report.ImportError{Kind: report.AccessDenied, Name: name, Cause: err}
	default:
		return &report.ImportError{Kind: report.InvalidFilename, Name: name, Cause: err}
	}
}
