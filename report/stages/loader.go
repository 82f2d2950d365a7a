// Package stages provides the default content, report and project stages:
// a loader for local files and HTTP resources, a tokenizing report builder,
// and a projection ranking the most frequent terms.
package stages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/report"
)

// Loader defaults.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 4 << 20
	DefaultUserAgent = "reportflow/1.0"
)

// ErrTooLarge is returned when a resource exceeds the Loader's MaxBytes.
var ErrTooLarge = errors.New("content exceeds size limit")

// Loader is the content stage. It reads file:// URLs and bare paths from
// disk and fetches http(s) URLs. Markdown sources are reduced to plain
// text.
type Loader struct {
	Client    *http.Client
	Timeout   time.Duration
	MaxBytes  int64
	UserAgent string
}

// NewLoader creates a Loader with the default limits.
func NewLoader() *Loader {
	return &Loader{
		Client:    http.DefaultClient,
		Timeout:   DefaultTimeout,
		MaxBytes:  DefaultMaxBytes,
		UserAgent: DefaultUserAgent,
	}
}

// Load loads u. Failures to read are LoadFailed; a resource with no
// visible text is EmptyContent.
func (l *Loader) Load(ctx context.Context, u report.URL) report.ContentResult {
	body, markdown, err := l.fetch(ctx, string(u))
	if err != nil {
		return core.Failure[report.Content](report.NewContentError(report.LoadFailed, err))
	}

	text := string(body)
	if markdown {
		text = MarkdownText(body)
	}
	if strings.TrimSpace(text) == "" {
		return core.Failure[report.Content](report.NewContentError(report.EmptyContent, nil))
	}
	return core.Success[report.Content, *report.ContentError](report.Content(text))
}

func (l *Loader) fetch(ctx context.Context, raw string) ([]byte, bool, error) {
	scheme, _, found := strings.Cut(raw, "://")
	if !found {
		return l.readFile(raw)
	}

	switch strings.ToLower(scheme) {
	case "file":
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, false, err
		}
		return l.readFile(filepath.FromSlash(parsed.Path))
	case "http", "https":
		return l.get(ctx, raw)
	default:
		return nil, false, fmt.Errorf("unsupported scheme %q", scheme)
	}
}

func (l *Loader) readFile(name string) ([]byte, bool, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	body, err := l.readAll(file)
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return body, isMarkdownPath(name), nil
}

func (l *Loader) get(ctx context.Context, raw string) ([]byte, bool, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, false, err
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("GET %s: %s", raw, resp.Status)
	}

	body, err := l.readAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("GET %s: %w", raw, err)
	}

	markdown := isMarkdownPath(req.URL.Path)
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
		markdown = markdown || mt == "text/markdown" || mt == "text/x-markdown"
	}
	return body, markdown, nil
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	if l.MaxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, l.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > l.MaxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}

func isMarkdownPath(p string) bool {
	switch strings.ToLower(path.Ext(filepath.ToSlash(p))) {
	case ".md", ".markdown":
		return true
	}
	return false
}
