package stages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lguimbarda/reportflow/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func fileURL(p string) report.URL {
	return report.URL((&url.URL{Scheme: "file", Path: filepath.ToSlash(p)}).String())
}

func TestLoader_File(t *testing.T) {
	l := NewLoader()
	p := writeFile(t, "notes.txt", "bingo bingo")

	t.Run("bare path", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(p))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.Equal(t, report.Content("bingo bingo"), res.Value())
	})

	t.Run("file URL", func(t *testing.T) {
		res := l.Load(context.Background(), fileURL(p))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.Equal(t, report.Content("bingo bingo"), res.Value())
	})

	t.Run("file URL with spaces", func(t *testing.T) {
		spaced := writeFile(t, "my notes.txt", "spaced")
		res := l.Load(context.Background(), fileURL(spaced))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.Equal(t, report.Content("spaced"), res.Value())
	})

	t.Run("missing file", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(filepath.Join(t.TempDir(), "nope.txt")))
		require.True(t, res.IsFailure())
		assert.Equal(t, report.LoadFailed, res.Error().Kind)
		assert.ErrorIs(t, res.Error(), os.ErrNotExist)
	})

	t.Run("whitespace only", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(writeFile(t, "blank.txt", " \n\t ")))
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Error(), report.ErrEmptyContent)
	})

	t.Run("markdown", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(writeFile(t, "doc.md", "# Title\n\nSome *bold* text.\n")))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.NotContains(t, string(res.Value()), "*")
		assert.NotContains(t, string(res.Value()), "#")
		assert.Equal(t, []string{"title", "some", "bold", "text"}, Tokenize(string(res.Value())))
	})

	t.Run("markdown without text", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(writeFile(t, "empty.md", "<!-- nothing -->\n")))
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Error(), report.ErrEmptyContent)
	})

	t.Run("too large", func(t *testing.T) {
		small := &Loader{MaxBytes: 4}
		res := small.Load(context.Background(), report.URL(p))
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Error(), ErrTooLarge)
	})
}

func TestLoader_HTTP(t *testing.T) {
	var gotAgent string
	mux := http.NewServeMux()
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Hello, World!"))
	})
	mux.HandleFunc("/doc", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte("Read [the docs](http://example.com) **now**"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	l := NewLoader()
	l.Client = server.Client()

	t.Run("plain", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(server.URL+"/plain"))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.Equal(t, report.Content("Hello, World!"), res.Value())
		assert.Equal(t, DefaultUserAgent, gotAgent)
	})

	t.Run("markdown content type", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(server.URL+"/doc"))
		require.True(t, res.IsSuccess(), "unexpected %v", res)
		assert.Equal(t, []string{"read", "the", "docs", "now"}, Tokenize(string(res.Value())))
		assert.NotContains(t, string(res.Value()), "example.com")
	})

	t.Run("non 2xx", func(t *testing.T) {
		res := l.Load(context.Background(), report.URL(server.URL+"/missing"))
		require.True(t, res.IsFailure())
		assert.Equal(t, report.LoadFailed, res.Error().Kind)
		assert.Contains(t, res.Error().Error(), "404")
	})

	t.Run("timeout", func(t *testing.T) {
		fast := *l
		fast.Timeout = 20 * time.Millisecond
		res := fast.Load(context.Background(), report.URL(server.URL+"/slow"))
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Error(), context.DeadlineExceeded)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res := l.Load(ctx, report.URL(server.URL+"/plain"))
		require.True(t, res.IsFailure())
		assert.ErrorIs(t, res.Error(), context.Canceled)
	})
}

func TestLoader_UnsupportedScheme(t *testing.T) {
	res := NewLoader().Load(context.Background(), "ftp://example.com/x")
	require.True(t, res.IsFailure())
	assert.Equal(t, report.LoadFailed, res.Error().Kind)
	assert.True(t, strings.Contains(res.Error().Error(), `unsupported scheme "ftp"`))
}
