package refresh

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lguimbarda/reportflow/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	last      report.URL
	has       bool
	submitted []report.URL
}

func (f *fakeSource) LastURL() (report.URL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.has
}

func (f *fakeSource) SubmitURL(u report.URL) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, u)
}

func (f *fakeSource) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestRefresh(t *testing.T) {
	t.Run("nothing submitted yet", func(t *testing.T) {
		src := &fakeSource{}
		r, err := New(src, quiet)
		require.NoError(t, err)
		t.Cleanup(func() { _ = r.Stop() })

		r.Refresh()
		assert.Zero(t, src.count())
	})

	t.Run("resubmits last URL", func(t *testing.T) {
		src := &fakeSource{last: "https://example.com/a", has: true}
		r, err := New(src, quiet)
		require.NoError(t, err)
		t.Cleanup(func() { _ = r.Stop() })

		r.Refresh()
		r.Refresh()
		assert.Equal(t, []report.URL{"https://example.com/a", "https://example.com/a"}, src.submitted)
	})
}

func TestEvery(t *testing.T) {
	t.Run("rejects non-positive interval", func(t *testing.T) {
		r, err := New(&fakeSource{}, quiet)
		require.NoError(t, err)
		t.Cleanup(func() { _ = r.Stop() })

		_, err = r.Every(0)
		require.ErrorIs(t, err, ErrInterval)
	})

	t.Run("runs periodically", func(t *testing.T) {
		src := &fakeSource{last: "file:///tmp/x", has: true}
		r, err := New(src, quiet)
		require.NoError(t, err)
		t.Cleanup(func() { _ = r.Stop() })

		id, err := r.Every(20 * time.Millisecond)
		require.NoError(t, err)
		require.NotEmpty(t, id)

		r.Start()
		require.Eventually(t, func() bool { return src.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
	})
}
