package dom

import (
	"context"
	"testing"
	"time"

	"github.com/JSH-Team/domprobe/internal/browser"
	"github.com/JSH-Team/domprobe/internal/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBrowserPool starts a single real headless worker. Tests using it are
// skipped on machines without a Chromium binary.
func newBrowserPool(t *testing.T) *pool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("browser tests disabled in short mode")
	}

	bin, ok := browser.LookPath()
	if !ok {
		t.Skip("no chromium binary found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)

	p, err := pool.New(ctx, pool.Options{
		Concurrency: 1,
		Launcher:    browser.NewRodLauncher(bin, true),
		EvalTimeout: 20 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown() })
	return p
}

func loadRaw(t *testing.T, p *pool.Pool, markup string) *pool.Session {
	t.Helper()
	s, err := p.LoadFromRaw(context.Background(), markup, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestBrowser_MatchSelectorsEndToEnd(t *testing.T) {
	p := newBrowserPool(t)
	s := loadRaw(t, p, `<html><body><div id="a"></div></body></html>`)

	got, err := MatchSelectors(context.Background(), s, []string{"#a", "#b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#a"}, got)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, p.Stats()[0].OpenSessions)
}

func TestBrowser_MatchSelectorsUnwrapsNoscript(t *testing.T) {
	p := newBrowserPool(t)
	s := loadRaw(t, p, `<html><body>
		<noscript><div class="x"></div><span class="y"></span></noscript>
	</body></html>`)

	got, err := MatchSelectors(context.Background(), s, []string{".x", ".y", ".z"})
	require.NoError(t, err)
	assert.Equal(t, []string{".x", ".y"}, got)
}

func TestBrowser_MatchSelectorsKeepsInvalid(t *testing.T) {
	p := newBrowserPool(t)
	s := loadRaw(t, p, `<html><body><p>text</p></body></html>`)

	got, err := MatchSelectors(context.Background(), s, []string{":::bad", "p", "table"})
	require.NoError(t, err)
	assert.Equal(t, []string{":::bad", "p"}, got)
}

func TestBrowser_ListStylesheetsMedia(t *testing.T) {
	p := newBrowserPool(t)
	s := loadRaw(t, p, `<html><head>
		<link rel="stylesheet" href="https://example.com/p.css" media="print">
		<link rel="stylesheet" href="https://example.com/s.css" media="screen">
		<link rel="stylesheet" href="https://example.com/n.css">
	</head><body></body></html>`)

	got, err := ListStylesheets(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/s.css", "https://example.com/n.css"}, got)

	got, err = ListStylesheets(context.Background(), s, []string{"print"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/p.css", "https://example.com/s.css", "https://example.com/n.css"}, got)
}

func TestBrowser_EvaluateThrows(t *testing.T) {
	p := newBrowserPool(t)
	s := loadRaw(t, p, `<html></html>`)

	_, err := s.Evaluate(context.Background(), `() => { throw new Error("nope") }`)
	var evalErr *pool.EvaluationError
	assert.ErrorAs(t, err, &evalErr)

	_, err = s.Evaluate(context.Background(), `() => null`)
	assert.ErrorIs(t, err, pool.ErrNoResult)
}
