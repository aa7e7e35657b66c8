package dom

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/JSH-Team/domprobe/internal/browser"
	"github.com/JSH-Team/domprobe/internal/pool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ysmood/gson"
)

// scriptedProcess answers the two query scripts the way Chromium does: with
// the raw JSON bytes of the result.
type scriptedProcess struct {
	sheets  []StylesheetRef
	present map[string]bool
}

func (p *scriptedProcess) NewPage(context.Context) (browser.Page, error) {
	return &scriptedPage{proc: p}, nil
}

func (p *scriptedProcess) Close() error { return nil }

type scriptedPage struct {
	proc *scriptedProcess
}

func (p *scriptedPage) Navigate(context.Context, string) error   { return nil }
func (p *scriptedPage) SetContent(context.Context, string) error { return nil }
func (p *scriptedPage) Close() error                             { return nil }

func (p *scriptedPage) Eval(_ context.Context, js string, args ...interface{}) (gson.JSON, error) {
	var result interface{}
	switch js {
	case stylesheetsScript:
		result = p.proc.sheets
	case matchSelectorsScript:
		matched := []string{}
		for _, sel := range args[0].([]string) {
			if p.proc.present[sel] {
				matched = append(matched, sel)
			}
		}
		result = matchResult{Selectors: matched}
	default:
		return gson.NewFrom("null"), nil
	}

	b, err := json.Marshal(result)
	if err != nil {
		return gson.JSON{}, err
	}
	return gson.NewFrom(string(b)), nil
}

func newScriptedSession(t *testing.T, proc *scriptedProcess) *pool.Session {
	t.Helper()
	p, err := pool.New(context.Background(), pool.Options{Existing: []browser.Process{proc}})
	require.NoError(t, err)

	s, err := p.LoadFromRaw(context.Background(), `<html><body><div id="a"></div></body></html>`, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_MatchSelectors(t *testing.T) {
	s := newScriptedSession(t, &scriptedProcess{present: map[string]bool{"#a": true}})

	got, err := MatchSelectors(context.Background(), s, []string{"#a", "#b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"#a"}, got)

	got, err = MatchSelectors(context.Background(), s, []string{"#b"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSession_ListStylesheets(t *testing.T) {
	s := newScriptedSession(t, &scriptedProcess{sheets: []StylesheetRef{
		{Href: "https://a.test/screen.css", Media: "screen"},
		{Href: "https://a.test/print.css", Media: "print"},
		{Href: "https://a.test/speech.css", Media: "speech"},
	}})

	got, err := ListStylesheets(context.Background(), s, []string{"print"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test/screen.css", "https://a.test/print.css"}, got)

	got, err = ListStylesheets(context.Background(), s, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test/screen.css"}, got, "repeat queries on one session")
}

func TestSession_NullResult(t *testing.T) {
	s := newScriptedSession(t, &scriptedProcess{})

	_, err := s.Evaluate(context.Background(), "() => null")
	assert.True(t, pool.IsNoResult(err))
}
