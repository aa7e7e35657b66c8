// Package dom implements the queries domprobe runs inside a loaded page:
// stylesheet enumeration and selector matching.
package dom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JSH-Team/domprobe/internal/pool"

	"github.com/ysmood/gson"
)

// MediaDefaults are always accepted by ListStylesheets, whatever the caller
// passes. A link without a media attribute reports "".
var MediaDefaults = []string{"", "all", "screen"}

// Evaluator runs a script in a loaded page. *pool.Session implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, script string, args ...interface{}) (gson.JSON, error)
}

// StylesheetRef is one <link rel="stylesheet"> found in the page.
type StylesheetRef struct {
	Href  string `json:"href" yaml:"href"`
	Media string `json:"media" yaml:"media"`
}

// Stylesheets returns the stylesheet links whose media is one of the
// defaults or in mediaAllowList, in document order.
func Stylesheets(ctx context.Context, s Evaluator, mediaAllowList []string) ([]StylesheetRef, error) {
	value, err := s.Evaluate(ctx, stylesheetsScript)
	if err != nil {
		if errors.Is(err, pool.ErrNoResult) {
			return []StylesheetRef{}, nil
		}
		return nil, err
	}

	var sheets []StylesheetRef
	if err := decode(value, &sheets); err != nil {
		return nil, fmt.Errorf("failed to decode stylesheet list: %w", err)
	}

	refs := make([]StylesheetRef, 0, len(sheets))
	for _, sheet := range sheets {
		if MediaAllowed(sheet.Media, mediaAllowList) {
			refs = append(refs, sheet)
		}
	}
	return refs, nil
}

// ListStylesheets is Stylesheets reduced to hrefs.
func ListStylesheets(ctx context.Context, s Evaluator, mediaAllowList []string) ([]string, error) {
	refs, err := Stylesheets(ctx, s, mediaAllowList)
	if err != nil {
		return nil, err
	}
	hrefs := make([]string, len(refs))
	for i, ref := range refs {
		hrefs[i] = ref.Href
	}
	return hrefs, nil
}

// MediaAllowed reports whether a stylesheet with the given media attribute
// passes the filter. The comparison is exact; media queries are not
// evaluated.
func MediaAllowed(media string, mediaAllowList []string) bool {
	for _, m := range MediaDefaults {
		if media == m {
			return true
		}
	}
	for _, m := range mediaAllowList {
		if media == m {
			return true
		}
	}
	return false
}

type matchResult struct {
	Selectors []string `json:"selectors"`
}

// MatchSelectors returns the candidates that match at least one element of
// the page. Content inside <noscript> is unwrapped into the DOM first, so
// rules aimed at it count as reachable. A selector the browser cannot parse
// is always kept.
//
// When the page returns nothing, the error is pool.ErrNoResult and the
// caller decides whether to carry on.
func MatchSelectors(ctx context.Context, s Evaluator, candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return []string{}, nil
	}

	value, err := s.Evaluate(ctx, matchSelectorsScript, candidates)
	if err != nil {
		return nil, err
	}

	var res matchResult
	if err := decode(value, &res); err != nil {
		return nil, fmt.Errorf("failed to decode selector matches: %w", err)
	}
	if res.Selectors == nil {
		return []string{}, nil
	}
	return res.Selectors, nil
}

// decode unmarshals a page result. Raw bytes from the browser are decoded
// directly; a value that was already parsed is re-encoded first.
func decode(value gson.JSON, v interface{}) error {
	if _, ok := value.Raw().([]byte); ok {
		return value.Unmarshal(v)
	}
	b, err := value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Unmatched returns the candidates missing from matched, keeping candidate
// order.
func Unmatched(candidates, matched []string) []string {
	seen := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		seen[m] = struct{}{}
	}

	out := []string{}
	for _, c := range candidates {
		if _, ok := seen[c]; !ok {
			out = append(out, c)
		}
	}
	return out
}
