package fetch

import (
	"context"
	"fmt"

	"github.com/JSH-Team/domprobe/internal/dom"
	htmlutils "github.com/JSH-Team/domprobe/internal/utils/html"
	"github.com/JSH-Team/domprobe/internal/utils/logger"
)

// Stylesheet is the CSS text of one linked or inline stylesheet.
type Stylesheet struct {
	URL     string `yaml:"url,omitempty"`
	Media   string `yaml:"media,omitempty"`
	Inline  bool   `yaml:"inline,omitempty"`
	Size    int    `yaml:"size"`
	Error   string `yaml:"error,omitempty"`
	Content string `yaml:"-"`
}

// FetchStylesheets downloads pageURL and then the CSS of every stylesheet it
// references. A page that cannot be fetched is an error; a stylesheet that
// cannot be fetched is reported in its Error field.
func FetchStylesheets(ctx context.Context, f AssetFetcher, pageURL string, media []string) ([]Stylesheet, error) {
	page, err := f.RateLimitedGet(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		return nil, fmt.Errorf("GET %s: status %d", pageURL, page.StatusCode)
	}

	return StylesheetsFromMarkup(ctx, f, page.Body, pageURL, media)
}

// StylesheetsFromMarkup collects the stylesheets of already loaded markup.
// Linked sheets come first in document order, then inline <style> blocks.
// Only media accepted by dom.MediaAllowed are kept.
func StylesheetsFromMarkup(ctx context.Context, f AssetFetcher, markup, baseURL string, media []string) ([]Stylesheet, error) {
	links, err := htmlutils.StylesheetLinks(markup, baseURL)
	if err != nil {
		return nil, err
	}
	inline, err := htmlutils.InlineStyles(markup)
	if err != nil {
		return nil, err
	}

	var sheets []Stylesheet
	for _, link := range links {
		if !dom.MediaAllowed(link.Media, media) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return sheets, err
		}

		sheet := Stylesheet{URL: link.Href, Media: link.Media}
		resp, err := f.RateLimitedGet(ctx, link.Href)
		switch {
		case err != nil:
			logger.Warn("Failed to fetch stylesheet %s: %v", link.Href, err)
			sheet.Error = err.Error()
		case !resp.OK():
			logger.Warn("Stylesheet %s returned status %d", link.Href, resp.StatusCode)
			sheet.Error = fmt.Sprintf("status %d", resp.StatusCode)
		default:
			sheet.Content = resp.Body
			sheet.Size = len(resp.Body)
		}
		sheets = append(sheets, sheet)
	}

	for _, style := range inline {
		if !dom.MediaAllowed(style.Media, media) {
			continue
		}
		sheets = append(sheets, Stylesheet{
			URL:     fmt.Sprintf("inline_%d.css", style.Index),
			Media:   style.Media,
			Inline:  true,
			Content: style.Content,
			Size:    len(style.Content),
		})
	}

	logger.Debug("Collected %d stylesheets from %s", len(sheets), baseURL)
	return sheets, nil
}
