// Package html extracts stylesheet information from static markup, without a
// browser.
package html

import (
	"fmt"
	"strings"

	urlutils "github.com/JSH-Team/domprobe/internal/utils/url"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Link is a <link rel="stylesheet"> as written in the markup.
type Link struct {
	Href  string
	Media string
}

// InlineStyle is the text of one <style> element.
type InlineStyle struct {
	Content string
	Media   string
	Index   int
}

// StylesheetLinks returns the stylesheet links of markup in document order,
// with hrefs resolved against baseURL. Links without an href are skipped.
func StylesheetLinks(markup, baseURL string) ([]Link, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var links []Link
	doc.Find(`link[rel="stylesheet"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		resolved := href
		if baseURL != "" {
			abs, err := urlutils.ToAbsoluteURL(baseURL, strings.TrimSpace(href))
			if err != nil {
				return
			}
			resolved = abs
		}

		media, _ := s.Attr("media")
		links = append(links, Link{Href: resolved, Media: media})
	})

	return links, nil
}

// InlineStyles returns the non-empty <style> blocks of markup, numbered from 1.
func InlineStyles(markup string) ([]InlineStyle, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var styles []InlineStyle
	index := 1

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "style" {
			media := ""
			for _, attr := range n.Attr {
				if attr.Key == "media" {
					media = attr.Val
				}
			}

			var content strings.Builder
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				if child.Type == html.TextNode {
					content.WriteString(child.Data)
				}
			}

			if text := strings.TrimSpace(content.String()); text != "" {
				styles = append(styles, InlineStyle{Content: text, Media: media, Index: index})
				index++
			}
			return
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			traverse(child)
		}
	}
	traverse(doc)

	return styles, nil
}
