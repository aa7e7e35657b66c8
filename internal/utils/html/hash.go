package html

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// StructuralHash hashes the element structure of a document, ignoring
// scripts, comments, whitespace and every attribute except id, class, rel,
// href and media. Two snapshots of the same page that only differ in nonces
// or inline script output hash the same.
func StructuralHash(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	doc.Find("script, meta").Remove()
	for _, n := range doc.Nodes {
		stripNoise(n)
	}

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		node := s.Nodes[0]
		kept := node.Attr[:0]
		for _, attr := range node.Attr {
			switch attr.Key {
			case "id", "class", "rel", "href", "media":
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	normalized, err := doc.Html()
	if err != nil {
		return "", err
	}
	normalized = strings.Join(strings.Fields(normalized), " ")

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), nil
}

// stripNoise drops comments and whitespace-only text nodes.
func stripNoise(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		switch {
		case child.Type == html.CommentNode:
			n.RemoveChild(child)
		case child.Type == html.TextNode && strings.TrimSpace(child.Data) == "":
			n.RemoveChild(child)
		default:
			stripNoise(child)
		}
		child = next
	}
}
