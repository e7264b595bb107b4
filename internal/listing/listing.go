// Package listing discovers the PDF documents published on the council's
// building-applications page. Download links are anchors carrying a
// "download" attribute; the anchor title doubles as the document identity.
package listing

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/net/html"

	"github.com/stanle/cityperthscraper/pkg/scraper"
)

// Client fetches and parses the listing page.
type Client struct {
	PageURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// Discover returns the documents linked from the listing page, in document
// order. Anchors without a title or href are skipped.
func (c *Client) Discover(ctx context.Context) ([]scraper.Document, error) {
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.PageURL, nil)
	if err != nil {
		return nil, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", c.PageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch listing %s: HTTP %d", c.PageURL, resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", c.PageURL, err)
	}

	base, err := url.Parse(c.PageURL)
	if err != nil {
		return nil, err
	}

	var docs []scraper.Document
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" && hasAttr(n, "download") {
			title := attr(n, "title")
			href := attr(n, "href")
			if title != "" && href != "" {
				if ref, err := url.Parse(href); err == nil {
					docs = append(docs, scraper.Document{
						Title: title,
						URL:   base.ResolveReference(ref).String(),
					})
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return docs, nil
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
