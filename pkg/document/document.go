// Package document turns articles and plain text into sentences the parser
// can work through one at a time.
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/go-shiori/go-readability"
)

// maxBodySize bounds the HTML read from untrusted URLs.
const maxBodySize = 10 * 1024 * 1024

// Document is the readable content of a page or file.
type Document struct {
	Title  string
	Author string
	Site   string
	URL    string
	Text   string
}

// Fetch downloads pageURL and extracts its article text.
func Fetch(ctx context.Context, client *http.Client, pageURL string) (Document, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: got status %s", pageURL, resp.Status)
	}
	if resp.ContentLength > maxBodySize {
		return Document{}, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, maxBodySize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Document{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) >= maxBodySize {
		return Document{}, fmt.Errorf("response body exceeded maximum size limit of %d bytes", maxBodySize)
	}
	return FromHTML(body, pageURL)
}

// FromHTML extracts the article from an HTML page.
func FromHTML(page []byte, pageURL string) (Document, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("invalid url %q: %w", pageURL, err)
	}
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(page)), u)
	if err != nil {
		return Document{}, fmt.Errorf("failed to extract article: %w", err)
	}
	return Document{
		Title:  article.Title,
		Author: article.Byline,
		Site:   article.SiteName,
		URL:    pageURL,
		Text:   article.TextContent,
	}, nil
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses
// (<rp>...</rp>) from HTML, so annotated words are not extracted twice
// ("漢字" rather than "漢字かんじ").
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	return reRP.ReplaceAll(cleaned, []byte{})
}
