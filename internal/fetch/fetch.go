// Package fetch discovers meeting documents on the city website: it scans
// the agendas/minutes page for links, classifies each by government body and
// document type, and extracts readable text for the summarizer.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

const defaultUserAgent = "CivicSum/1.0 (+https://github.com/lcf-civic/civicsum)"

type Options struct {
	BaseURL     string
	MeetingsURL string
	Bodies      []string
	UserAgent   string
	MinDelay    time.Duration
	MaxDelay    time.Duration
	MaxRetries  int
	HTTPClient  *http.Client
}

type Fetcher struct {
	opts   Options
	client *http.Client
	logger zerolog.Logger
}

// Document is one discovered meeting document with its extracted text,
// the summarizer's input shape.
type Document struct {
	GovernmentBody string `json:"government_body"`
	DocumentType   string `json:"document_type"`
	Date           string `json:"date"`
	Title          string `json:"title"`
	URL            string `json:"url"`
	Content        string `json:"content,omitempty"`
	Manual         bool   `json:"manual,omitempty"`
}

func New(logger zerolog.Logger, opts Options) *Fetcher {
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.MinDelay <= 0 {
		opts.MinDelay = 1 * time.Second
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay + 2*time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Fetcher{
		opts:   opts,
		client: client,
		logger: logger,
	}
}

// FetchAll scans the meetings page and returns every classified document,
// with text extracted for HTML documents. PDF links are returned without
// content; text extraction for them happens out of band.
func (f *Fetcher) FetchAll(ctx context.Context) ([]Document, error) {
	page, err := f.get(ctx, f.opts.MeetingsURL)
	if err != nil {
		return nil, fmt.Errorf("fetch meetings page: %w", err)
	}

	links, err := f.discoverLinks(page)
	if err != nil {
		return nil, fmt.Errorf("parse meetings page: %w", err)
	}
	f.logger.Info().Int("links", len(links)).Msg("discovered candidate document links")

	documents := make([]Document, 0, len(links))
	for _, doc := range links {
		if strings.HasSuffix(strings.ToLower(doc.URL), ".pdf") {
			documents = append(documents, doc)
			continue
		}

		f.politeDelay(ctx)
		text, err := f.ExtractText(ctx, doc.URL, doc.Title)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", doc.URL).Msg("text extraction failed")
			documents = append(documents, doc)
			continue
		}
		doc.Content = text
		documents = append(documents, doc)
	}

	return documents, nil
}

// get fetches a URL with bounded retries on transient status codes.
func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, defaultBodyByteLimit))
		_ = resp.Body.Close()

		if isRetryableStatus(resp.StatusCode) {
			lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, target)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("status %d from %s", resp.StatusCode, target)
		}
		if readErr != nil {
			lastErr = readErr
			continue
		}
		return body, nil
	}
	return nil, fmt.Errorf("all %d attempts failed: %w", f.opts.MaxRetries, lastErr)
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (f *Fetcher) politeDelay(ctx context.Context) {
	window := f.opts.MaxDelay - f.opts.MinDelay
	delay := f.opts.MinDelay
	if window > 0 {
		delay += time.Duration(rand.Int63n(int64(window)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// discoverLinks walks the page's anchor tags and keeps those that classify
// as an agenda or minutes document for a tracked body.
func (f *Fetcher) discoverLinks(page []byte) ([]Document, error) {
	root, err := html.Parse(strings.NewReader(string(page)))
	if err != nil {
		return nil, err
	}

	var documents []Document
	seen := make(map[string]struct{})

	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			href := attrValue(node, "href")
			text := strings.TrimSpace(anchorText(node))
			if doc, ok := f.classifyLink(text, href); ok {
				if _, dup := seen[doc.URL]; !dup {
					seen[doc.URL] = struct{}{}
					documents = append(documents, doc)
				}
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return documents, nil
}

var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// classifyLink matches an anchor against the tracked body names and the
// agenda/minutes keywords. Links that match neither are not meeting
// documents.
func (f *Fetcher) classifyLink(text, href string) (Document, bool) {
	if strings.TrimSpace(href) == "" || strings.HasPrefix(href, "#") {
		return Document{}, false
	}

	haystack := strings.ToLower(text + " " + href)

	var docType string
	switch {
	case strings.Contains(haystack, "agenda"):
		docType = "agenda"
	case strings.Contains(haystack, "minutes"):
		docType = "minutes"
	default:
		return Document{}, false
	}

	var body string
	for _, candidate := range f.opts.Bodies {
		if strings.Contains(haystack, strings.ToLower(candidate)) {
			body = candidate
			break
		}
	}
	if body == "" {
		return Document{}, false
	}

	title := text
	if title == "" {
		label := "Agenda"
		if docType == "minutes" {
			label = "Minutes"
		}
		title = fmt.Sprintf("%s Meeting %s", body, label)
	}

	return Document{
		GovernmentBody: body,
		DocumentType:   docType,
		Date:           extractDate(text, href),
		Title:          title,
		URL:            f.resolveURL(href),
	}, true
}

// extractDate pulls an ISO date from the link text or URL, or a long-form
// date ("June 3, 2025") from the text. Empty when neither is present; the
// archive's month fallback covers that case downstream.
func extractDate(text, href string) string {
	if match := isoDatePattern.FindString(text); match != "" {
		return match
	}
	if match := isoDatePattern.FindString(href); match != "" {
		return match
	}
	if parsed, err := time.Parse("January 2, 2006", strings.TrimSpace(longDatePattern.FindString(text))); err == nil {
		return parsed.Format("2006-01-02")
	}
	return ""
}

var longDatePattern = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December) \d{1,2}, \d{4}`)

func (f *Fetcher) resolveURL(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if parsed.IsAbs() {
		return href
	}
	base, err := url.Parse(f.opts.BaseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(parsed).String()
}

func attrValue(node *html.Node, name string) string {
	for _, attr := range node.Attr {
		if attr.Key == name {
			return attr.Val
		}
	}
	return ""
}

func anchorText(node *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return sb.String()
}
