package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxPostingBytes caps how much of a posting page is read
const maxPostingBytes = 5 * 1024 * 1024

// Posting is the readable content of a job posting page
type Posting struct {
	Title       string
	Description string
}

// Fetcher downloads job postings
type Fetcher struct {
	client *http.Client
}

// New creates a Fetcher; a nil client gets a 30s timeout default
func New(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{client: client}
}

// Fetch retrieves a posting URL and extracts its title and text
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Posting, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		// "www.example.com/job" parses as a bare path
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return nil, fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "tailor/1.0 (job-posting)")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPostingBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	posting, err := Parse(string(body))
	if err != nil {
		return nil, err
	}
	return posting, nil
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// Parse extracts a posting from an HTML document
func Parse(htmlContent string) (*Posting, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &Posting{
		Title:       firstText(doc, "h1"),
		Description: extractText(doc),
	}
	if p.Title == "" {
		p.Title = firstText(doc, "title")
	}
	if p.Description == "" {
		return nil, fmt.Errorf("no text content found")
	}
	return p, nil
}

// firstText returns the collapsed text of the first element named tag
func firstText(n *html.Node, tag string) string {
	if n.Type == html.ElementNode && n.Data == tag {
		var sb strings.Builder
		collect(n, &sb)
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if s := firstText(c, tag); s != "" {
			return s
		}
	}
	return ""
}

func collect(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, sb)
	}
}

// Tags that never hold posting content
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "title": true,
	"form": true, "button": true,
}

// extractText returns readable body text, one line per block element
func extractText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "br", "section":
				sb.WriteString("\n")
			}
		}
	}

	walk(doc)

	// Descriptions keep their line structure
	var lines []string
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
