package parser

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"enhanced-search/internal/models"
)

const maxPageBytes = 20 << 20

// VisibleText returns the rendered text of an HTML document. Block elements
// become paragraphs separated by blank lines; script, style and other
// non-rendered content is dropped.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var paras []string
	var current strings.Builder
	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			paras = append(paras, t)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(collapseSpace(n.Data))
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template", "head", "svg":
				return
			case "br":
				current.WriteString("\n")
				return
			}
		}
		block := n.Type == html.ElementNode && isBlock(n.Data)
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(paras, "\n\n"), nil
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6",
		"tr", "table", "section", "article", "aside", "header", "footer", "nav",
		"blockquote", "pre", "figure", "figcaption", "dd", "dt", "main", "form", "body":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s == "" {
			return ""
		}
		return " "
	}
	out := strings.Join(fields, " ")
	if s[0] == ' ' || s[0] == '\n' || s[0] == '\t' {
		out = " " + out
	}
	if last := s[len(s)-1]; last == ' ' || last == '\n' || last == '\t' {
		out += " "
	}
	return out
}

// URLSource fetches a web page and extracts its visible text
type URLSource struct {
	URL    string
	Client *http.Client
}

func NewURLSource(url string, timeout time.Duration) URLSource {
	return URLSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

func (s URLSource) Text(ctx context.Context) (string, error) {
	text, err := s.fetch(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrFetch, s.URL, err)
	}
	return text, nil
}

func (s URLSource) fetch(ctx context.Context) (string, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, text/markdown;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("request failed: %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxPageBytes)
	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case "text/plain":
		data, err := io.ReadAll(body)
		return string(data), err
	case "text/markdown":
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return MarkdownText(data)
	default:
		return VisibleText(body)
	}
}
