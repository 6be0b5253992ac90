package transform

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

// Service cleans event descriptions, which arrive as HTML fragments
type Service struct {
	logger arbor.ILogger
	format string
	domain string
}

// NewService creates a transform service producing the given format ("text" or "markdown").
// baseURL's host is used for resolving relative links in markdown output.
func NewService(logger arbor.ILogger, format string, baseURL string) *Service {
	if format != FormatMarkdown {
		format = FormatText
	}
	domain := baseURL
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		domain = u.Host
	}
	return &Service{
		logger: logger,
		format: format,
		domain: domain,
	}
}

// CleanDescription converts an HTML description to the configured output format.
// Plain text input passes through trimmed.
func (s *Service) CleanDescription(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}
	if !strings.Contains(html, "<") {
		return normalizeWhitespace(html)
	}

	if s.format == FormatMarkdown {
		converted, err := s.HTMLToMarkdown(html)
		if err == nil && converted != "" {
			return converted
		}
	}
	return HTMLToText(html)
}

// HTMLToMarkdown converts HTML content to markdown
func (s *Service) HTMLToMarkdown(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	mdConverter := md.NewConverter(s.domain, true, nil)
	converted, err := mdConverter.ConvertString(html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("HTML to markdown conversion failed, using fallback")
		return stripHTMLTags(html), nil
	}

	// Check for empty output
	trimmedMarkdown := strings.TrimSpace(converted)
	if trimmedMarkdown == "" {
		s.logger.Debug().
			Int("html_length", len(html)).
			Msg("HTML to markdown conversion produced empty output, applying fallback")
		return stripHTMLTags(html), nil
	}

	return trimmedMarkdown, nil
}

// HTMLToText extracts the text of an HTML fragment, one line per block element
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stripHTMLTags(html)
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(i int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	return normalizeWhitespace(doc.Text())
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRe.ReplaceAllString(line, " "))
	}
	joined := strings.Join(lines, "\n")
	joined = blankLineRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// stripHTMLTags removes basic HTML tags for fallback cases
func stripHTMLTags(htmlStr string) string {
	stripped := tagRe.ReplaceAllString(htmlStr, " ")

	cleaned := strings.ReplaceAll(stripped, "&amp;", "&")
	cleaned = strings.ReplaceAll(cleaned, "&lt;", "<")
	cleaned = strings.ReplaceAll(cleaned, "&gt;", ">")
	cleaned = strings.ReplaceAll(cleaned, "&quot;", "\"")
	cleaned = strings.ReplaceAll(cleaned, "&#39;", "'")
	cleaned = strings.ReplaceAll(cleaned, "&nbsp;", " ")

	return normalizeWhitespace(strings.Join(strings.Fields(cleaned), " "))
}
