// Package render turns post markdown into sanitized HTML and plain-text
// excerpts.
package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Markdown renders GitHub flavoured markdown. Raw HTML is allowed through the
// parser and then sanitized, so posts may embed simple markup safely.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	strict *bluemonday.Policy
}

func New() *Markdown {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[a-zA-Z0-9_+-]+$`)).OnElements("code")
	policy.AllowAttrs("id").Matching(regexp.MustCompile(`^[a-z0-9-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	policy.AllowAttrs("type").Matching(regexp.MustCompile(`^checkbox$`)).OnElements("input")
	policy.AllowAttrs("checked", "disabled").OnElements("input")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)

	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
		policy: policy,
		strict: bluemonday.StrictPolicy(),
	}
}

// HTML converts markdown into sanitized HTML ready for a template.
func (m *Markdown) HTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render: convert markdown: %w", err)
	}
	return template.HTML(m.policy.SanitizeBytes(buf.Bytes())), nil
}

var spaces = regexp.MustCompile(`\s+`)

// Plain strips markdown and markup down to collapsed text.
func (m *Markdown) Plain(src string) string {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(src), &buf); err != nil {
		buf.Reset()
		buf.WriteString(src)
	}
	// Keep words from adjacent block elements apart once tags are removed.
	spaced := strings.ReplaceAll(buf.String(), "<", " <")
	text := html.UnescapeString(m.strict.Sanitize(spaced))
	return strings.TrimSpace(spaces.ReplaceAllString(text, " "))
}

// Excerpt returns at most limit runes of plain text, cut at a word boundary
// and suffixed with an ellipsis when shortened.
func (m *Markdown) Excerpt(src string, limit int) string {
	text := m.Plain(src)
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	cut := string([]rune(text)[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
