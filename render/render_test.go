package render

import (
	"strings"
	"testing"
)

func TestHTMLRendersGFM(t *testing.T) {
	m := New()
	out, err := m.HTML("# Title\n\nSome **bold** text.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n\n- [x] done\n\n~~old~~\n")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	got := string(out)
	for _, want := range []string{`<h1 id="title">Title</h1>`, "<strong>bold</strong>", "<table>", "<del>old</del>"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in output:\n%s", want, got)
		}
	}
}

func TestHTMLSanitizes(t *testing.T) {
	m := New()
	out, err := m.HTML("hello <script>alert(1)</script> <a href=\"javascript:alert(1)\">x</a> <b onclick=\"evil()\">b</b>")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	got := string(out)
	for _, banned := range []string{"<script", "javascript:", "onclick"} {
		if strings.Contains(got, banned) {
			t.Fatalf("unsanitized %q in output: %s", banned, got)
		}
	}
	if !strings.Contains(got, "<b>b</b>") {
		t.Fatalf("expected harmless markup to survive: %s", got)
	}
}

func TestHTMLKeepsCodeLanguageClass(t *testing.T) {
	out, err := New().HTML("```go\nfmt.Println(1)\n```\n")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	if !strings.Contains(string(out), `class="language-go"`) {
		t.Fatalf("expected language class: %s", out)
	}
}

func TestHTMLExternalLinks(t *testing.T) {
	out, err := New().HTML("[site](https://example.com)")
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	got := string(out)
	if !strings.Contains(got, "nofollow") || !strings.Contains(got, `target="_blank"`) {
		t.Fatalf("expected nofollow and target on external link: %s", got)
	}
}

func TestPlainAndExcerpt(t *testing.T) {
	m := New()
	src := "## Intro\n\nGo is *fun* &amp; fast.\n\nSecond paragraph here."
	if got := m.Plain(src); got != "Intro Go is fun & fast. Second paragraph here." {
		t.Fatalf("Plain() = %q", got)
	}
	if got := m.Excerpt(src, 200); got != "Intro Go is fun & fast. Second paragraph here." {
		t.Fatalf("Excerpt() without cut = %q", got)
	}
	if got := m.Excerpt(src, 14); got != "Intro Go is…" {
		t.Fatalf("Excerpt() = %q", got)
	}
}
