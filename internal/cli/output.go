package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/adeilh/quill/blog"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	draftStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tagStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

const dateLayout = "Jan 2, 2006"

func printPostLine(w io.Writer, p blog.Post) {
	line := titleStyle.Render(p.Title)
	if !p.Published {
		line += " " + draftStyle.Render("[draft]")
	}
	fmt.Fprintln(w, line)
	meta := fmt.Sprintf("  /%s · %s · %d min read", p.Slug, p.CreatedAt.Format(dateLayout), p.Minutes())
	fmt.Fprintln(w, metaStyle.Render(meta))
	if names := p.TagNames(); len(names) > 0 {
		fmt.Fprintln(w, "  "+tagStyle.Render("#"+strings.Join(names, " #")))
	}
}

func printPost(w io.Writer, p blog.Post, comments []blog.Comment) {
	printPostLine(w, p)
	if p.Author.Name != "" {
		fmt.Fprintln(w, metaStyle.Render("  by "+p.Author.Name))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.TrimSpace(p.Content))
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Comments (%d)", len(comments))))
	for _, c := range comments {
		fmt.Fprintf(w, "%s %s\n", titleStyle.Render(c.Author.Name), metaStyle.Render(c.CreatedAt.Format(dateLayout)))
		fmt.Fprintln(w, "  "+c.Content)
	}
}
