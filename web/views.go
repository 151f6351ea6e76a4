package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/httpx"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Templates renders the embedded pages inside the shared layout.
type Templates struct {
	pages map[string]*template.Template
}

var _ httpx.Renderer = (*Templates)(nil)

var funcs = template.FuncMap{
	"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
	"datetime": func(t time.Time) string { return t.Format("Jan 2, 2006 at 3:04 PM") },
}

// ParseTemplates parses every page template against the layout.
func ParseTemplates() (*Templates, error) {
	layout, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(templateFS, layoutFile)
	if err != nil {
		return nil, fmt.Errorf("web: parse layout: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: list templates: %w", err)
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		clone, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		page, err := clone.ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = page
	}
	return &Templates{pages: pages}, nil
}

func (t *Templates) Render(w io.Writer, name string, data any, _ httpx.Context) error {
	page, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("web: unknown template %q", name)
	}
	return page.ExecuteTemplate(w, "layout", data)
}

// base carries what the layout needs on every page.
type base struct {
	Title    string
	User     auth.Profile
	SignedIn bool
	Error    string
}

type card struct {
	Post    blog.Post
	Excerpt string
	Minutes int
}

type homePage struct {
	base
	Posts []card
	Tag   string
}

type commentView struct {
	blog.Comment
	CanDelete bool
}

type postPage struct {
	base
	Post     blog.Post
	Body     template.HTML
	Minutes  int
	Comments []commentView
}

type adminPage struct {
	base
	Posts []blog.Post
}

type editorPage struct {
	base
	Form   blog.PostForm
	Tags   string
	Action string
	IsNew  bool
}

type messagePage struct {
	base
	Heading string
	Message string
}
