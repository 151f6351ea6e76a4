package blog

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// PostForm is the payload for creating or updating a post.
type PostForm struct {
	ID        string   `json:"id,omitempty"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	Slug      string   `json:"slug"`
	Published bool     `json:"published"`
	Tags      []string `json:"tags"`
}

// Normalize trims text fields and removes empty or duplicate tags.
func (f PostForm) Normalize() PostForm {
	f.Title = strings.TrimSpace(f.Title)
	f.Excerpt = strings.TrimSpace(f.Excerpt)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Tags = NormalizeTags(f.Tags)
	return f
}

// Validate reports the first problem with the form, wrapping ErrInvalidPost.
func (f PostForm) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidPost)
	case strings.TrimSpace(f.Slug) == "":
		return fmt.Errorf("%w: slug is required", ErrInvalidPost)
	case !slugPattern.MatchString(strings.TrimSpace(f.Slug)):
		return fmt.Errorf("%w: slug may only contain lowercase letters, numbers and hyphens", ErrInvalidPost)
	case strings.TrimSpace(f.Content) == "":
		return fmt.Errorf("%w: content is required", ErrInvalidPost)
	}
	return nil
}

// NormalizeTags trims names and drops blanks and repeats, keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag field as typed in the editor.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// Slugify derives a slug from a title.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CommentForm is the payload for adding a comment.
type CommentForm struct {
	Content string `json:"content"`
}

func (f CommentForm) Validate() error {
	if strings.TrimSpace(f.Content) == "" {
		return fmt.Errorf("%w: comment content is required", ErrInvalidInput)
	}
	return nil
}
