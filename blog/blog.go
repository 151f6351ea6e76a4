// Package blog holds the domain model shared by the API client, the web
// frontend and the REST backend.
package blog

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("blog: not found")
	ErrSlugTaken    = errors.New("blog: slug already in use")
	ErrInvalidPost  = errors.New("blog: invalid post")
	ErrInvalidInput = errors.New("blog: invalid input")
)

// Author is the identity attached to posts and comments.
type Author struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	IsAdmin bool   `json:"isAdmin"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	PostID    string    `json:"postId"`
	Author    Author    `json:"author"`
}

// Post is a blog entry. ReadTime is in minutes and may be zero when the
// backend does not compute it.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	ReadTime  int       `json:"readTime,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    Author    `json:"author"`
	Tags      []Tag     `json:"tags"`
	Comments  []Comment `json:"comments,omitempty"`
}

// Minutes returns the stored read time, or an estimate from the content.
func (p Post) Minutes() int {
	if p.ReadTime > 0 {
		return p.ReadTime
	}
	return EstimateReadTime(p.Content)
}

// TagNames returns the post's tag names in order.
func (p Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Form converts the post back into an editable form.
func (p Post) Form() PostForm {
	return PostForm{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Excerpt:   p.Excerpt,
		Slug:      p.Slug,
		Published: p.Published,
		Tags:      p.TagNames(),
	}
}
