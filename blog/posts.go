package blog

import (
	"slices"
	"strings"
)

// WordsPerMinute is the reading speed used for read time estimates.
const WordsPerMinute = 200

// EstimateReadTime returns whole minutes to read content, never less than one.
func EstimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	return max(minutes, 1)
}

// NewestFirst returns a copy of posts sorted by creation time, newest first.
func NewestFirst(posts []Post) []Post {
	out := slices.Clone(posts)
	slices.SortStableFunc(out, func(a, b Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// PublishedOnly filters out drafts.
func PublishedOnly(posts []Post) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Published {
			out = append(out, p)
		}
	}
	return out
}

// WithTag keeps posts carrying the named tag (case-insensitive).
func WithTag(posts []Post, tag string) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		for _, t := range p.Tags {
			if strings.EqualFold(t.Name, tag) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// NewestCommentsFirst sorts a comment thread by creation time, newest first.
func NewestCommentsFirst(comments []Comment) []Comment {
	out := slices.Clone(comments)
	slices.SortStableFunc(out, func(a, b Comment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
