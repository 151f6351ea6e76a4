package api

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/adeilh/quill/blog"
)

// MemoryRepository keeps everything in process memory. Data is lost on
// restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	clock    clock.Clock
	posts    map[string]blog.Post
	comments map[string]blog.Comment
	tags     map[string]blog.Tag // by name
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository(clk clock.Clock) *MemoryRepository {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryRepository{
		clock:    clk,
		posts:    make(map[string]blog.Post),
		comments: make(map[string]blog.Comment),
		tags:     make(map[string]blog.Tag),
	}
}

func (r *MemoryRepository) ListPosts(ctx context.Context) ([]blog.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]blog.Post, 0, len(r.posts))
	for _, p := range r.posts {
		out = append(out, r.hydrate(p))
	}
	return blog.NewestFirst(out), nil
}

func (r *MemoryRepository) PostByID(ctx context.Context, id string) (blog.Post, error) {
	if err := ctx.Err(); err != nil {
		return blog.Post{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.posts[id]
	if !ok {
		return blog.Post{}, fmt.Errorf("post %s: %w", id, blog.ErrNotFound)
	}
	return r.hydrate(p), nil
}

func (r *MemoryRepository) PostBySlug(ctx context.Context, slug string) (blog.Post, error) {
	if err := ctx.Err(); err != nil {
		return blog.Post{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.Slug == slug {
			return r.hydrate(p), nil
		}
	}
	return blog.Post{}, fmt.Errorf("post slug %s: %w", slug, blog.ErrNotFound)
}

func (r *MemoryRepository) CreatePost(ctx context.Context, form blog.PostForm, author blog.Author) (blog.Post, error) {
	if err := ctx.Err(); err != nil {
		return blog.Post{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := form.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := r.posts[id]; exists {
		return blog.Post{}, fmt.Errorf("post %s: %w", id, blog.ErrSlugTaken)
	}
	if r.slugInUse(form.Slug, "") {
		return blog.Post{}, fmt.Errorf("slug %s: %w", form.Slug, blog.ErrSlugTaken)
	}
	now := r.clock.Now().UTC()
	p := blog.Post{
		ID:        id,
		Title:     form.Title,
		Content:   form.Content,
		Excerpt:   form.Excerpt,
		Slug:      form.Slug,
		Published: form.Published,
		CreatedAt: now,
		UpdatedAt: now,
		Author:    author,
		Tags:      r.ensureTags(form.Tags),
	}
	r.posts[id] = p
	return r.hydrate(p), nil
}

func (r *MemoryRepository) UpdatePost(ctx context.Context, id string, form blog.PostForm) (blog.Post, error) {
	if err := ctx.Err(); err != nil {
		return blog.Post{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return blog.Post{}, fmt.Errorf("post %s: %w", id, blog.ErrNotFound)
	}
	if r.slugInUse(form.Slug, id) {
		return blog.Post{}, fmt.Errorf("slug %s: %w", form.Slug, blog.ErrSlugTaken)
	}
	p.Title = form.Title
	p.Content = form.Content
	p.Excerpt = form.Excerpt
	p.Slug = form.Slug
	p.Published = form.Published
	p.Tags = r.ensureTags(form.Tags)
	p.UpdatedAt = r.clock.Now().UTC()
	r.posts[id] = p
	return r.hydrate(p), nil
}

func (r *MemoryRepository) DeletePost(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	for cid, c := range r.comments {
		if c.PostID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

func (r *MemoryRepository) Comments(ctx context.Context, postID string) ([]blog.Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commentsFor(postID), nil
}

func (r *MemoryRepository) AddComment(ctx context.Context, postID string, form blog.CommentForm, author blog.Author) (blog.Comment, error) {
	if err := ctx.Err(); err != nil {
		return blog.Comment{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[postID]; !ok {
		return blog.Comment{}, fmt.Errorf("post %s: %w", postID, blog.ErrNotFound)
	}
	c := blog.Comment{
		ID:        uuid.NewString(),
		Content:   form.Content,
		CreatedAt: r.clock.Now().UTC(),
		PostID:    postID,
		Author:    author,
	}
	r.comments[c.ID] = c
	return c, nil
}

func (r *MemoryRepository) DeleteComment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

func (r *MemoryRepository) Tags(ctx context.Context) ([]blog.Tag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]blog.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b blog.Tag) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *MemoryRepository) slugInUse(slug, exceptID string) bool {
	for id, p := range r.posts {
		if p.Slug == slug && id != exceptID {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) ensureTags(names []string) []blog.Tag {
	out := make([]blog.Tag, 0, len(names))
	for _, name := range blog.NormalizeTags(names) {
		t, ok := r.tags[name]
		if !ok {
			t = blog.Tag{ID: uuid.NewString(), Name: name}
			r.tags[name] = t
		}
		out = append(out, t)
	}
	return out
}

func (r *MemoryRepository) hydrate(p blog.Post) blog.Post {
	p.Tags = slices.Clone(p.Tags)
	p.Comments = r.commentsFor(p.ID)
	return p
}

func (r *MemoryRepository) commentsFor(postID string) []blog.Comment {
	out := make([]blog.Comment, 0)
	for _, c := range r.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return blog.NewestCommentsFirst(out)
}
