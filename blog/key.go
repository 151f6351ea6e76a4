package blog

import "strings"

// Cache key categories, usable as prefixes for whole-category invalidation.
const (
	PostsCategory    = "posts:"
	CommentsCategory = "comments:"
)

type keyKind uint8

const (
	kindAllPosts keyKind = iota + 1
	kindPostByID
	kindPostBySlug
	kindCommentsForPost
)

// Key identifies one cached API response. The zero Key is invalid.
type Key struct {
	kind keyKind
	arg  string
}

func AllPosts() Key { return Key{kind: kindAllPosts} }
func PostByID(id string) Key { return Key{kind: kindPostByID, arg: id} }
func PostBySlug(slug string) Key { return Key{kind: kindPostBySlug, arg: slug} }
func CommentsForPost(postID string) Key { return Key{kind: kindCommentsForPost, arg: postID} }

// String renders the key in its <category>:<qualifier>:<id> form.
func (k Key) String() string {
	switch k.kind {
	case kindAllPosts:
		return PostsCategory + "all"
	case kindPostByID:
		return PostsCategory + "id:" + k.arg
	case kindPostBySlug:
		return PostsCategory + "slug:" + k.arg
	case kindCommentsForPost:
		return CommentsCategory + "post:" + k.arg
	default:
		return ""
	}
}

// Category returns the prefix shared by every key of the same resource.
func (k Key) Category() string {
	switch k.kind {
	case kindAllPosts, kindPostByID, kindPostBySlug:
		return PostsCategory
	case kindCommentsForPost:
		return CommentsCategory
	default:
		return ""
	}
}

func (k Key) IsZero() bool { return k.kind == 0 }

// ParseKey reverses String.
func ParseKey(s string) (Key, bool) {
	switch {
	case s == PostsCategory+"all":
		return AllPosts(), true
	case strings.HasPrefix(s, PostsCategory+"id:"):
		return PostByID(strings.TrimPrefix(s, PostsCategory+"id:")), true
	case strings.HasPrefix(s, PostsCategory+"slug:"):
		return PostBySlug(strings.TrimPrefix(s, PostsCategory+"slug:")), true
	case strings.HasPrefix(s, CommentsCategory+"post:"):
		return CommentsForPost(strings.TrimPrefix(s, CommentsCategory+"post:")), true
	}
	return Key{}, false
}

// Keys made stale by each mutation. Entries that cannot be identified from
// the mutation's arguments are left to expire: updating a post does not know
// its old slug, and deleting a comment does not know its post.

func StaleAfterCreatePost() []Key { return []Key{AllPosts()} }

func StaleAfterUpdatePost(id string) []Key {
	return []Key{AllPosts(), PostByID(id)}
}

func StaleAfterDeletePost(id string) []Key {
	return []Key{AllPosts(), PostByID(id), CommentsForPost(id)}
}

func StaleAfterAddComment(postID string) []Key {
	return []Key{CommentsForPost(postID)}
}

func StaleAfterDeleteComment(string) []Key { return nil }
