package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adeilh/quill/blog"
	"github.com/adeilh/quill/blog/client"
	"github.com/adeilh/quill/cache/memory"
)

func newPostsCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Inspect posts through the blog API",
	}
	cmd.AddCommand(newPostsListCommand(e), newPostsShowCommand(e))
	return cmd
}

// cliClient talks to the API without a shared cache.
func cliClient(e *env) *client.Client {
	return newBlogClient(e.cfg, memory.NewStore(), e.log)
}

func newPostsListCommand(e *env) *cobra.Command {
	var all bool
	var tag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := cliClient(e).ListPosts(cmd.Context())
			if err := res.Error(); err != nil {
				return err
			}
			posts := blog.NewestFirst(res.OrEmpty())
			if !all {
				posts = blog.PublishedOnly(posts)
			}
			if tag != "" {
				posts = blog.WithTag(posts, tag)
			}
			out := cmd.OutOrStdout()
			if len(posts) == 0 {
				fmt.Fprintln(out, metaStyle.Render("No posts found."))
				return nil
			}
			for _, p := range posts {
				printPostLine(out, p)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include drafts")
	cmd.Flags().StringVar(&tag, "tag", "", "only posts with this tag")
	return cmd
}

func newPostsShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <slug>",
		Short: "Print one post with its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts := cliClient(e)
			res := posts.PostBySlug(cmd.Context(), args[0])
			if err := res.Error(); err != nil {
				return err
			}
			post, ok := res.OrEmpty().Get()
			if !ok {
				return fmt.Errorf("post %q: %w", args[0], blog.ErrNotFound)
			}
			comments := blog.NewestCommentsFirst(posts.Comments(cmd.Context(), post.ID).OrEmpty())
			printPost(cmd.OutOrStdout(), post, comments)
			return nil
		},
	}
}
