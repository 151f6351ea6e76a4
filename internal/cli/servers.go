package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adeilh/quill/blog/client"
	"github.com/adeilh/quill/httpx"
)

func newServeCommand(e *env) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the blog frontend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.Web.Addr = addr
			}
			srv, closeCache, err := newWebServer(e.cfg, e.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeCache(); err != nil {
					e.log.Warn("close cache failed", zap.Error(err))
				}
			}()
			checkAPI(cmd.Context(), client.New(apiTransport(e.cfg.API)), e.log, e.cfg.API.BaseURL)
			return serveUntilDone(srv.Start(cmd.Context()))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides web.addr)")
	return cmd
}

// checkAPI only warns: the frontend renders empty pages while the API is down.
func checkAPI(ctx context.Context, blogAPI *client.Client, log *zap.Logger, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := blogAPI.Health(ctx); err != nil {
		log.Warn("blog API unreachable", zap.String("base_url", baseURL), zap.Error(err))
		return false
	}
	log.Info("blog API reachable", zap.String("base_url", baseURL))
	return true
}

func newAPICommand(e *env) *cobra.Command {
	var addr, storage string
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Serve the blog REST backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			if storage != "" {
				e.cfg.Storage = storage
			}
			srv, closeRepo, err := newAPIServer(cmd.Context(), e.cfg, e.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeRepo(); err != nil {
					e.log.Warn("close storage failed", zap.Error(err))
				}
			}()
			return serveUntilDone(srv.Start(cmd.Context(), httpx.WithShutdownTimeout(10*time.Second)))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&storage, "storage", "", "memory or postgres (overrides storage)")
	return cmd
}
