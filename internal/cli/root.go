// Package cli is the quill command line and the composition root that wires
// configuration into caches, clients and servers.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adeilh/quill/internal/config"
	"github.com/adeilh/quill/internal/logger"
)

// env is shared by every command once the config has been loaded.
type env struct {
	configPath string
	cfg        config.Config
	log        *zap.Logger
}

func NewRootCommand() *cobra.Command {
	e := &env{log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "quill",
		Short: "Personal blog frontend, REST backend and tooling",
		Long: `quill serves a personal blog: a server-rendered frontend backed by a
cached REST client, the REST backend itself, and commands to inspect posts
and import legacy exports.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = e.log.Sync()
		},
	}
	root.PersistentFlags().StringVar(&e.configPath, "config", "", "config file (YAML); QUILL_* environment variables override it")

	root.AddCommand(
		newServeCommand(e),
		newAPICommand(e),
		newPostsCommand(e),
		newMigrateCommand(e),
	)
	return root
}

func (e *env) load() error {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	e.cfg = cfg
	e.log = log
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveUntilDone treats a cancelled context as a clean shutdown.
func serveUntilDone(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
