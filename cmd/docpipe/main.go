// Command docpipe extracts, normalizes and tokenizes documents from the
// command line, and can serve the same pipeline over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lllllllleong/docpipeline/internal/config"
	"github.com/Lllllllleong/docpipeline/internal/logging"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by the subcommands once the root command has
// loaded configuration.
type cli struct {
	envFiles   []string
	configPath string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "docpipe",
		Short:        "Extract, normalize and tokenize PDF, DOCX and text documents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML configuration file (overrides DOCPIPE_CONFIG)")

	root.AddCommand(newProcessCmd(c), newServeCmd(c), newProbeCmd(c))
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if c.configPath != "" {
		if err := os.Setenv("DOCPIPE_CONFIG", c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(c.envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logger
	return nil
}
