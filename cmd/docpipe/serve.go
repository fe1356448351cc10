package main

import (
	"errors"
	"fmt"

	"github.com/Lllllllleong/docpipeline/internal/app"
	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == "" {
				port = c.cfg.Server.Port
			}
			a := app.New(cmd.Context(), c.cfg, c.logger, app.Options{})
			defer a.Close()

			c.logger.Info("Starting REST API server.", "port", port, "tokenizerConfigured", a.Tokenizer.Config().Configured())
			return a.Server().Run(":" + port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default from PORT)")
	return cmd
}

func newProbeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check that the tokenizer service is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app.New(cmd.Context(), c.cfg, c.logger, app.Options{})
			defer a.Close()
			cfg := a.Tokenizer.Config()
			if !cfg.Configured() {
				return errors.New("tokenizer service URL is not configured (set TOKENIZER_SERVICE_URL)")
			}
			if !a.Tokenizer.TestConnection(cmd.Context()) {
				return fmt.Errorf("tokenizer service at %s is not reachable", cfg.ServiceURL)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tokenizer service at %s is reachable (model %s)\n", cfg.ServiceURL, cfg.ModelName)
			return nil
		},
	}
}
