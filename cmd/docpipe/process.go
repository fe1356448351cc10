package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Lllllllleong/docpipeline/internal/app"
	"github.com/Lllllllleong/docpipeline/internal/gcp"
	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/normalizer"
	"github.com/Lllllllleong/docpipeline/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type processFlags struct {
	asJSON     bool
	quiet      bool
	variant    string
	noTokenize bool
}

func newProcessCmd(c *cli) *cobra.Command {
	var f processFlags
	cmd := &cobra.Command{
		Use:   "process <file|gs://bucket/object>...",
		Short: "Process documents and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.process(cmd, args, f)
		},
	}
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the full results as JSON")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")
	cmd.Flags().StringVar(&f.variant, "variant", "", "normalization variant: generic, document or form")
	cmd.Flags().BoolVar(&f.noTokenize, "no-tokenize", false, "skip the tokenizer service")
	return cmd
}

func (c *cli) process(cmd *cobra.Command, sources []string, f processFlags) error {
	ctx := cmd.Context()
	cfg := *c.cfg
	if f.variant != "" {
		v, err := normalizer.ParseVariant(f.variant)
		if err != nil {
			return err
		}
		cfg.Normalizer.Variant = v
	}
	if f.noTokenize {
		cfg.Tokenizer.Enabled = false
	}
	a := app.New(ctx, &cfg, c.logger, app.Options{WithStorage: needsStorage(sources)})
	defer a.Close()

	inputs, rejected, err := a.Resolver.Resolve(ctx, sources)
	if err != nil {
		return err
	}

	var progress services.ProgressFunc
	if !f.quiet {
		progress = progressPrinter(cmd.ErrOrStderr())
	}
	res := a.Pipeline.ProcessBatch(ctx, inputs, progress)
	failures := append(append(make([]models.DocumentFailure, 0, len(sources)), rejected...), res.Failures...)

	if f.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(models.ProcessResponse{
			RequestID: uuid.NewString(),
			Documents: res.Documents,
			Failures:  failures,
		}); err != nil {
			return err
		}
	} else {
		printSummary(cmd.OutOrStdout(), res.Documents, failures)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d documents failed", len(failures), len(sources))
	}
	return nil
}

func needsStorage(sources []string) bool {
	for _, s := range sources {
		if gcp.IsURI(s) {
			return true
		}
	}
	return false
}

func progressPrinter(w io.Writer) services.ProgressFunc {
	return func(s models.ProgressStatus) {
		fmt.Fprintf(w, "[%3d%%] %s %s\n", s.Progress, s.DocumentID, s.Message)
	}
}

func printSummary(w io.Writer, docs []*models.ProcessedDocument, failures []models.DocumentFailure) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tID\tWORDS\tPAGES\tTOKENS")
	for _, d := range docs {
		tokens := "-"
		if d.TokenizedData != nil {
			tokens = fmt.Sprint(d.TokenizedData.TokenCount)
		}
		pages := "-"
		if d.PageCount > 0 {
			pages = fmt.Sprint(d.PageCount)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.OriginalName, d.ID, d.WordCount, pages, tokens)
	}
	_ = tw.Flush()

	for _, d := range docs {
		for _, warn := range d.Warnings {
			fmt.Fprintf(w, "warning: %s: %s\n", d.OriginalName, warn)
		}
	}
	for _, f := range failures {
		fmt.Fprintf(w, "failed: %s: %s %s\n", f.FileName, f.Code, strings.TrimSpace(f.Message))
	}
}
