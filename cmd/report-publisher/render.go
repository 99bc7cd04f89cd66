package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/annotate"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
)

// renderFlags holds the flags for the render command
type renderFlags struct {
	input     string
	reportURL string
	reportDir string
	summary   run.Summary
	alert     bool
}

func newRenderCmd(a *app) *cobra.Command {
	var opts renderFlags

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Preview the annotated document without touching the platform",
		Long: `Print the document that publish would write: the input document with the
managed report section inserted or replaced. Nothing is uploaded and no
platform API is called.`,
		Example: `  report-publisher render --report-url https://reports.example.com/42/index.html --total 10 --failed 1
  gh pr view 7 --json body -q .body | report-publisher render -i - --report-url https://x/1 --report-dir allure-report`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.render(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "Existing document to update, - for stdin (default: empty document)")
	cmd.Flags().StringVar(&opts.reportURL, "report-url", "", "Public URL of the report (required)")
	cmd.Flags().StringVarP(&opts.reportDir, "report-dir", "d", "", "Read the test summary from this report directory")
	cmd.Flags().IntVar(&opts.summary.Total, "total", 0, "Total tests")
	cmd.Flags().IntVar(&opts.summary.Passed, "passed", 0, "Passed tests")
	cmd.Flags().IntVar(&opts.summary.Failed, "failed", 0, "Failed tests")
	cmd.Flags().IntVar(&opts.summary.Broken, "broken", 0, "Broken tests")
	cmd.Flags().IntVar(&opts.summary.Skipped, "skipped", 0, "Skipped tests")
	cmd.Flags().BoolVar(&opts.alert, "alert", false, "Also print the alert comment when the run has failures")
	_ = cmd.MarkFlagRequired("report-url")
	return cmd
}

func (a *app) render(cmd *cobra.Command, opts renderFlags) error {
	ctx := cmd.Context()

	existing, err := readInput(cmd, opts.input)
	if err != nil {
		return err
	}

	summary := opts.summary
	if opts.reportDir != "" {
		if summary, err = run.LoadSummary(opts.reportDir); err != nil {
			return errors.ValidationError("failed to read test summary", err)
		}
	}

	rc, err := platform.DetectWith(ctx, a.env)
	if err != nil {
		return err
	}
	record, err := run.NewRecord(rc, opts.reportURL, summary, clockwork.NewRealClock().Now())
	if err != nil {
		return err
	}

	engine := annotate.NewEngine(record, annotate.Options{
		Title:        a.cfg.Annotation.Title,
		HistoryLimit: a.cfg.Annotation.HistoryLimit,
	})
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, engine.UpsertDocument(ctx, existing))

	if opts.alert && summary.HasFailures() {
		fmt.Fprintln(out)
		fmt.Fprintln(out, engine.Renderer().AlertBody(record))
	}
	return nil
}

func readInput(cmd *cobra.Command, input string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch input {
	case "":
		return "", nil
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return "", errors.ValidationError("failed to read input document", err).WithContext("input", input)
	}
	return string(data), nil
}
