package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/annotate"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/runner"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/upload"
)

// publishFlags holds the flags for the publish command
type publishFlags struct {
	reportDir    string
	reportURL    string
	platform     string
	mode         string
	title        string
	historyLimit int
	noAlert      bool
}

func newPublishCmd(a *app) *cobra.Command {
	var opts publishFlags

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the report and annotate the pull/merge request",
		Long: `Upload the generated report directory to the configured bucket (unless
--report-url is given), then update the managed report section and the
failure alert on the pull/merge request of the current pipeline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.publish(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.reportDir, "report-dir", "d", "", "Generated report directory (default from config)")
	cmd.Flags().StringVar(&opts.reportURL, "report-url", "", "Public URL of an already published report; skips the upload")
	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "Hosting platform: auto, github, gitlab or gitee")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Where to keep the report section: description, comment or none")
	cmd.Flags().StringVar(&opts.title, "title", "", "Report section title")
	cmd.Flags().IntVar(&opts.historyLimit, "history-limit", 0, "Number of earlier runs to keep")
	cmd.Flags().BoolVar(&opts.noAlert, "no-alert", false, "Do not manage the failure alert comment")
	return cmd
}

func (a *app) publish(cmd *cobra.Command, opts publishFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg
	if opts.reportDir != "" {
		cfg.Report.Dir = opts.reportDir
	}
	if opts.platform != "" {
		cfg.Platform.Name = opts.platform
	}
	if opts.mode != "" {
		cfg.Annotation.Mode = opts.mode
	}
	if opts.title != "" {
		cfg.Annotation.Title = opts.title
	}
	if opts.historyLimit > 0 {
		cfg.Annotation.HistoryLimit = opts.historyLimit
	}
	if opts.noAlert {
		cfg.Annotation.Alert.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return errors.ConfigError("invalid options", err)
	}

	mode, err := annotate.ParseMode(cfg.Annotation.Mode)
	if err != nil {
		return err
	}

	rc, err := platform.DetectWith(ctx, a.env)
	if err != nil {
		return err
	}
	provider, err := a.provider(ctx, rc)
	if err != nil {
		return err
	}

	var uploader runner.Uploader
	if opts.reportURL == "" && cfg.Storage.Bucket != "" {
		u, err := upload.Open(ctx, cfg.Storage.Bucket, cfg.Storage.BaseURL, cfg.Storage.Prefix)
		if err != nil {
			return err
		}
		defer u.Close()
		uploader = u
	}

	res, err := runner.New(uploader, provider, clockwork.NewRealClock()).Run(ctx, rc, runner.Options{
		ReportDir:    cfg.Report.Dir,
		ReportURL:    opts.reportURL,
		Title:        cfg.Annotation.Title,
		HistoryLimit: cfg.Annotation.HistoryLimit,
		Mode:         mode,
		Alerts: annotate.AlertPolicy{
			Enabled:        cfg.Annotation.Alert.Enabled,
			ClearOnSuccess: cfg.Annotation.Alert.ClearOnSuccess,
		},
	})
	if res != nil {
		printResult(cmd, res)
	}
	return err
}

func printResult(cmd *cobra.Command, res *runner.Result) {
	out := cmd.OutOrStdout()
	s := res.Record.Summary
	fmt.Fprintf(out, "Report: %s\n", res.Record.ReportURL)
	fmt.Fprintf(out, "Tests: %d total, %d passed, %d failed, %d broken, %d skipped\n",
		s.Total, s.Passed, s.Failed, s.Broken, s.Skipped)
	if !res.Annotated {
		fmt.Fprintln(out, "Annotation: skipped")
		return
	}
	state := "unchanged"
	if res.Annotation.Updated {
		state = "updated"
	}
	fmt.Fprintf(out, "Annotation: %s (%s)\n", res.Annotation.Mode, state)
	switch {
	case res.Annotation.AlertCleared:
		fmt.Fprintln(out, "Alert: cleared")
	case res.Annotation.Alert != annotate.AlertNone:
		fmt.Fprintf(out, "Alert: %s\n", res.Annotation.Alert)
	}
}
