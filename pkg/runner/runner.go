// Package runner provides the publish pipeline: upload the report, build
// the run record and annotate the pull/merge request.
package runner

import (
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/chainguard-dev/clog"
	"github.com/jonboulle/clockwork"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/annotate"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
)

// Uploader publishes a report directory and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, dir, key string) (string, error)
}

// Options contains options for one publication.
type Options struct {
	// ReportDir is the generated report directory.
	ReportDir string
	// ReportURL skips the upload when set.
	ReportURL string
	// Summary overrides the counts read from ReportDir.
	Summary *run.Summary

	Title        string
	HistoryLimit int
	Mode         annotate.Mode
	Alerts       annotate.AlertPolicy
}

// Result contains the outcome of a publication.
type Result struct {
	Record run.Record
	// Annotated is false when the run is not tied to a request.
	Annotated  bool
	Annotation annotate.Result
}

// Runner orchestrates one publication. Uploader and Provider may be nil:
// without an uploader Options.ReportURL is required, without a provider
// annotation is skipped.
type Runner struct {
	uploader Uploader
	provider platform.Provider
	clock    clockwork.Clock
}

// New creates a Runner.
func New(uploader Uploader, provider platform.Provider, clock clockwork.Clock) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{uploader: uploader, provider: provider, clock: clock}
}

// Run publishes the report for rc. Upload failures are UPLOAD errors and
// stop the run before any annotation; annotation failures are ANNOTATE
// errors.
func (r *Runner) Run(ctx context.Context, rc run.Context, opts Options) (*Result, error) {
	ctx = clog.WithLogger(ctx, clog.FromContext(ctx).With("executor", string(rc.ExecutorType)))
	now := r.clock.Now()

	reportURL := opts.ReportURL
	if reportURL == "" {
		if r.uploader == nil {
			return nil, errors.ConfigError("no report url given and no storage configured", nil)
		}
		var err error
		reportURL, err = r.uploader.Upload(ctx, opts.ReportDir, UploadKey(rc, now.UTC().Format("20060102-150405")))
		if err != nil {
			if errors.IsType(err, errors.ErrUpload) {
				return nil, err
			}
			return nil, errors.UploadError("failed to upload report", err)
		}
	}

	summary, err := r.summary(opts)
	if err != nil {
		return nil, err
	}

	record, err := run.NewRecord(rc, reportURL, summary, now)
	if err != nil {
		return nil, err
	}
	res := &Result{Record: record}

	if !rc.InRequest() {
		clog.InfoContext(ctx, "not running for a pull/merge request, skipping annotation", "report", reportURL)
		return res, nil
	}
	if r.provider == nil {
		clog.InfoContext(ctx, "no hosting platform configured, skipping annotation", "report", reportURL)
		return res, nil
	}
	target, err := platform.TargetOf(rc)
	if err != nil {
		return res, err
	}

	mode := opts.Mode
	if mode == "" {
		mode = annotate.ModeDescription
	}
	engine := annotate.NewEngine(record, annotate.Options{
		Title:        opts.Title,
		HistoryLimit: opts.HistoryLimit,
	})
	res.Annotation, err = annotate.NewAnnotator(r.provider, mode, opts.Alerts).Annotate(ctx, engine, target)
	if err != nil {
		return res, err
	}
	res.Annotated = true
	return res, nil
}

func (r *Runner) summary(opts Options) (run.Summary, error) {
	if opts.Summary != nil {
		return *opts.Summary, nil
	}
	if opts.ReportDir == "" {
		return run.Summary{}, errors.ConfigError("no report directory to read the test summary from", nil)
	}
	s, err := run.LoadSummary(opts.ReportDir)
	if err != nil {
		return run.Summary{}, errors.ValidationError("failed to read test summary", err).
			WithContext("dir", opts.ReportDir)
	}
	return s, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// UploadKey is the storage key of a run's report:
// <project>/<request or "builds">/<build order or fallback>[-<build name>].
func UploadKey(rc run.Context, fallback string) string {
	project := "report"
	if rc.Project != "" {
		parts := strings.Split(rc.Project, "/")
		for i, p := range parts {
			parts[i] = clean(p)
		}
		project = path.Join(parts...)
	}

	scope := "builds"
	if rc.RequestNumber > 0 {
		scope = "requests/" + strconv.Itoa(rc.RequestNumber)
	}

	build := fallback
	if rc.BuildOrder != "" {
		build = rc.BuildOrder
	}
	if rc.BuildName != "" {
		build += "-" + rc.BuildName
	}
	return path.Join(project, scope, clean(build))
}

func clean(s string) string {
	s = unsafeKeyChars.ReplaceAllString(s, "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}
