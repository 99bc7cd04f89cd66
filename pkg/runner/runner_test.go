package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"gocloud.dev/blob/memblob"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/annotate"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/upload"
)

var (
	now    = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
	target = platform.Target{Project: "group/project", Number: 12}
	rc     = run.Context{
		ExecutorName:  "GitLab CI",
		ExecutorType:  run.ExecutorGitLab,
		Project:       "group/project",
		RequestNumber: 12,
		BuildURL:      "https://gitlab.example.com/group/project/-/pipelines/77",
		BuildOrder:    "77",
		BuildName:     "e2e",
	}
)

type uploaderFunc func(ctx context.Context, dir, key string) (string, error)

func (f uploaderFunc) Upload(ctx context.Context, dir, key string) (string, error) {
	return f(ctx, dir, key)
}

func writeAllureReport(t *testing.T, failed int) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "widgets"), 0o755); err != nil {
		t.Fatal(err)
	}
	summary := fmt.Sprintf(`{"statistic": {"total": 10, "passed": %d, "failed": %d, "broken": 0, "skipped": 0, "unknown": 0}}`, 10-failed, failed)
	if err := os.WriteFile(filepath.Join(dir, "widgets", "summary.json"), []byte(summary), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun_UploadAndAnnotate(t *testing.T) {
	ctx := context.Background()
	mem := platform.NewMemory()
	mem.SetDescription(target, "Fixes the login page.\n")
	u := upload.New(memblob.OpenBucket(nil), "https://reports.example.com", "")
	defer u.Close()

	r := New(u, mem, clockwork.NewFakeClockAt(now))
	res, err := r.Run(ctx, rc, Options{
		ReportDir: writeAllureReport(t, 2),
		Mode:      annotate.ModeDescription,
		Alerts:    annotate.DefaultAlertPolicy,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantURL := "https://reports.example.com/group/project/requests/12/77-e2e/index.html"
	if res.Record.ReportURL != wantURL {
		t.Errorf("ReportURL = %s, want %s", res.Record.ReportURL, wantURL)
	}
	if !res.Record.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", res.Record.CreatedAt, now)
	}
	if res.Record.Summary.Failed != 2 {
		t.Errorf("Summary.Failed = %d, want 2", res.Record.Summary.Failed)
	}
	if !res.Annotated || !res.Annotation.Updated || res.Annotation.Alert != annotate.AlertCreate {
		t.Errorf("Run() = %+v, want updated description and created alert", res)
	}

	desc := mem.Description(target)
	if !strings.HasPrefix(desc, "Fixes the login page.\n"+section.StartMarker(1)) {
		t.Errorf("description = %q", desc)
	}
	if !strings.Contains(desc, wantURL) {
		t.Errorf("description does not link the report: %q", desc)
	}
}

func TestRun_ExplicitURL(t *testing.T) {
	mem := platform.NewMemory()
	r := New(nil, mem, clockwork.NewFakeClockAt(now))

	res, err := r.Run(context.Background(), rc, Options{
		ReportURL: "https://ci.example.com/artifacts/77/index.html",
		Summary:   &run.Summary{Total: 3, Passed: 3},
		Mode:      annotate.ModeComment,
		Alerts:    annotate.DefaultAlertPolicy,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Annotation.CommentID == 0 {
		t.Errorf("Run() = %+v, want a report comment", res)
	}
	if got := len(mem.Comments(target)); got != 1 {
		t.Errorf("len(Comments()) = %d, want 1", got)
	}
}

func TestRun_UploadFailureStopsBeforeAnnotation(t *testing.T) {
	mem := platform.NewMemory()
	failing := uploaderFunc(func(context.Context, string, string) (string, error) {
		return "", fmt.Errorf("bucket unavailable")
	})
	r := New(failing, mem, clockwork.NewFakeClockAt(now))

	_, err := r.Run(context.Background(), rc, Options{
		ReportDir: writeAllureReport(t, 0),
		Mode:      annotate.ModeDescription,
	})
	if !errors.IsType(err, errors.ErrUpload) {
		t.Fatalf("Run() error = %v, want upload error", err)
	}
	if errors.ExitCode(err) != errors.ExitUpload {
		t.Errorf("ExitCode() = %d, want %d", errors.ExitCode(err), errors.ExitUpload)
	}
	if len(mem.Calls()) != 0 {
		t.Errorf("Calls() = %v, want no annotation after a failed upload", mem.Calls())
	}
}

func TestRun_AnnotationFailure(t *testing.T) {
	mem := platform.NewMemory()
	mem.FailOn("WriteDescription", errors.KindRateLimited)
	r := New(nil, mem, clockwork.NewFakeClockAt(now))

	res, err := r.Run(context.Background(), rc, Options{
		ReportURL: "https://ci.example.com/77/index.html",
		Summary:   &run.Summary{Total: 1, Passed: 1},
		Mode:      annotate.ModeDescription,
	})
	if !errors.IsType(err, errors.ErrAnnotate) {
		t.Fatalf("Run() error = %v, want annotate error", err)
	}
	if errors.ExitCode(err) != errors.ExitAnnotate {
		t.Errorf("ExitCode() = %d, want %d", errors.ExitCode(err), errors.ExitAnnotate)
	}
	if res == nil || res.Record.ReportURL == "" {
		t.Errorf("Run() result = %+v, want the record of the published report", res)
	}
}

func TestRun_SkipsAnnotationOutsideRequests(t *testing.T) {
	mem := platform.NewMemory()
	r := New(nil, mem, clockwork.NewFakeClockAt(now))
	branch := rc
	branch.RequestNumber = 0

	res, err := r.Run(context.Background(), branch, Options{
		ReportURL: "https://ci.example.com/77/index.html",
		Summary:   &run.Summary{},
		Mode:      annotate.ModeDescription,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Annotated || len(mem.Calls()) != 0 {
		t.Errorf("Run() annotated a branch build: %+v, calls %v", res, mem.Calls())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantType errors.ErrorType
	}{
		{"no url and no storage", Options{Summary: &run.Summary{}}, errors.ErrConfig},
		{"no summary source", Options{ReportURL: "https://x/1"}, errors.ErrConfig},
		{"unreadable summary", Options{ReportURL: "https://x/1", ReportDir: "/nonexistent"}, errors.ErrValidation},
		{"relative url", Options{ReportURL: "reports/1", Summary: &run.Summary{}}, errors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil, platform.NewMemory(), clockwork.NewFakeClockAt(now))
			if _, err := r.Run(context.Background(), rc, tt.opts); !errors.IsType(err, tt.wantType) {
				t.Errorf("Run() error = %v, want type %v", err, tt.wantType)
			}
		})
	}
}

func TestUploadKey(t *testing.T) {
	tests := []struct {
		name string
		rc   run.Context
		want string
	}{
		{"request build", rc, "group/project/requests/12/77-e2e"},
		{"branch build", run.Context{Project: "owner/repo", BuildOrder: "5"}, "owner/repo/builds/5"},
		{"no metadata", run.Context{}, "report/builds/20261015-080000"},
		{"unsafe characters", run.Context{Project: "a/../b c", BuildName: "unit tests"}, "a/_/b_c/builds/20261015-080000-unit_tests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UploadKey(tt.rc, "20261015-080000"); got != tt.want {
				t.Errorf("UploadKey() = %s, want %s", got, tt.want)
			}
		})
	}
}
