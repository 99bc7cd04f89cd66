// Package run holds the value types describing one report publication:
// the CI run context, the test summary and the resulting run record.
package run

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

// ExecutorType identifies the CI system that produced a report.
type ExecutorType string

const (
	ExecutorGitHub  ExecutorType = "github"
	ExecutorGitLab  ExecutorType = "gitlab"
	ExecutorGitee   ExecutorType = "gitee"
	ExecutorJenkins ExecutorType = "jenkins"
	ExecutorUnknown ExecutorType = "unknown"
)

// ParseExecutorType converts a name to an ExecutorType, falling back to
// ExecutorUnknown.
func ParseExecutorType(name string) ExecutorType {
	switch ExecutorType(strings.ToLower(strings.TrimSpace(name))) {
	case ExecutorGitHub:
		return ExecutorGitHub
	case ExecutorGitLab:
		return ExecutorGitLab
	case ExecutorGitee:
		return ExecutorGitee
	case ExecutorJenkins:
		return ExecutorJenkins
	default:
		return ExecutorUnknown
	}
}

// Summary holds the test counts of a run.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Broken  int `json:"broken"`
	Skipped int `json:"skipped"`
}

// HasFailures reports whether any test failed or broke.
func (s Summary) HasFailures() bool {
	return s.Failed+s.Broken > 0
}

// Validate rejects negative counts.
func (s Summary) Validate() error {
	for name, v := range map[string]int{
		"total":   s.Total,
		"passed":  s.Passed,
		"failed":  s.Failed,
		"broken":  s.Broken,
		"skipped": s.Skipped,
	} {
		if v < 0 {
			return fmt.Errorf("%s count must not be negative, got %d", name, v)
		}
	}
	return nil
}

// Record describes one report publication event. It is a value type:
// construct it once with NewRecord and pass it by value.
type Record struct {
	ReportURL    string
	ExecutorName string
	ExecutorType ExecutorType
	BuildURL     string
	BuildOrder   string
	BuildName    string
	CreatedAt    time.Time
	Summary      Summary
}

// NewRecord builds a Record for the run described by rc.
func NewRecord(rc Context, reportURL string, summary Summary, createdAt time.Time) (Record, error) {
	if err := ValidateReportURL(reportURL); err != nil {
		return Record{}, errors.ValidationError("invalid report url", err).WithContext("report_url", reportURL)
	}
	if err := summary.Validate(); err != nil {
		return Record{}, errors.ValidationError("invalid test summary", err)
	}

	executorType := rc.ExecutorType
	if executorType == "" {
		executorType = ExecutorUnknown
	}

	return Record{
		ReportURL:    reportURL,
		ExecutorName: rc.ExecutorName,
		ExecutorType: executorType,
		BuildURL:     rc.BuildURL,
		BuildOrder:   rc.BuildOrder,
		BuildName:    rc.BuildName,
		CreatedAt:    createdAt.UTC(),
		Summary:      summary,
	}, nil
}

// ValidateReportURL checks that u is a non-empty absolute URL with a host.
func ValidateReportURL(u string) error {
	if u == "" {
		return fmt.Errorf("report url is empty")
	}
	parsed, err := url.Parse(u)
	if err != nil {
		return err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("report url %q is not absolute", u)
	}
	return nil
}

// Key identifies the run across renders. Two records with the same key
// describe the same published report.
func (r Record) Key() string {
	return r.ReportURL
}

// Label is the human readable run label, e.g. "#42 e2e".
func (r Record) Label() string {
	label := "report"
	if r.BuildOrder != "" {
		label = "#" + r.BuildOrder
	}
	if r.BuildName != "" {
		label += " " + r.BuildName
	}
	return label
}
