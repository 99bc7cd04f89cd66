// Package platform provides platform detection functionality
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sethvargo/go-envconfig"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
)

// OverridePrefix prefixes the variables that override detected values.
const OverridePrefix = "REPORT_PUBLISHER_"

type githubEnv struct {
	Actions    bool   `env:"GITHUB_ACTIONS"`
	ServerURL  string `env:"GITHUB_SERVER_URL, default=https://github.com"`
	Repository string `env:"GITHUB_REPOSITORY"`
	RunID      string `env:"GITHUB_RUN_ID"`
	RunNumber  string `env:"GITHUB_RUN_NUMBER"`
	Workflow   string `env:"GITHUB_WORKFLOW"`
	Job        string `env:"GITHUB_JOB"`
	Ref        string `env:"GITHUB_REF"`
	EventPath  string `env:"GITHUB_EVENT_PATH"`
}

type gitlabEnv struct {
	CI          bool   `env:"GITLAB_CI"`
	ServerURL   string `env:"CI_SERVER_URL, default=https://gitlab.com"`
	ProjectPath string `env:"CI_PROJECT_PATH"`
	MRProject   string `env:"CI_MERGE_REQUEST_PROJECT_PATH"`
	MRIID       string `env:"CI_MERGE_REQUEST_IID"`
	PipelineID  string `env:"CI_PIPELINE_ID"`
	PipelineURL string `env:"CI_PIPELINE_URL"`
	JobName     string `env:"CI_JOB_NAME"`
}

type giteeEnv struct {
	CI        bool   `env:"GITEE_CI"`
	ServerURL string `env:"GITEE_SERVER_URL"`
}

type jenkinsEnv struct {
	Home     string `env:"JENKINS_HOME"`
	URL      string `env:"JENKINS_URL"`
	BuildURL string `env:"BUILD_URL"`
	Number   string `env:"BUILD_NUMBER"`
	JobName  string `env:"JOB_NAME"`
	ChangeID string `env:"CHANGE_ID"`
}

// overrideEnv is read with OverridePrefix and wins over detected values.
type overrideEnv struct {
	ExecutorName  string `env:"EXECUTOR_NAME"`
	ServerURL     string `env:"SERVER_URL"`
	Project       string `env:"PROJECT"`
	RequestNumber int    `env:"REQUEST_NUMBER"`
	BuildURL      string `env:"BUILD_URL"`
	BuildOrder    string `env:"BUILD_ORDER"`
	BuildName     string `env:"BUILD_NAME"`
}

// DetectWith builds the run context from the variables served by l.
// Gitee Go only identifies itself, so on Gitee the project and request
// number come from REPORT_PUBLISHER_PROJECT and
// REPORT_PUBLISHER_REQUEST_NUMBER.
func DetectWith(ctx context.Context, l envconfig.Lookuper) (run.Context, error) {
	var (
		gh  githubEnv
		gl  gitlabEnv
		ge  giteeEnv
		jk  jenkinsEnv
		ovr overrideEnv
	)
	for _, target := range []any{&gh, &gl, &ge, &jk} {
		if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: target, Lookuper: l}); err != nil {
			return run.Context{}, errors.ConfigError("reading CI environment", err)
		}
	}
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &ovr,
		Lookuper: envconfig.PrefixLookuper(OverridePrefix, l),
	}); err != nil {
		return run.Context{}, errors.ConfigError("reading "+OverridePrefix+"* overrides", err)
	}

	var rc run.Context
	switch {
	case gh.Actions:
		rc = fromGitHub(gh)
	case gl.CI:
		rc = fromGitLab(gl)
	case ge.CI || ge.ServerURL != "":
		rc = run.Context{
			ExecutorName: "Gitee Go",
			ExecutorType: run.ExecutorGitee,
			ServerURL:    firstNonEmpty(ge.ServerURL, "https://gitee.com"),
		}
	case jk.Home != "" || jk.URL != "":
		rc = fromJenkins(jk)
	default:
		rc = run.Context{ExecutorType: run.ExecutorUnknown}
	}

	applyOverrides(&rc, ovr)
	return rc, nil
}

func fromGitHub(env githubEnv) run.Context {
	server := strings.TrimRight(env.ServerURL, "/")
	rc := run.Context{
		ExecutorName:  "GitHub Actions",
		ExecutorType:  run.ExecutorGitHub,
		ServerURL:     server,
		Project:       env.Repository,
		RequestNumber: githubPRNumber(env.Ref, env.EventPath),
		BuildOrder:    firstNonEmpty(env.RunNumber, env.RunID),
		BuildName:     firstNonEmpty(env.Job, env.Workflow),
	}
	if env.Repository != "" && env.RunID != "" {
		rc.BuildURL = fmt.Sprintf("%s/%s/actions/runs/%s", server, env.Repository, env.RunID)
	}
	return rc
}

// githubPRNumber reads the pull request number from refs/pull/<n>/merge,
// falling back to the event payload.
func githubPRNumber(ref, eventPath string) int {
	if rest, ok := strings.CutPrefix(ref, "refs/pull/"); ok {
		if n, err := strconv.Atoi(strings.SplitN(rest, "/", 2)[0]); err == nil {
			return n
		}
	}
	if eventPath == "" {
		return 0
	}
	data, err := os.ReadFile(eventPath)
	if err != nil {
		return 0
	}
	var event struct {
		Number      int `json:"number"`
		PullRequest struct {
			Number int `json:"number"`
		} `json:"pull_request"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		return 0
	}
	if event.PullRequest.Number > 0 {
		return event.PullRequest.Number
	}
	return event.Number
}

func fromGitLab(env gitlabEnv) run.Context {
	iid, _ := strconv.Atoi(env.MRIID)
	return run.Context{
		ExecutorName:  "GitLab CI",
		ExecutorType:  run.ExecutorGitLab,
		ServerURL:     strings.TrimRight(env.ServerURL, "/"),
		Project:       firstNonEmpty(env.MRProject, env.ProjectPath),
		RequestNumber: iid,
		BuildURL:      env.PipelineURL,
		BuildOrder:    env.PipelineID,
		BuildName:     env.JobName,
	}
}

func fromJenkins(env jenkinsEnv) run.Context {
	change, _ := strconv.Atoi(env.ChangeID)
	return run.Context{
		ExecutorName:  "Jenkins",
		ExecutorType:  run.ExecutorJenkins,
		RequestNumber: change,
		BuildURL:      env.BuildURL,
		BuildOrder:    env.Number,
		BuildName:     env.JobName,
	}
}

func applyOverrides(rc *run.Context, o overrideEnv) {
	if o.ExecutorName != "" {
		rc.ExecutorName = o.ExecutorName
	}
	if o.ServerURL != "" {
		rc.ServerURL = o.ServerURL
	}
	if o.Project != "" {
		rc.Project = o.Project
	}
	if o.RequestNumber > 0 {
		rc.RequestNumber = o.RequestNumber
	}
	if o.BuildURL != "" {
		rc.BuildURL = o.BuildURL
	}
	if o.BuildOrder != "" {
		rc.BuildOrder = o.BuildOrder
	}
	if o.BuildName != "" {
		rc.BuildName = o.BuildName
	}
}

// ProviderName returns the hosting platform matching the detected CI
// system, or "" when the CI system is not also a code host.
func ProviderName(rc run.Context) string {
	switch rc.ExecutorType {
	case run.ExecutorGitHub, run.ExecutorGitLab, run.ExecutorGitee:
		return string(rc.ExecutorType)
	default:
		return ""
	}
}

// TargetOf returns the request targeted by rc.
func TargetOf(rc run.Context) (Target, error) {
	if !rc.InRequest() {
		return Target{}, errors.ConfigError("not running for a pull/merge request", nil).
			WithContext("project", rc.Project).
			WithContext("request", rc.RequestNumber)
	}
	return Target{Project: rc.Project, Number: rc.RequestNumber}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
