// Package platform provides Gitee platform implementation
package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// DefaultGiteeAPIURL is the API root of gitee.com.
const DefaultGiteeAPIURL = "https://gitee.com/api/v5"

const giteePageSize = 100

// Gitee implements Provider for Gitee pull requests.
type Gitee struct {
	rest restClient
}

// GiteePR is the subset of the pull request resource we read.
type GiteePR struct {
	ID      int    `json:"id"`
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
}

// GiteeComment represents a comment on Gitee
type GiteeComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// NewGitee creates a Gitee adapter. An empty baseURL selects gitee.com.
func NewGitee(token, baseURL string) *Gitee {
	if baseURL == "" {
		baseURL = DefaultGiteeAPIURL
	}
	return &Gitee{
		rest: restClient{
			baseURL: baseURL,
			client:  newHTTPClient(),
			auth: func(req *http.Request) {
				req.Header.Set("Authorization", "token "+token)
			},
		},
	}
}

// SetBaseURL sets a custom base URL for Gitee Enterprise
func (g *Gitee) SetBaseURL(raw string) error {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return fmt.Errorf("invalid Gitee API url %q: %w", raw, err)
	}
	g.rest.baseURL = raw
	return nil
}

// Name returns the platform name.
func (g *Gitee) Name() string {
	return "gitee"
}

func (g *Gitee) repoPath(t Target) (string, error) {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return "", err
	}
	return "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo), nil
}

// FetchDescription returns the pull request body.
func (g *Gitee) FetchDescription(ctx context.Context, t Target) (string, error) {
	repo, err := g.repoPath(t)
	if err != nil {
		return "", providerError(g.Name(), "FetchDescription", t, http.StatusBadRequest, err)
	}
	var pr GiteePR
	path := fmt.Sprintf("%s/pulls/%d", repo, t.Number)
	if _, status, err := g.rest.do(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return "", providerError(g.Name(), "FetchDescription", t, status, err)
	}
	return pr.Body, nil
}

// WriteDescription replaces the pull request body.
func (g *Gitee) WriteDescription(ctx context.Context, t Target, text string) error {
	repo, err := g.repoPath(t)
	if err != nil {
		return providerError(g.Name(), "WriteDescription", t, http.StatusBadRequest, err)
	}
	path := fmt.Sprintf("%s/pulls/%d", repo, t.Number)
	if _, status, err := g.rest.do(ctx, http.MethodPatch, path, map[string]string{"body": text}, nil); err != nil {
		return providerError(g.Name(), "WriteDescription", t, status, err)
	}
	return nil
}

// FindMainComment returns the first comment holding a managed section.
func (g *Gitee) FindMainComment(ctx context.Context, t Target) (*Comment, error) {
	return g.findComment(ctx, "FindMainComment", t, section.IsMatch)
}

// FindAlertComment returns the first comment containing marker.
func (g *Gitee) FindAlertComment(ctx context.Context, t Target, marker string) (*Comment, error) {
	return g.findComment(ctx, "FindAlertComment", t, func(body string) bool {
		return strings.Contains(body, marker)
	})
}

func (g *Gitee) findComment(ctx context.Context, op string, t Target, match func(string) bool) (*Comment, error) {
	repo, err := g.repoPath(t)
	if err != nil {
		return nil, providerError(g.Name(), op, t, http.StatusBadRequest, err)
	}
	for page := 1; ; page++ {
		var comments []GiteeComment
		path := fmt.Sprintf("%s/pulls/%d/comments?per_page=%d&page=%d", repo, t.Number, giteePageSize, page)
		if _, status, err := g.rest.do(ctx, http.MethodGet, path, nil, &comments); err != nil {
			return nil, providerError(g.Name(), op, t, status, err)
		}
		for _, c := range comments {
			if match(c.Body) {
				return &Comment{ID: c.ID, Body: c.Body}, nil
			}
		}
		if len(comments) < giteePageSize {
			return nil, nil
		}
	}
}

// CreateComment adds a comment to the pull request.
func (g *Gitee) CreateComment(ctx context.Context, t Target, body string) (*Comment, error) {
	return g.createComment(ctx, "CreateComment", t, body)
}

// CreateAlertComment adds the failure alert as a regular comment.
func (g *Gitee) CreateAlertComment(ctx context.Context, t Target, body string) (*Comment, error) {
	return g.createComment(ctx, "CreateAlertComment", t, body)
}

func (g *Gitee) createComment(ctx context.Context, op string, t Target, body string) (*Comment, error) {
	repo, err := g.repoPath(t)
	if err != nil {
		return nil, providerError(g.Name(), op, t, http.StatusBadRequest, err)
	}
	var c GiteeComment
	path := fmt.Sprintf("%s/pulls/%d/comments", repo, t.Number)
	if _, status, err := g.rest.do(ctx, http.MethodPost, path, map[string]string{"body": body}, &c); err != nil {
		return nil, providerError(g.Name(), op, t, status, err)
	}
	return &Comment{ID: c.ID, Body: c.Body}, nil
}

// UpdateComment edits a comment.
func (g *Gitee) UpdateComment(ctx context.Context, t Target, id int64, body string) error {
	repo, err := g.repoPath(t)
	if err != nil {
		return providerError(g.Name(), "UpdateComment", t, http.StatusBadRequest, err)
	}
	path := repo + "/pulls/comments/" + strconv.FormatInt(id, 10)
	if _, status, err := g.rest.do(ctx, http.MethodPatch, path, map[string]string{"body": body}, nil); err != nil {
		return providerError(g.Name(), "UpdateComment", t, status, err)
	}
	return nil
}

// DeleteComment removes a comment.
func (g *Gitee) DeleteComment(ctx context.Context, t Target, id int64) error {
	repo, err := g.repoPath(t)
	if err != nil {
		return providerError(g.Name(), "DeleteComment", t, http.StatusBadRequest, err)
	}
	path := repo + "/pulls/comments/" + strconv.FormatInt(id, 10)
	if _, status, err := g.rest.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return providerError(g.Name(), "DeleteComment", t, status, err)
	}
	return nil
}
