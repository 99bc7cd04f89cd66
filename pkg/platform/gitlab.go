// Package platform provides GitLab platform implementation
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

// DefaultGitLabAPIURL is the API root of gitlab.com.
const DefaultGitLabAPIURL = "https://gitlab.com/api/v4"

// GitLab implements Provider for GitLab merge requests.
type GitLab struct {
	rest restClient
}

// GitLabMR is the subset of the merge request resource we read.
type GitLabMR struct {
	ID          int    `json:"id"`
	IID         int    `json:"iid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	WebURL      string `json:"web_url"`
}

// GitLabNote is a merge request note.
type GitLabNote struct {
	ID     int64  `json:"id"`
	Body   string `json:"body"`
	System bool   `json:"system"`
}

// GitLabDiscussion is a merge request discussion thread.
type GitLabDiscussion struct {
	ID    string       `json:"id"`
	Notes []GitLabNote `json:"notes"`
}

// NewGitLab creates a GitLab adapter. An empty baseURL selects gitlab.com.
func NewGitLab(token, baseURL string) *GitLab {
	if baseURL == "" {
		baseURL = DefaultGitLabAPIURL
	}
	return &GitLab{
		rest: restClient{
			baseURL: baseURL,
			client:  newHTTPClient(),
			auth: func(req *http.Request) {
				req.Header.Set("PRIVATE-TOKEN", token)
			},
		},
	}
}

// SetBaseURL sets a custom base URL for GitLab self-hosted
func (g *GitLab) SetBaseURL(raw string) error {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return fmt.Errorf("invalid GitLab API url %q: %w", raw, err)
	}
	g.rest.baseURL = raw
	return nil
}

// Name returns the platform name.
func (g *GitLab) Name() string {
	return "gitlab"
}

// mrPath returns the merge request resource path. The project path is
// escaped so "group/project" becomes "group%2Fproject".
func mrPath(t Target) string {
	return fmt.Sprintf("/projects/%s/merge_requests/%d", url.PathEscape(t.Project), t.Number)
}

// FetchDescription returns the merge request description.
func (g *GitLab) FetchDescription(ctx context.Context, t Target) (string, error) {
	var mr GitLabMR
	if _, status, err := g.rest.do(ctx, http.MethodGet, mrPath(t), nil, &mr); err != nil {
		return "", providerError(g.Name(), "FetchDescription", t, status, err)
	}
	return mr.Description, nil
}

// WriteDescription replaces the merge request description.
func (g *GitLab) WriteDescription(ctx context.Context, t Target, text string) error {
	in := map[string]string{"description": text}
	if _, status, err := g.rest.do(ctx, http.MethodPut, mrPath(t), in, nil); err != nil {
		return providerError(g.Name(), "WriteDescription", t, status, err)
	}
	return nil
}

// FindMainComment returns the first note holding a managed section.
func (g *GitLab) FindMainComment(ctx context.Context, t Target) (*Comment, error) {
	return g.findNote(ctx, "FindMainComment", t, section.IsMatch)
}

// FindAlertComment returns the first note containing marker.
func (g *GitLab) FindAlertComment(ctx context.Context, t Target, marker string) (*Comment, error) {
	return g.findNote(ctx, "FindAlertComment", t, func(body string) bool {
		return strings.Contains(body, marker)
	})
}

func (g *GitLab) findNote(ctx context.Context, op string, t Target, match func(string) bool) (*Comment, error) {
	page := "1"
	for page != "" {
		var notes []GitLabNote
		path := mrPath(t) + "/notes?sort=asc&order_by=created_at&per_page=100&page=" + page
		header, status, err := g.rest.do(ctx, http.MethodGet, path, nil, &notes)
		if err != nil {
			return nil, providerError(g.Name(), op, t, status, err)
		}
		for _, n := range notes {
			if !n.System && match(n.Body) {
				return &Comment{ID: n.ID, Body: n.Body}, nil
			}
		}
		page = header.Get("X-Next-Page")
	}
	return nil, nil
}

// CreateComment adds a note to the merge request.
func (g *GitLab) CreateComment(ctx context.Context, t Target, body string) (*Comment, error) {
	var note GitLabNote
	in := map[string]string{"body": body}
	if _, status, err := g.rest.do(ctx, http.MethodPost, mrPath(t)+"/notes", in, &note); err != nil {
		return nil, providerError(g.Name(), "CreateComment", t, status, err)
	}
	return &Comment{ID: note.ID, Body: note.Body}, nil
}

// CreateAlertComment opens an unresolved discussion so the alert blocks
// merging on projects requiring resolved threads.
func (g *GitLab) CreateAlertComment(ctx context.Context, t Target, body string) (*Comment, error) {
	var d GitLabDiscussion
	in := map[string]string{"body": body}
	_, status, err := g.rest.do(ctx, http.MethodPost, mrPath(t)+"/discussions", in, &d)
	if err != nil {
		return nil, providerError(g.Name(), "CreateAlertComment", t, status, err)
	}
	if len(d.Notes) == 0 {
		return nil, providerError(g.Name(), "CreateAlertComment", t, status,
			fmt.Errorf("discussion %s has no notes", d.ID))
	}
	return &Comment{ID: d.Notes[0].ID, Body: d.Notes[0].Body}, nil
}

// UpdateComment edits a note.
func (g *GitLab) UpdateComment(ctx context.Context, t Target, id int64, body string) error {
	in := map[string]string{"body": body}
	path := mrPath(t) + "/notes/" + strconv.FormatInt(id, 10)
	if _, status, err := g.rest.do(ctx, http.MethodPut, path, in, nil); err != nil {
		return providerError(g.Name(), "UpdateComment", t, status, err)
	}
	return nil
}

// DeleteComment removes a note. Deleting the only note of a discussion
// removes the discussion.
func (g *GitLab) DeleteComment(ctx context.Context, t Target, id int64) error {
	path := mrPath(t) + "/notes/" + strconv.FormatInt(id, 10)
	if _, status, err := g.rest.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return providerError(g.Name(), "DeleteComment", t, status, err)
	}
	return nil
}
