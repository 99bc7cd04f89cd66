// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package platform

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v75/github"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// GitHub is the GitHub platform adapter.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub adapter authenticated with token.
func NewGitHub(token string) *GitHub {
	return &GitHub{
		client: github.NewClient(newHTTPClient()).WithAuthToken(token),
	}
}

// SetBaseURL points the adapter at a GitHub Enterprise API root, e.g.
// https://github.example.com/api/v3/.
func (g *GitHub) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid GitHub API url %q: %w", raw, err)
	}
	g.client.BaseURL = u
	return nil
}

// Name returns the platform name.
func (g *GitHub) Name() string {
	return "github"
}

// FetchDescription returns the pull request body.
func (g *GitHub) FetchDescription(ctx context.Context, t Target) (string, error) {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return "", g.fail("FetchDescription", t, nil, err)
	}
	pr, resp, err := g.client.PullRequests.Get(ctx, owner, repo, t.Number)
	if err != nil {
		return "", g.fail("FetchDescription", t, resp, err)
	}
	return pr.GetBody(), nil
}

// WriteDescription replaces the pull request body.
func (g *GitHub) WriteDescription(ctx context.Context, t Target, text string) error {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return g.fail("WriteDescription", t, nil, err)
	}
	_, resp, err := g.client.PullRequests.Edit(ctx, owner, repo, t.Number, &github.PullRequest{
		Body: github.Ptr(text),
	})
	if err != nil {
		return g.fail("WriteDescription", t, resp, err)
	}
	return nil
}

// FindMainComment returns the first comment holding a managed section.
func (g *GitHub) FindMainComment(ctx context.Context, t Target) (*Comment, error) {
	return g.findComment(ctx, "FindMainComment", t, section.IsMatch)
}

// FindAlertComment returns the first comment containing marker.
func (g *GitHub) FindAlertComment(ctx context.Context, t Target, marker string) (*Comment, error) {
	return g.findComment(ctx, "FindAlertComment", t, func(body string) bool {
		return strings.Contains(body, marker)
	})
}

func (g *GitHub) findComment(ctx context.Context, op string, t Target, match func(string) bool) (*Comment, error) {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return nil, g.fail(op, t, nil, err)
	}

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		comments, resp, err := g.client.Issues.ListComments(ctx, owner, repo, t.Number, opts)
		if err != nil {
			return nil, g.fail(op, t, resp, err)
		}
		for _, c := range comments {
			if match(c.GetBody()) {
				return &Comment{ID: c.GetID(), Body: c.GetBody()}, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateComment adds an issue comment to the pull request.
func (g *GitHub) CreateComment(ctx context.Context, t Target, body string) (*Comment, error) {
	return g.createComment(ctx, "CreateComment", t, body)
}

// CreateAlertComment adds the failure alert as a regular comment.
func (g *GitHub) CreateAlertComment(ctx context.Context, t Target, body string) (*Comment, error) {
	return g.createComment(ctx, "CreateAlertComment", t, body)
}

func (g *GitHub) createComment(ctx context.Context, op string, t Target, body string) (*Comment, error) {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return nil, g.fail(op, t, nil, err)
	}
	c, resp, err := g.client.Issues.CreateComment(ctx, owner, repo, t.Number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, g.fail(op, t, resp, err)
	}
	return &Comment{ID: c.GetID(), Body: c.GetBody()}, nil
}

// UpdateComment edits an existing comment.
func (g *GitHub) UpdateComment(ctx context.Context, t Target, id int64, body string) error {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return g.fail("UpdateComment", t, nil, err)
	}
	_, resp, err := g.client.Issues.EditComment(ctx, owner, repo, id, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return g.fail("UpdateComment", t, resp, err)
	}
	return nil
}

// DeleteComment removes a comment.
func (g *GitHub) DeleteComment(ctx context.Context, t Target, id int64) error {
	owner, repo, err := splitRepo(t)
	if err != nil {
		return g.fail("DeleteComment", t, nil, err)
	}
	resp, err := g.client.Issues.DeleteComment(ctx, owner, repo, id)
	if err != nil {
		return g.fail("DeleteComment", t, resp, err)
	}
	return nil
}

func (g *GitHub) fail(op string, t Target, resp *github.Response, err error) error {
	status := 0
	if resp != nil && resp.Response != nil {
		status = resp.StatusCode
	}
	perr := providerError(g.Name(), op, t, status, err)

	var rateErr *github.RateLimitError
	var abuseErr *github.AbuseRateLimitError
	switch {
	case stderrors.As(err, &rateErr), stderrors.As(err, &abuseErr):
		perr.Kind = errors.KindRateLimited
	case stderrors.Is(err, errInvalidProject):
		perr.Kind = errors.KindUnknown
	}
	return perr
}

var errInvalidProject = stderrors.New("project must be in owner/repo form")

// splitRepo splits an "owner/repo" project.
func splitRepo(t Target) (string, string, error) {
	owner, repo, ok := strings.Cut(t.Project, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("%w: %q", errInvalidProject, t.Project)
	}
	return owner, repo, nil
}
