// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package platform provides code-review hosting platform abstractions.
//
// A Provider reads and writes the two kinds of documents report-publisher
// annotates: the pull/merge request description and comments on it.
// Every operation fails with *errors.ProviderError.
package platform

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

// Target identifies a pull/merge request.
type Target struct {
	// Project is "owner/repo" on GitHub and Gitee, the project path or
	// numeric id on GitLab.
	Project string
	Number  int
}

// String returns "<project>/<number>".
func (t Target) String() string {
	return t.Project + "/" + strconv.Itoa(t.Number)
}

// Comment is a comment on a pull/merge request.
type Comment struct {
	ID   int64
	Body string
}

// Provider is the capability set of a hosting platform.
type Provider interface {
	// Name returns the platform name.
	Name() string

	// FetchDescription returns the request description, "" when it has none.
	FetchDescription(ctx context.Context, t Target) (string, error)

	// WriteDescription replaces the request description.
	WriteDescription(ctx context.Context, t Target, text string) error

	// FindMainComment returns the comment holding the managed section, or
	// nil when there is none.
	FindMainComment(ctx context.Context, t Target) (*Comment, error)

	// CreateComment adds a comment to the request.
	CreateComment(ctx context.Context, t Target, body string) (*Comment, error)

	// UpdateComment replaces the body of an existing comment.
	UpdateComment(ctx context.Context, t Target, id int64, body string) error

	// FindAlertComment returns the comment containing marker, or nil.
	FindAlertComment(ctx context.Context, t Target, marker string) (*Comment, error)

	// CreateAlertComment adds the failure alert to the request.
	CreateAlertComment(ctx context.Context, t Target, body string) (*Comment, error)

	// DeleteComment removes a comment.
	DeleteComment(ctx context.Context, t Target, id int64) error
}

// defaultTimeout bounds every platform API call.
const defaultTimeout = 30 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// providerError builds the error returned by adapter operations. A zero
// status means the request never got a response.
func providerError(provider, op string, t Target, status int, err error) *errors.ProviderError {
	return &errors.ProviderError{
		Kind:       errors.KindFromStatus(status),
		Provider:   provider,
		Op:         op,
		Target:     t.String(),
		StatusCode: status,
		Err:        err,
	}
}
