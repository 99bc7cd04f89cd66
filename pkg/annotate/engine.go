// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package annotate merges the managed report section into pull/merge
// request documents and decides the fate of the failure alert comment.
//
// Engine is pure: it transforms text and performs no I/O. Annotator drives
// an Engine against a platform.Provider.
package annotate

import (
	"context"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/history"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/render"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// Options tunes an Engine.
type Options struct {
	// Title is the section header. Empty selects render.DefaultTitle.
	Title string
	// HistoryLimit caps the earlier runs kept. Values below 1 select
	// history.DefaultLimit.
	HistoryLimit int
}

// Engine renders the managed section for one run and splices it into
// existing documents.
type Engine struct {
	current  run.Record
	renderer *render.Renderer
	limit    int
}

// NewEngine creates an Engine publishing current.
func NewEngine(current run.Record, opts Options) *Engine {
	limit := opts.HistoryLimit
	if limit < 1 {
		limit = history.DefaultLimit
	}
	return &Engine{
		current:  current,
		renderer: render.New(opts.Title),
		limit:    limit,
	}
}

// Current returns the run being published.
func (e *Engine) Current() run.Record {
	return e.current
}

// Renderer returns the renderer used for the section and the alert body.
func (e *Engine) Renderer() *render.Renderer {
	return e.renderer
}

// UpsertDocument returns existing with the managed section for the current
// run in place. An empty document becomes the section alone. A document
// without a section gets one appended after a blank line. Otherwise the
// first section is replaced and everything around it is kept byte for
// byte.
func (e *Engine) UpsertDocument(ctx context.Context, existing string) string {
	log := clog.FromContext(ctx)

	spans := section.FindAll(existing)
	if len(spans) == 0 {
		fresh := e.renderer.Render(e.current, history.New(e.limit))
		if existing == "" {
			return fresh
		}
		sep := "\n\n"
		if strings.HasSuffix(existing, "\n") {
			sep = ""
		}
		return existing + sep + fresh
	}
	if len(spans) > 1 {
		log.Warn("document holds more than one managed section, replacing the first",
			"sections", len(spans))
	}

	span := spans[0]
	var prior []run.Record
	if span.Version == section.CurrentVersion {
		var dropped int
		prior, dropped = history.Parse(span.Text(existing))
		if dropped > 0 {
			log.Warn("dropped unreadable history entries", "dropped", dropped)
		}
	} else {
		log.Info("replacing managed section written by another format version",
			"version", span.Version, "current", section.CurrentVersion)
	}

	fresh := e.renderer.Render(e.current, history.Merge(e.current, prior, e.limit))
	return existing[:span.Start] + fresh + existing[span.End:]
}

// PriorRuns returns the earlier runs listed in the first managed section
// of doc, newest first, excluding the run that section was written for.
func PriorRuns(doc string) []run.Record {
	span, ok := section.Extract(doc)
	if !ok {
		return nil
	}
	entries, _ := history.Parse(span.Text(doc))
	if len(entries) == 0 {
		return nil
	}
	return entries[1:]
}
