// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package render produces the managed report section and the failure
// alert comment from run records.
package render

import (
	"fmt"
	"strings"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/history"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/section"
)

// DefaultTitle is the section header used when none is configured.
const DefaultTitle = "Test report"

// Status indicators.
const (
	IndicatorPassed = "✅"
	IndicatorFailed = "❌"
)

// TimeLayout formats run timestamps. Always rendered in UTC.
const TimeLayout = "2006-01-02 15:04:05 UTC"

// Renderer turns run records into markdown. The output depends only on
// its inputs.
type Renderer struct {
	Title string
}

// New creates a Renderer with the given section title.
func New(title string) *Renderer {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}
	return &Renderer{Title: title}
}

// Render builds the complete managed section, markers included, for
// current followed by the earlier runs in prior.
func (r *Renderer) Render(current run.Record, prior history.Store) string {
	var b strings.Builder

	b.WriteString(section.StartMarker(section.CurrentVersion))
	b.WriteString("\n### ")
	b.WriteString(oneLine(r.Title))
	b.WriteString("\n\n")
	b.WriteString(line(current, true))
	b.WriteString("\n")

	if entries := prior.Entries(); len(entries) > 0 {
		fmt.Fprintf(&b, "\n<details>\n<summary>Previous runs (%d)</summary>\n\n", len(entries))
		for _, e := range entries {
			b.WriteString("- ")
			b.WriteString(line(e, false))
			b.WriteString("\n")
		}
		b.WriteString("\n</details>\n")
	}

	b.WriteString(section.EndMarker(section.CurrentVersion))
	return b.String()
}

// Indicator returns the status marker for a summary.
func Indicator(s run.Summary) string {
	if s.HasFailures() {
		return IndicatorFailed
	}
	return IndicatorPassed
}

// line renders one run on a single line, payload included.
func line(rec run.Record, latest bool) string {
	parts := make([]string, 0, 5)

	link := fmt.Sprintf("[%s](%s)", oneLine(rec.Label()), linkTarget(rec.ReportURL))
	if latest {
		link = "**" + link + "**"
	}
	parts = append(parts, Indicator(rec.Summary)+" "+link)

	if rec.ExecutorName != "" {
		parts = append(parts, oneLine(rec.ExecutorName))
	}
	parts = append(parts, rec.CreatedAt.UTC().Format(TimeLayout))
	parts = append(parts, counts(rec.Summary))
	if rec.BuildURL != "" {
		parts = append(parts, fmt.Sprintf("[build](%s)", linkTarget(rec.BuildURL)))
	}

	return strings.Join(parts, " · ") + " " + history.EncodeEntry(rec)
}

var (
	commentEscaper = strings.NewReplacer("<!--", "&lt;!--", "-->", "--&gt;")
	linkEscaper    = strings.NewReplacer("<", "%3C", ">", "%3E", " ", "%20", "\n", "%0A")
)

// oneLine keeps free-form CI values from splitting an entry across lines
// and from opening or closing an HTML comment, so a value can never end
// the section early.
func oneLine(s string) string {
	return commentEscaper.Replace(strings.Join(strings.Fields(s), " "))
}

// linkTarget percent-encodes the characters that could break out of a
// markdown link or an HTML comment.
func linkTarget(u string) string {
	return linkEscaper.Replace(u)
}

func counts(s run.Summary) string {
	return fmt.Sprintf("total: %d, passed: %d, failed: %d, broken: %d, skipped: %d",
		s.Total, s.Passed, s.Failed, s.Broken, s.Skipped)
}

// AlertBody renders the failure alert comment for current.
func (r *Renderer) AlertBody(current run.Record) string {
	var b strings.Builder
	b.WriteString(section.AlertMarker)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s **%s: test failures in [%s](%s)**\n\n",
		IndicatorFailed, oneLine(r.Title), oneLine(current.Label()), linkTarget(current.ReportURL))
	fmt.Fprintf(&b, "%d failed and %d broken out of %d tests.",
		current.Summary.Failed, current.Summary.Broken, current.Summary.Total)
	if current.BuildURL != "" {
		fmt.Fprintf(&b, " See [build](%s).", linkTarget(current.BuildURL))
	}
	return b.String()
}
