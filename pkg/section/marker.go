// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package section defines the marker grammar that delimits the managed
// report section inside pull/merge request descriptions and comments.
//
// A managed section looks like:
//
//	<!-- report-publisher:v1:start -->
//	...content owned by report-publisher...
//	<!-- report-publisher:v1:end -->
//
// Markers are HTML comments so they stay invisible in rendered markdown.
// The version number lets a newer format find and replace sections
// written by an older one instead of managing two sections side by side.
package section

import (
	"fmt"
	"regexp"
	"strconv"
)

// CurrentVersion is the section format version written by this release.
const CurrentVersion = 1

const (
	// AlertMarker identifies the failure alert comment.
	AlertMarker = "<!-- report-publisher:alert -->"

	// RunTag prefixes the machine readable payload of a rendered run.
	RunTag = "<!-- report-publisher:run "
)

var markerRe = regexp.MustCompile(`<!-- report-publisher:v(\d+):(start|end) -->`)

// Span is the half-open byte range [Start, End) of a complete managed
// section, markers included.
type Span struct {
	Start   int
	End     int
	Version int
}

// Text returns the spanned part of doc.
func (s Span) Text(doc string) string {
	return doc[s.Start:s.End]
}

// StartMarker returns the start marker for the given format version.
func StartMarker(version int) string {
	return fmt.Sprintf("<!-- report-publisher:v%d:start -->", version)
}

// EndMarker returns the end marker for the given format version.
func EndMarker(version int) string {
	return fmt.Sprintf("<!-- report-publisher:v%d:end -->", version)
}

// IsMatch reports whether text holds at least one complete managed section.
func IsMatch(text string) bool {
	_, ok := Extract(text)
	return ok
}

// Extract returns the first complete managed section in text.
func Extract(text string) (Span, bool) {
	spans := FindAll(text)
	if len(spans) == 0 {
		return Span{}, false
	}
	return spans[0], true
}

// FindAll returns every complete managed section in document order.
//
// A start marker is paired with the next end marker of the same version.
// A start marker that is followed by another start marker before any end
// is an orphan: it is skipped and left in place. End markers without an
// open start are ignored.
func FindAll(text string) []Span {
	var (
		spans   []Span
		open    = -1
		openVer int
	)
	for _, m := range markerRe.FindAllStringSubmatchIndex(text, -1) {
		version, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		switch text[m[4]:m[5]] {
		case "start":
			open, openVer = m[0], version
		case "end":
			if open >= 0 && version == openVer {
				spans = append(spans, Span{Start: open, End: m[1], Version: version})
				open = -1
			}
		}
	}
	return spans
}
