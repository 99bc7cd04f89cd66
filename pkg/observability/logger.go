// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package observability sets up logging. Every package logs through
// clog.FromContext, so the logger built here is installed into the
// context once at startup.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chainguard-dev/clog"
)

// ParseLevel converts a configured level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger creates a logger writing to w in the given format (text or
// json).
func NewLogger(w io.Writer, level, format string) (*clog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return clog.New(h), nil
}

// WithLogger builds a logger and installs it into ctx.
func WithLogger(ctx context.Context, w io.Writer, level, format string) (context.Context, error) {
	logger, err := NewLogger(w, level, format)
	if err != nil {
		return ctx, err
	}
	return clog.WithLogger(ctx, logger), nil
}
