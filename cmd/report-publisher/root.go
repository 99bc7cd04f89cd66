// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"

	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/config"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/observability"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/platform"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/run"
	"github.com/cicd-ai-toolkit/report-publisher/pkg/version"
)

// app holds what the subcommands share: the environment they read and the
// configuration resolved before any of them runs.
type app struct {
	env       envconfig.Lookuper
	cfgFile   string
	logLevel  string
	logFormat string
	cfg       *config.Config
}

func osEnv() envconfig.Lookuper {
	return envconfig.OsLookuper()
}

// newRootCmd builds the command tree reading the environment from env.
func newRootCmd(env envconfig.Lookuper) *cobra.Command {
	a := &app{env: env}

	rootCmd := &cobra.Command{
		Use:   "report-publisher",
		Short: "Publish test reports to pull/merge requests",
		Long: `report-publisher uploads a generated test report and links it from the
pull/merge request that triggered the pipeline.

It keeps a managed section with the latest report and a bounded history of
earlier runs in the request description or a dedicated comment, and posts
an alert comment while the latest run has failures.`,
		Version:           version.FullString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "Path to configuration file (default: search for .report-publisher.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(newPublishCmd(a))
	rootCmd.AddCommand(newRenderCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// setup resolves the configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Resolve(ctx, a.cfgFile, a.env)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Global.LogLevel = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Global.LogFormat = a.logFormat
	}

	ctx, err = observability.WithLogger(ctx, cmd.ErrOrStderr(), cfg.Global.LogLevel, cfg.Global.LogFormat)
	if err != nil {
		return errors.ConfigError("invalid logging flags", err)
	}
	cmd.SetContext(ctx)
	a.cfg = cfg
	return nil
}

// provider builds the adapter of the configured or detected platform. It
// returns nil when there is nothing to annotate.
func (a *app) provider(ctx context.Context, rc run.Context) (platform.Provider, error) {
	if !rc.InRequest() {
		return nil, nil
	}
	name := a.cfg.Platform.Name
	if name == "auto" {
		name = platform.ProviderName(rc)
	}
	if name == "" {
		clog.FromContext(ctx).Warn("no hosting platform detected, annotation disabled; set platform.name",
			"executor", string(rc.ExecutorType))
		return nil, nil
	}

	access, ok := a.cfg.Platform.Access(name)
	if !ok {
		return nil, errors.ConfigError("unsupported platform: "+name, nil)
	}
	token, _ := a.env.Lookup(access.TokenEnv)
	if token == "" {
		return nil, errors.ConfigError("missing API token for platform "+name, nil).
			WithContext("token_env", access.TokenEnv)
	}
	apiURL := access.APIURL
	if apiURL == "" {
		apiURL = platform.APIURLFor(name, rc.ServerURL)
	}
	return platform.New(name, platform.Settings{Token: token, APIURL: apiURL})
}
