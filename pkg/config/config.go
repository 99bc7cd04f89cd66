// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration management for report-publisher.
//
// Configuration Loading Order (later overrides earlier):
//  1. Defaults (hardcoded)
//  2. Config file: ./.report-publisher.yaml, searched upwards, then
//     $HOME/.config/report-publisher/config.yaml
//  3. Environment Variables: REPORT_PUBLISHER_*
//
// Tokens never live in the file. Each platform names the environment
// variable holding its token with token_env.
//
// With platform name auto, GitHub Actions and GitLab CI provide the
// project and request number. Gitee Go does not, so pipelines there set
// REPORT_PUBLISHER_PROJECT and REPORT_PUBLISHER_REQUEST_NUMBER.
package config

// Config represents the complete application configuration.
type Config struct {
	Platform   PlatformConfig   `yaml:"platform"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Storage    StorageConfig    `yaml:"storage"`
	Report     ReportConfig     `yaml:"report"`
	Global     GlobalConfig     `yaml:"global"`
}

// PlatformConfig selects and configures the hosting platform.
type PlatformConfig struct {
	// Name is auto, github, gitlab or gitee. auto follows the CI system.
	Name   string         `yaml:"name"`
	GitHub PlatformAccess `yaml:"github"`
	GitLab PlatformAccess `yaml:"gitlab"`
	Gitee  PlatformAccess `yaml:"gitee"`
}

// PlatformAccess holds the API settings of one platform.
type PlatformAccess struct {
	TokenEnv string `yaml:"token_env"` // e.g., "GITHUB_TOKEN"
	APIURL   string `yaml:"api_url"`   // self-hosted API root
	// Token is rejected by validation; use TokenEnv.
	Token string `yaml:"token,omitempty"`
}

// AnnotationConfig controls the managed report section.
type AnnotationConfig struct {
	// Mode is description, comment or none.
	Mode         string      `yaml:"mode"`
	Title        string      `yaml:"title"`
	HistoryLimit int         `yaml:"history_limit"`
	Alert        AlertConfig `yaml:"alert"`
}

// AlertConfig controls the failure alert comment.
type AlertConfig struct {
	Enabled        bool `yaml:"enabled"`
	ClearOnSuccess bool `yaml:"clear_on_success"`
}

// StorageConfig locates the bucket reports are uploaded to. An empty
// Bucket disables upload and the report URL must be given explicitly.
type StorageConfig struct {
	// Bucket is a gocloud URL: gs://, s3://, file:// or mem://.
	Bucket string `yaml:"bucket"`
	// Prefix is prepended to every uploaded object key.
	Prefix string `yaml:"prefix"`
	// BaseURL is the public URL the bucket is served under.
	BaseURL string `yaml:"base_url"`
}

// ReportConfig locates the generated report.
type ReportConfig struct {
	Dir string `yaml:"dir"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Access returns the settings of the named platform.
func (p PlatformConfig) Access(name string) (PlatformAccess, bool) {
	switch name {
	case "github":
		return p.GitHub, true
	case "gitlab":
		return p.GitLab, true
	case "gitee":
		return p.Gitee, true
	default:
		return PlatformAccess{}, false
	}
}
