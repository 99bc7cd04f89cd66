// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Platform:   DefaultPlatformConfig(),
		Annotation: DefaultAnnotationConfig(),
		Report:     ReportConfig{Dir: "allure-report"},
		Global:     DefaultGlobalConfig(),
	}
}

// DefaultPlatformConfig returns the conventional token variables of each
// platform.
func DefaultPlatformConfig() PlatformConfig {
	return PlatformConfig{
		Name:   "auto",
		GitHub: PlatformAccess{TokenEnv: "GITHUB_TOKEN"},
		GitLab: PlatformAccess{TokenEnv: "GITLAB_TOKEN"},
		Gitee:  PlatformAccess{TokenEnv: "GITEE_TOKEN"},
	}
}

// DefaultAnnotationConfig returns default annotation settings.
func DefaultAnnotationConfig() AnnotationConfig {
	return AnnotationConfig{
		Mode:         "description",
		Title:        "Test report",
		HistoryLimit: 10,
		Alert: AlertConfig{
			Enabled:        true,
			ClearOnSuccess: true,
		},
	}
}

// DefaultGlobalConfig returns default global settings.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel:  "info",
		LogFormat: "text",
	}
}
