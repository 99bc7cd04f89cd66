// Package config handles configuration loading and validation
package config

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	validPlatforms  = map[string]bool{"auto": true, "github": true, "gitlab": true, "gitee": true}
	validModes      = map[string]bool{"description": true, "comment": true, "none": true}
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	validLogFormats = map[string]bool{"text": true, "json": true}
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if err := c.Platform.Validate(); err != nil {
		return fmt.Errorf("platform: %w", err)
	}
	if err := c.Annotation.Validate(); err != nil {
		return fmt.Errorf("annotation: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Global.Validate(); err != nil {
		return fmt.Errorf("global: %w", err)
	}
	return nil
}

// Validate validates the platform configuration
func (p *PlatformConfig) Validate() error {
	if !validPlatforms[strings.ToLower(p.Name)] {
		return fmt.Errorf("invalid name: %s (must be auto, github, gitlab or gitee)", p.Name)
	}
	p.Name = strings.ToLower(p.Name)

	for name, access := range map[string]PlatformAccess{"github": p.GitHub, "gitlab": p.GitLab, "gitee": p.Gitee} {
		if access.Token != "" {
			return fmt.Errorf("%s.token is not allowed, set %s.token_env instead", name, name)
		}
		if access.APIURL != "" {
			if _, err := url.ParseRequestURI(access.APIURL); err != nil {
				return fmt.Errorf("%s.api_url: %w", name, err)
			}
		}
	}
	return nil
}

// Validate validates the annotation configuration
func (a *AnnotationConfig) Validate() error {
	if !validModes[a.Mode] {
		return fmt.Errorf("invalid mode: %s (must be description, comment or none)", a.Mode)
	}
	if a.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative")
	}
	return nil
}

// Validate validates the storage configuration
func (s *StorageConfig) Validate() error {
	if s.Bucket == "" {
		return nil
	}
	if !strings.Contains(s.Bucket, "://") {
		return fmt.Errorf("bucket must be a URL such as gs://name or s3://name, got %q", s.Bucket)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("base_url is required when bucket is set")
	}
	u, err := url.Parse(s.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", s.BaseURL)
	}
	return nil
}

// Validate validates the global configuration
func (g *GlobalConfig) Validate() error {
	if !validLogLevels[strings.ToLower(g.LogLevel)] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn or error)", g.LogLevel)
	}
	if !validLogFormats[strings.ToLower(g.LogFormat)] {
		return fmt.Errorf("invalid log_format: %s (must be text or json)", g.LogFormat)
	}
	return nil
}
