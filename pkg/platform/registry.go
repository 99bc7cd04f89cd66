// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

// Settings configures a provider instance.
type Settings struct {
	Token  string
	APIURL string
}

// Factory builds a provider from settings.
type Factory func(s Settings) (Provider, error)

// Registry maps platform names to provider factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new platform registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register registers a provider factory under name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New builds the provider registered under name.
func (r *Registry) New(name string, s Settings) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.ConfigError(fmt.Sprintf("unsupported platform: %s (supported: %v)", name, r.List()), nil)
	}
	if s.Token == "" {
		return nil, errors.ConfigError(fmt.Sprintf("missing API token for platform %s", name), nil)
	}
	return f(s)
}

// List returns all registered platform names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in hosting platforms.
var DefaultRegistry = NewRegistry()

// New builds a provider from the default registry.
func New(name string, s Settings) (Provider, error) {
	return DefaultRegistry.New(name, s)
}

func init() {
	DefaultRegistry.Register("github", func(s Settings) (Provider, error) {
		g := NewGitHub(s.Token)
		if s.APIURL != "" {
			if err := g.SetBaseURL(s.APIURL); err != nil {
				return nil, errors.ConfigError("invalid github api_url", err)
			}
		}
		return g, nil
	})
	DefaultRegistry.Register("gitlab", func(s Settings) (Provider, error) {
		g := NewGitLab(s.Token, "")
		if s.APIURL != "" {
			if err := g.SetBaseURL(s.APIURL); err != nil {
				return nil, errors.ConfigError("invalid gitlab api_url", err)
			}
		}
		return g, nil
	})
	DefaultRegistry.Register("gitee", func(s Settings) (Provider, error) {
		g := NewGitee(s.Token, "")
		if s.APIURL != "" {
			if err := g.SetBaseURL(s.APIURL); err != nil {
				return nil, errors.ConfigError("invalid gitee api_url", err)
			}
		}
		return g, nil
	})
}

// APIURLFor derives the API root of a self-hosted instance from the web
// root reported by CI. It returns "" for the public instances so the
// adapters keep their defaults.
func APIURLFor(name, serverURL string) string {
	server := strings.TrimRight(serverURL, "/")
	switch {
	case server == "":
		return ""
	case name == "github" && server != "https://github.com":
		return server + "/api/v3"
	case name == "gitlab" && server != "https://gitlab.com":
		return server + "/api/v4"
	case name == "gitee" && server != "https://gitee.com":
		return server + "/api/v5"
	default:
		return ""
	}
}
