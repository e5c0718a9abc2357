// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package upload copies produced files to remote object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"sort"
)

// Provider defines the interface for file upload providers.
type Provider interface {
	// Upload uploads content from reader to the remote path.
	Upload(ctx context.Context, reader io.Reader, remotePath string) error

	// Configure sets up the provider with the given configuration.
	Configure(ctx context.Context, config map[string]any) error

	// Name returns the provider name.
	Name() string
}

// ProviderFactory creates a new, unconfigured provider.
type ProviderFactory func() Provider

var registry = map[string]ProviderFactory{}

// RegisterProvider makes a provider available under name.
func RegisterProvider(name string, factory ProviderFactory) {
	registry[name] = factory
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewProvider creates a provider instance by name.
func NewProvider(name string) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown upload provider: %s", name)
	}
	return factory(), nil
}

func init() {
	RegisterProvider("minio", func() Provider {
		return NewMinioProvider()
	})
}
