// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent builds the definition of a Gemini agent on Vertex AI:
// model, provider, sampling settings, safety settings, system prompt and
// structured output schema. The definition is written as YAML for the
// agent runtime to load.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"
	"golang.org/x/oauth2/google"

	"github.com/pdiddy/docutils/pkg/types"
)

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultLocation = "europe-west1"
	DefaultRetries  = 10
)

// ProviderName identifies the Vertex AI provider in agent definitions.
const ProviderName = "google-vertex"

// SafetySettings disables blocking for every harm category.
var SafetySettings = []types.SafetySetting{
	{Category: types.HarmHateSpeech, Threshold: types.BlockNone},
	{Category: types.HarmDangerousContent, Threshold: types.BlockNone},
	{Category: types.HarmHarassment, Threshold: types.BlockNone},
	{Category: types.HarmSexuallyExplicit, Threshold: types.BlockNone},
	{Category: types.HarmCivicIntegrity, Threshold: types.BlockNone},
}

// Provider locates the model endpoint.
type Provider struct {
	Name        string `json:"name" yaml:"name"`
	Location    string `json:"location" yaml:"location"`
	ProjectID   string `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Credentials string `json:"credentials,omitempty" yaml:"credentials,omitempty"`
}

// ThinkingConfig bounds model thinking.
type ThinkingConfig struct {
	ThinkingBudget int `json:"thinking_budget" yaml:"thinking_budget"`
}

// ModelSettings are passed to every model request.
type ModelSettings struct {
	Temperature    float64               `json:"temperature" yaml:"temperature"`
	ThinkingConfig ThinkingConfig        `json:"thinking_config" yaml:"thinking_config"`
	SafetySettings []types.SafetySetting `json:"safety_settings" yaml:"safety_settings"`
}

// Agent is a complete agent definition.
type Agent struct {
	Model         string         `json:"model" yaml:"model"`
	Provider      Provider       `json:"provider" yaml:"provider"`
	ModelSettings ModelSettings  `json:"model_settings" yaml:"model_settings"`
	Retries       int            `json:"retries" yaml:"retries"`
	Instrument    bool           `json:"instrument" yaml:"instrument"`
	SystemPrompt  string         `json:"system_prompt" yaml:"system_prompt"`
	OutputSchema  map[string]any `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`
}

// Options configure New.
type Options struct {
	types.AgentConfig

	// Prompt is the system prompt; common indentation is removed.
	Prompt string

	// Schema is an optional JSON schema for structured output. It must
	// decode to a JSON object.
	Schema []byte

	// Credentials skips credential loading when set.
	Credentials *google.Credentials

	// Secrets is consulted for the credential source after the flag and
	// environment.
	Secrets map[string]string
}

// New loads credentials and builds the agent definition.
func New(ctx context.Context, opts Options) (*Agent, error) {
	if strings.TrimSpace(opts.Prompt) == "" {
		return nil, fmt.Errorf("system prompt is empty")
	}

	creds := opts.Credentials
	credPath := opts.CredentialsPath
	if creds == nil {
		path, inline := ResolveCredentials(opts.CredentialsPath, opts.Secrets)
		credPath = path
		var err error
		if inline != nil {
			creds, err = ParseCredentials(ctx, path, inline)
		} else {
			creds, err = LoadCredentials(ctx, path)
		}
		if err != nil {
			return nil, err
		}
	}

	schema, err := parseSchema(opts.Schema)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		Model: opts.Model,
		Provider: Provider{
			Name:        ProviderName,
			Location:    opts.Location,
			ProjectID:   creds.ProjectID,
			Credentials: credPath,
		},
		ModelSettings: ModelSettings{
			Temperature:    opts.Temperature,
			ThinkingConfig: ThinkingConfig{ThinkingBudget: opts.ThinkingBudget},
			SafetySettings: append([]types.SafetySetting(nil), SafetySettings...),
		},
		Retries:      opts.Retries,
		Instrument:   true,
		SystemPrompt: Dedent(opts.Prompt),
		OutputSchema: schema,
	}
	if a.Model == "" {
		a.Model = DefaultModel
	}
	if a.Provider.Location == "" {
		a.Provider.Location = DefaultLocation
	}
	if a.Retries <= 0 {
		a.Retries = DefaultRetries
	}
	return a, nil
}

func parseSchema(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parsing output schema: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("output schema must be a JSON object")
	}
	return m, nil
}

// WriteYAML encodes the definition to w.
func (a *Agent) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encoding agent definition: %w", err)
	}
	return enc.Close()
}

// Dedent removes the longest common leading whitespace from every
// non-blank line. Lines holding only whitespace become empty.
func Dedent(s string) string {
	lines := strings.Split(s, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = indent, false
			continue
		}
		prefix = commonPrefix(prefix, indent)
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
