// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docutils/internal/agent"
	"github.com/pdiddy/docutils/pkg/types"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage Gemini agent definitions",
}

var agentInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an agent definition for Gemini on Vertex AI",
	Long: `Init loads service-account credentials, then writes a YAML agent
definition: model, Vertex AI location, temperature, thinking budget, safety
settings (all harm categories unblocked), retries, the system prompt read
from --prompt-file with common indentation removed, and an optional JSON
output schema.

Credentials come from --credentials, then $GOOGLE_APPLICATION_CREDENTIALS,
then the google-application-credentials secret.`,
	RunE: runAgentInit,
}

func runAgentInit(cmd *cobra.Command, args []string) error {
	promptFile, _ := cmd.Flags().GetString("prompt-file")
	schemaFile, _ := cmd.Flags().GetString("schema")
	output, _ := cmd.Flags().GetString("output")

	prompt, err := os.ReadFile(promptFile)
	if err != nil {
		return fmt.Errorf("reading prompt: %w", err)
	}
	var schema []byte
	if schemaFile != "" {
		if schema, err = os.ReadFile(schemaFile); err != nil {
			return fmt.Errorf("reading schema: %w", err)
		}
	}

	cfg := types.AgentConfig{
		Model:           viper.GetString("agent.model"),
		Location:        viper.GetString("agent.location"),
		Temperature:     viper.GetFloat64("agent.temperature"),
		ThinkingBudget:  viper.GetInt("agent.thinking_budget"),
		Retries:         viper.GetInt("agent.retries"),
		CredentialsPath: viper.GetString("agent.credentials"),
	}
	a, err := agent.New(context.Background(), agent.Options{
		AgentConfig: cfg,
		Prompt:      string(prompt),
		Schema:      schema,
		Secrets:     loadedSecrets,
	})
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}
	if err := a.WriteYAML(w); err != nil {
		return err
	}
	if w != os.Stdout {
		fmt.Fprintf(os.Stderr, "Wrote agent definition to %s\n", output)
	}
	return nil
}

func init() {
	f := agentInitCmd.Flags()
	f.String("prompt-file", "", "file holding the system prompt")
	f.String("schema", "", "JSON schema file for structured output")
	f.String("model", agent.DefaultModel, "Gemini model name")
	f.String("location", agent.DefaultLocation, "Vertex AI region")
	f.Float64("temperature", 0, "sampling temperature")
	f.Int("thinking-budget", 0, "thinking token budget")
	f.Int("retries", agent.DefaultRetries, "attempts for failed model calls")
	f.String("credentials", "", "service-account JSON file")
	f.StringP("output", "o", "", "output file (default: stdout)")
	_ = agentInitCmd.MarkFlagRequired("prompt-file")

	_ = viper.BindPFlag("agent.model", f.Lookup("model"))
	_ = viper.BindPFlag("agent.location", f.Lookup("location"))
	_ = viper.BindPFlag("agent.temperature", f.Lookup("temperature"))
	_ = viper.BindPFlag("agent.thinking_budget", f.Lookup("thinking-budget"))
	_ = viper.BindPFlag("agent.retries", f.Lookup("retries"))
	_ = viper.BindPFlag("agent.credentials", f.Lookup("credentials"))

	agentCmd.AddCommand(agentInitCmd)
	rootCmd.AddCommand(agentCmd)
}
