// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the docutils CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docutils/internal/ledger"
	"github.com/pdiddy/docutils/internal/logging"
	"github.com/pdiddy/docutils/internal/secrets"
	"github.com/pdiddy/docutils/internal/upload"
	"github.com/pdiddy/docutils/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the docutils CLI.
var rootCmd = &cobra.Command{
	Use:   "docutils",
	Short: "Document conversion utilities",
	Long: `docutils converts documents between formats: classification result
JSON to Excel workbooks, PDF pages to PNG images, and Word documents to PDF.
It also writes agent definitions for Gemini on Vertex AI.

Conversions are recorded in a local ledger so repeated runs skip inputs that
have not changed. Produced files can be uploaded to S3-compatible storage.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := logging.Init(logConfig(), os.Stderr); err != nil {
			return err
		}

		s, err := secrets.Load(viper.GetString("secrets.dir"))
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./docutils.yaml or ~/.config/docutils/config.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("ledger", ledger.DefaultPath, "conversion ledger database")
	pf.Bool("no-ledger", false, "do not record or skip conversions")
	pf.String("secrets-dir", secrets.DefaultDir, "directory of secret files")

	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", pf.Lookup("log-format"))
	_ = viper.BindPFlag("ledger.path", pf.Lookup("ledger"))
	_ = viper.BindPFlag("ledger.disabled", pf.Lookup("no-ledger"))
	_ = viper.BindPFlag("secrets.dir", pf.Lookup("secrets-dir"))

	viper.SetDefault("upload.provider", "minio")
	viper.SetDefault("upload.secure", true)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("docutils")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "docutils"))
		}
	}

	viper.SetEnvPrefix("DOCUTILS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func logConfig() types.LogConfig {
	return types.LogConfig{
		Level:  viper.GetString("log.level"),
		Format: viper.GetString("log.format"),
	}
}

// openLedger opens the configured ledger, or returns nil when disabled.
// A nil ledger is valid and records nothing.
func openLedger() (*ledger.Ledger, error) {
	cfg := types.LedgerConfig{
		Path:     viper.GetString("ledger.path"),
		Disabled: viper.GetBool("ledger.disabled"),
	}
	if cfg.Disabled {
		return nil, nil
	}
	return ledger.Open(cfg.Path)
}

func uploadConfig() types.UploadConfig {
	return types.UploadConfig{
		Enabled:   viper.GetBool("upload.enabled"),
		Provider:  viper.GetString("upload.provider"),
		Endpoint:  viper.GetString("upload.endpoint"),
		Bucket:    viper.GetString("upload.bucket"),
		Prefix:    viper.GetString("upload.prefix"),
		Region:    viper.GetString("upload.region"),
		Secure:    viper.GetBool("upload.secure"),
		AccessKey: secrets.Get(loadedSecrets, secrets.UploadAccessKey),
		SecretKey: secrets.Get(loadedSecrets, secrets.UploadSecretKey),
	}
}

// addUploadFlag registers --upload on cmd. It overrides upload.enabled.
func addUploadFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("upload", false, "upload produced files to object storage")
}

// newUploader returns an Uploader rooted at root when uploads are enabled by
// flag or config, or nil otherwise.
func newUploader(ctx context.Context, cmd *cobra.Command, root string) (*upload.Uploader, error) {
	cfg := uploadConfig()
	if on, _ := cmd.Flags().GetBool("upload"); on {
		cfg.Enabled = true
	}
	if !cfg.Enabled {
		return nil, nil
	}

	p, err := upload.NewProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if err := p.Configure(ctx, cfg.Settings()); err != nil {
		return nil, fmt.Errorf("configuring %s upload: %w", cfg.Provider, err)
	}
	return upload.NewUploader(p, root), nil
}

// printSummary writes the batch summary line the way every converter reports it.
func printSummary(w io.Writer, r types.BatchResult) {
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		r.Converted, r.Skipped, r.Failed, r.Total())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
