// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docutils/internal/json2excel"
	"github.com/pdiddy/docutils/pkg/types"
)

var json2excelCmd = &cobra.Command{
	Use:   "json2excel <input>",
	Short: "Convert classification result JSON to Excel workbooks",
	Long: `json2excel flattens classification run documents into one spreadsheet
row per entry with the columns model, has_probs, prompt, malicious, prob and
content.

<input> is a JSON file or a directory. In directory mode every file matching
--pattern (relative to the directory, ** allowed) is converted into
<output>/<name>.xlsx; files that fail are reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runJSON2Excel,
}

func runJSON2Excel(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	input := args[0]
	output, _ := cmd.Flags().GetString("output")
	cfg := types.JSON2ExcelConfig{
		Pattern: viper.GetString("json2excel.pattern"),
		Force:   viper.GetBool("json2excel.force"),
	}

	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("%s does not exist", input)
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()
	conv := &json2excel.Converter{Ledger: l, Force: cfg.Force}

	if !info.IsDir() {
		out, summary, err := conv.ConvertSingle(ctx, input, output)
		if err != nil {
			return err
		}
		fmt.Printf("Successfully converted to: %s\n", out)
		fmt.Printf("Summary: %s\n", summary)
		return uploadOutputs(ctx, cmd, filepath.Dir(out), []string{out})
	}

	outDir := output
	if outDir == "" {
		outDir = input
	}
	result, err := conv.ConvertDir(ctx, input, outDir, cfg.Pattern, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("\nSuccessfully converted %d file(s)\n", result.Converted)
	if result.Skipped > 0 || result.Failed > 0 {
		printSummary(os.Stdout, result)
	}
	return uploadOutputs(ctx, cmd, outDir, result.Outputs)
}

// uploadOutputs uploads paths relative to root when uploads are enabled.
func uploadOutputs(ctx context.Context, cmd *cobra.Command, root string, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	u, err := newUploader(ctx, cmd, root)
	if err != nil || u == nil {
		return err
	}
	n, err := u.UploadAll(ctx, paths, os.Stdout)
	if err != nil {
		return fmt.Errorf("upload stopped after %d of %d file(s): %w", n, len(paths), err)
	}
	return nil
}

func init() {
	json2excelCmd.Flags().StringP("output", "o", "", "output file or directory (default: next to the input)")
	json2excelCmd.Flags().StringP("pattern", "p", json2excel.DefaultPattern, "glob pattern for directory mode")
	json2excelCmd.Flags().Bool("force", false, "convert inputs the ledger reports as unchanged")
	addUploadFlag(json2excelCmd)

	_ = viper.BindPFlag("json2excel.pattern", json2excelCmd.Flags().Lookup("pattern"))
	_ = viper.BindPFlag("json2excel.force", json2excelCmd.Flags().Lookup("force"))

	rootCmd.AddCommand(json2excelCmd)
}
