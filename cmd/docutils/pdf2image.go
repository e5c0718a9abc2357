// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docutils/internal/pdfimage"
	"github.com/pdiddy/docutils/pkg/types"
)

var pdf2imageCmd = &cobra.Command{
	Use:   "pdf2image <source> <dest>",
	Short: "Render every PDF page under a directory to PNG",
	Long: `pdf2image walks <source> recursively, renders each page of every PDF to
<dest>/<relative dir>/<name>_page_NNN.png and preserves the folder layout.
Rendering uses pdftoppm (poppler) or, when absent, mutool (MuPDF).`,
	Args: cobra.ExactArgs(2),
	RunE: runPDF2Image,
}

func runPDF2Image(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	src, dest := args[0], args[1]
	cfg := types.PDFImageConfig{
		DPI:     viper.GetInt("pdf2image.dpi"),
		Backend: types.RasterBackend(viper.GetString("pdf2image.backend")),
		Force:   viper.GetBool("pdf2image.force"),
	}

	r, err := pdfimage.DetectRasterizer(cfg.Backend)
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	conv := &pdfimage.Converter{
		Rasterizer: r,
		DPI:        cfg.DPI,
		Ledger:     l,
		Force:      cfg.Force,
		Progress:   os.Stderr,
	}

	fmt.Printf("Converting PDFs in %s -> %s\n", src, dest)
	result, err := conv.ConvertTree(ctx, src, dest, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Done. Images written: %d\n", result.Images)
	if result.Skipped > 0 || result.Failed > 0 {
		printSummary(os.Stdout, result.BatchResult)
	}
	return uploadOutputs(ctx, cmd, dest, result.Outputs)
}

func init() {
	pdf2imageCmd.Flags().Int("dpi", pdfimage.DefaultDPI, "render resolution")
	pdf2imageCmd.Flags().String("backend", "", "rasterizer: pdftoppm or mutool (default: detect)")
	pdf2imageCmd.Flags().Bool("force", false, "render PDFs the ledger reports as unchanged")
	addUploadFlag(pdf2imageCmd)

	_ = viper.BindPFlag("pdf2image.dpi", pdf2imageCmd.Flags().Lookup("dpi"))
	_ = viper.BindPFlag("pdf2image.backend", pdf2imageCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("pdf2image.force", pdf2imageCmd.Flags().Lookup("force"))

	rootCmd.AddCommand(pdf2imageCmd)
}
