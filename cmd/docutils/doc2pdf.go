// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docutils/internal/docpdf"
	"github.com/pdiddy/docutils/internal/tool"
	"github.com/pdiddy/docutils/pkg/types"
)

var doc2pdfCmd = &cobra.Command{
	Use:   "doc2pdf <directory>",
	Short: "Convert Word documents to PDF with LibreOffice",
	Long: `doc2pdf finds documents under <directory> recursively and converts each
one to a PDF next to it using a headless LibreOffice (libreoffice or
soffice). Documents whose PDF already exists are skipped unless --force.
Every produced PDF is validated.`,
	Args: cobra.ExactArgs(1),
	RunE: runDoc2PDF,
}

func runDoc2PDF(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	root := args[0]
	cfg := types.DocPDFConfig{
		Extensions: viper.GetStringSlice("doc2pdf.extensions"),
		Timeout:    viper.GetDuration("doc2pdf.timeout"),
		Force:      viper.GetBool("doc2pdf.force"),
	}

	office, err := tool.Detect(tool.OfficeBinaries...)
	if err != nil {
		return err
	}

	l, err := openLedger()
	if err != nil {
		return err
	}
	defer l.Close()

	conv := &docpdf.Converter{
		Office:     office,
		Extensions: cfg.Extensions,
		Timeout:    cfg.Timeout,
		Force:      cfg.Force,
		Ledger:     l,
	}
	result, err := conv.ConvertTree(ctx, root, os.Stdout)
	printSummary(os.Stdout, result)
	if err != nil {
		return err
	}
	return uploadOutputs(ctx, cmd, root, result.Outputs)
}

func init() {
	doc2pdfCmd.Flags().Duration("timeout", docpdf.DefaultTimeout, "time limit for one document")
	doc2pdfCmd.Flags().StringSlice("ext", docpdf.DefaultExtensions, "file extensions to convert")
	doc2pdfCmd.Flags().Bool("force", false, "convert documents whose PDF already exists")
	addUploadFlag(doc2pdfCmd)

	_ = viper.BindPFlag("doc2pdf.timeout", doc2pdfCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("doc2pdf.extensions", doc2pdfCmd.Flags().Lookup("ext"))
	_ = viper.BindPFlag("doc2pdf.force", doc2pdfCmd.Flags().Lookup("force"))

	rootCmd.AddCommand(doc2pdfCmd)
}
