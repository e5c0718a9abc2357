// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sheet writes flattened result rows to xlsx workbooks.
package sheet

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/docutils/pkg/types"
)

// SheetName is the worksheet that receives the rows.
const SheetName = "Sheet1"

// WriteXLSX writes a header row of types.Columns followed by one row per
// FlatRow. Missing and null values leave the cell empty. The workbook is
// written to a temporary file next to path and renamed into place.
func WriteXLSX(path string, rows []types.FlatRow) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]any, len(types.Columns))
	for i, c := range types.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		for j, v := range row.Values() {
			if v.IsBlank() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("addressing row %d: %w", i+1, err)
			}
			if err := f.SetCellValue(SheetName, cell, CellValue(v)); err != nil {
				return fmt.Errorf("writing cell %s: %w", cell, err)
			}
		}
	}

	return writeAtomic(f, path)
}

func writeAtomic(f *excelize.File, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".docutils-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := f.WriteTo(tmp)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing workbook: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// CellValue maps a present value to what excelize should store. Numbers
// that a float64 holds exactly become numeric cells and all other numbers
// keep their JSON text. Booleans and strings are stored as-is, and nested
// arrays or objects are stored as their compact JSON text.
func CellValue(v types.Value) any {
	switch x := v.Raw().(type) {
	case nil:
		return nil
	case string, bool, float64, int, int64:
		return x
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return x.String()
		}
		f := d.InexactFloat64()
		if math.IsInf(f, 0) || math.IsNaN(f) || !decimal.NewFromFloat(f).Equal(d) {
			return x.String()
		}
		return f
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// ReadRows returns the string contents of every row of SheetName, header
// included. Empty trailing cells are dropped by excelize.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", SheetName, err)
	}
	return rows, nil
}
