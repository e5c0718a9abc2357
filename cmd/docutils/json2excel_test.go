// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunJSON2Excel_MissingInput(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.json")

	err := runJSON2Excel(json2excelCmd, []string{missing})
	require.Error(t, err)
	assert.EqualError(t, err, missing+" does not exist")
	assert.NoFileExists(t, filepath.Join(dir, "missing.xlsx"))
}
