package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// writeResult writes v as indented JSON to stdout, or to path. A path ending
// in .xlsx is rendered with toXLSX instead.
func writeResult(cmd *cobra.Command, path string, v any, toXLSX func(io.Writer) error) error {
	if path == "" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".xlsx" {
		return fmt.Errorf("unsupported output format %q (use .json or .xlsx)", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if ext == ".xlsx" {
		err = toXLSX(f)
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(v)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
