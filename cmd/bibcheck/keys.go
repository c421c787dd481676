// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bibtools/bibcheck/internal/texscan"
	"github.com/bibtools/bibcheck/pkg/types"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the citation keys used in a LaTeX project",
	Long: `Keys scans the project's .tex files and prints the distinct citation
keys in sorted order, without touching the bibliography. A key cited
many times appears once.`,
	RunE: runKeys,
}

func runKeys(cmd *cobra.Command, args []string) error {
	projectDir, _ := cmd.Flags().GetString("project-dir")
	cfg := types.ScanConfig{
		Macros: sliceSetting(cmd, "macros", "citation.macros"),
	}

	citedKeys, stats, err := texscan.Scan(projectDir, cfg, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "scan: %s\n", stats.Summary())

	sorted := citedKeys.Sorted()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sorted)
	}
	for _, key := range sorted {
		fmt.Println(key)
	}
	return nil
}

func init() {
	keysCmd.Flags().String("project-dir", "", "LaTeX project directory to scan (required)")
	keysCmd.Flags().StringSlice("macros", nil, "citation macro names (default: the standard cite commands)")
	keysCmd.Flags().Bool("json", false, "output keys as JSON")
	keysCmd.MarkFlagRequired("project-dir")

	rootCmd.AddCommand(keysCmd)
}
