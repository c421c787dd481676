// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibtools/bibcheck/internal/bibindex"
	"github.com/bibtools/bibcheck/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and search the per-project reconciliation index",
	Long: `Index maintains a SQLite database of the most recent reconciliation run
at <project>/.bibcheck/index.db, with full-text search over entry keys,
titles, authors, and venues. The database is a derived artifact: delete
it freely and rebuild with "bibcheck index build".`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the pipeline and rebuild the index",
	Long: `Build runs the reconciliation pipeline without writing the .bib output
files and replaces the index contents with the results.`,
	RunE: runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	projectDir, _ := cmd.Flags().GetString("project-dir")

	rep, err := runPipeline(projectDir, cfg, os.Stderr)
	if err != nil {
		return err
	}

	store, err := bibindex.NewStore(projectDir, cfg.Index)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Rebuild(context.Background(), rep)
	if err != nil {
		return err
	}
	fmt.Printf("indexed %d entries for %s\n", n, rep.Conference)
	return nil
}

// --- search subcommand ---

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index with full-text queries and filters",
	Long: `Search matches a FTS5 query against entry keys, titles, authors, and
venues, optionally filtered by entry type or by the used/unused side of
the partition. Without a query, filters alone select entries in
bibliography order.`,
	RunE: runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	projectDir, _ := cmd.Flags().GetString("project-dir")

	queryText, _ := cmd.Flags().GetString("query")
	if queryText == "" && len(args) > 0 {
		queryText = strings.Join(args, " ")
	}
	entryType, _ := cmd.Flags().GetString("type")
	used, _ := cmd.Flags().GetBool("used")
	unused, _ := cmd.Flags().GetBool("unused")
	limit, _ := cmd.Flags().GetInt("limit")

	opts := bibindex.QueryOptions{
		Query:      queryText,
		Type:       entryType,
		Used:       used,
		Unused:     unused,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide a search query, --type, --used, or --unused")
	}

	cfg := types.IndexConfig{MaxResults: viper.GetInt("index.max_results")}
	store, err := bibindex.Open(projectDir, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatSearchOutput(results, jsonOutput)
}

func formatSearchOutput(results []bibindex.Result, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-14s  %-6s  %-44s  %-24s  %s\n",
		"Key", "Type", "Used", "Title", "Venue", "Year")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 120))

	for _, r := range results {
		used := "no"
		if r.Used {
			used = "yes"
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-14s  %-6s  %-44s  %-24s  %s\n",
			truncate(r.Key, 20), truncate(r.Type, 14), used,
			truncate(r.Title, 44), truncate(r.Venue, 24), r.Year)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

func init() {
	addPipelineFlags(indexBuildCmd)

	indexSearchCmd.Flags().String("project-dir", "", "LaTeX project directory (required)")
	indexSearchCmd.Flags().String("query", "", "full-text search query")
	indexSearchCmd.Flags().String("type", "", "filter by entry type: article, inproceedings, ...")
	indexSearchCmd.Flags().Bool("used", false, "only entries cited in the LaTeX sources")
	indexSearchCmd.Flags().Bool("unused", false, "only entries not cited anywhere")
	indexSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexSearchCmd.Flags().Bool("json", false, "output results as JSON")
	indexSearchCmd.MarkFlagRequired("project-dir")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexSearchCmd)

	rootCmd.AddCommand(indexCmd)
}
