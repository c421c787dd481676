// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibtools/bibcheck/internal/bibindex"
	"github.com/bibtools/bibcheck/internal/bibtex"
	"github.com/bibtools/bibcheck/internal/profile"
	"github.com/bibtools/bibcheck/internal/reconcile"
	"github.com/bibtools/bibcheck/internal/report"
	"github.com/bibtools/bibcheck/internal/texscan"
	"github.com/bibtools/bibcheck/pkg/types"
)

const defaultBibFile = "reference.bib"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Reconcile a LaTeX project against its bibliography",
	Long: `Check runs the full pipeline: scan the project's .tex files for citation
keys, load its .bib files, partition the entries into used and unused,
validate required fields against the conference profile, and write the
two sorted, annotated output files.

Findings (duplicate keys, missing fields, venue discrepancies, keys with
no entry) are warnings and report comments, never errors; only
configuration problems fail the run, before anything is written.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig(cmd)
	projectDir, _ := cmd.Flags().GetString("project-dir")

	rep, err := runPipeline(projectDir, cfg, os.Stderr)
	if err != nil {
		return err
	}

	outCfg := cfg.Output
	if outCfg.Dir == "" {
		outCfg.Dir = projectDir
	}
	if err := report.WriteFiles(rep, outCfg, os.Stderr); err != nil {
		return err
	}

	if rebuild, _ := cmd.Flags().GetBool("index"); rebuild {
		store, err := bibindex.NewStore(projectDir, cfg.Index)
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := store.Rebuild(context.Background(), rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "indexed %d entries\n", n)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	report.Summarize(rep, os.Stdout)
	return nil
}

// runPipeline executes the scan, load, and reconcile stages and returns
// the report. The conference profile resolves first, so a configuration
// error aborts before any project file is read.
func runPipeline(projectDir string, cfg types.PipelineConfig, w io.Writer) (*types.Report, error) {
	if cfg.Validation.Conference == "" {
		return nil, errors.New("conference is required: set --conference or validation.conference")
	}
	set, err := profile.Load(cfg.Profiles.Path)
	if err != nil {
		return nil, err
	}
	prof, err := set.Get(cfg.Validation.Conference)
	if err != nil {
		return nil, err
	}

	citedKeys, stats, err := texscan.Scan(projectDir, cfg.Citation, w)
	if err != nil {
		return nil, err
	}
	if stats.TexFiles == 0 {
		fmt.Fprintf(w, "warning: no .tex files under %s\n", projectDir)
	}
	fmt.Fprintf(w, "scan: %s, %d distinct key(s)\n", stats.Summary(), len(citedKeys))

	bibName := cfg.Bibliography.BibFileName
	if bibName == "" {
		bibName = defaultBibFile
	}
	paths, err := bibtex.FindBibFiles(projectDir, bibName)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no bibliography files named %q under %s", bibName, projectDir)
	}

	bib, res := bibtex.Load(paths, w)
	fmt.Fprintf(w, "load: %d entries from %d file(s)\n", bib.Len(), len(paths))

	rep := reconcile.Reconcile(citedKeys, bib, prof, cfg.Validation)
	rep.Duplicates = res.Duplicates
	rep.Warnings = append(res.Warnings, res.EntryWarnings...)
	return rep, nil
}

// addPipelineFlags registers the flags shared by check and index build.
func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("project-dir", "", "LaTeX project directory to scan (required)")
	cmd.Flags().String("bib-file", defaultBibFile, "bibliography file name to match")
	cmd.Flags().String("conference", "", "conference profile to validate against (required)")
	cmd.Flags().String("profiles", "", "extra conference profiles YAML file")
	cmd.Flags().StringSlice("macros", nil, "citation macro names (default: the standard cite commands)")
	cmd.Flags().Bool("validate-unused", true, "check required fields on unused entries too")
	cmd.MarkFlagRequired("project-dir")
}

// pipelineConfig resolves the stage configuration from flags, the config
// file, and the environment. The conference is not a required cobra flag
// so validation.conference from the config file can satisfy it; the
// pipeline rejects an empty value.
func pipelineConfig(cmd *cobra.Command) types.PipelineConfig {
	return types.PipelineConfig{
		Citation: types.ScanConfig{
			Macros: sliceSetting(cmd, "macros", "citation.macros"),
		},
		Bibliography: types.LoadConfig{
			BibFileName: stringSetting(cmd, "bib-file", "bibliography.file"),
		},
		Validation: types.ValidateConfig{
			Conference:    stringSetting(cmd, "conference", "validation.conference"),
			IncludeUnused: boolSetting(cmd, "validate-unused", "validation.include_unused"),
		},
		Output: types.OutputConfig{
			Dir:        stringSetting(cmd, "output-dir", "output.dir"),
			UsedFile:   viper.GetString("output.used_file"),
			UnusedFile: viper.GetString("output.unused_file"),
		},
		Index: types.IndexConfig{
			MaxResults: viper.GetInt("index.max_results"),
		},
		Profiles: types.ProfilesConfig{
			Path: stringSetting(cmd, "profiles", "profiles.path"),
		},
	}
}

func init() {
	addPipelineFlags(checkCmd)
	checkCmd.Flags().String("output-dir", "", "directory for the output files (default: the project directory)")
	checkCmd.Flags().Bool("index", false, "also rebuild the reconciliation index")
	checkCmd.Flags().Bool("json", false, "print the full report as JSON instead of the summary")

	rootCmd.AddCommand(checkCmd)
}
