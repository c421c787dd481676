// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bibtools/bibcheck/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles [name]",
	Short: "List conference profiles and their required fields",
	Long: `Profiles lists the available conference profiles. With a name argument
it prints that profile's required fields per entry type. User profiles
given with --profiles (or profiles.path) merge over the built-ins; a
user profile with a built-in's name replaces it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) error {
	path := stringSetting(cmd, "profiles", "profiles.path")
	set, err := profile.Load(path)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		for _, name := range set.Names() {
			fmt.Println(name)
		}
		return nil
	}

	prof, err := set.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(prof.Name)
	for _, entryType := range prof.Types() {
		fmt.Printf("  %-16s %s\n", entryType+":", strings.Join(prof.Required(entryType), ", "))
	}
	return nil
}

func init() {
	profilesCmd.Flags().String("profiles", "", "extra conference profiles YAML file")

	rootCmd.AddCommand(profilesCmd)
}
