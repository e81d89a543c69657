package main

import (
	"fmt"
	"os"

	"github.com/deepsourcelabs/linter-psalm/analyzers/build"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	catalog := &cobra.Command{
		Use:   "catalog",
		Short: "Work with the psalm issue catalog",
	}

	catalog.AddCommand(&cobra.Command{
		Use:   "build <catalog.toml> <dir>",
		Short: "Render the catalog into one TOML file per issue type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			issues, err := build.FetchIssues(f)
			if err != nil {
				return fmt.Errorf("reading catalog %s: %w", args[0], err)
			}

			if err := issues.BuildTOML(args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d issues to %s\n", len(issues.Issues), args[1])
			return nil
		},
	})

	return catalog
}
