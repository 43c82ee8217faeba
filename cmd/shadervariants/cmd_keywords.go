package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/shader-variants/keyword"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [FILE]",
	Short: "Reserve the keywords of a description and print their hashes",
	Long: `Reserve the keywords of a description and print their hashes.

Keywords from the configuration's reserve and global_keywords lists are
reserved first, then every keyword of every axis in FILE. Two names with the
same hash are reported as a collision.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names := append(append([]string{}, cfg.Reserve...), cfg.GlobalKeywords...)
		for _, ax := range cfg.VariantAxes() {
			names = append(names, ax...)
		}
		if len(args) == 1 {
			a, _, err := loadAsset(args[0])
			if err != nil {
				return err
			}
			names = append(names, a.Keywords()...)
		}

		reg := keyword.NewRegistry()
		for _, name := range names {
			if _, err := reg.Reserve(name); err != nil {
				return err
			}
		}
		fmt.Fprint(cmd.OutOrStdout(), reg.Dump())
		return nil
	},
}
