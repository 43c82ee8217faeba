package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/wippyai/shader-variants/asset"
	"github.com/wippyai/shader-variants/errors"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Show the passes, stages and axes of a shader description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, size, err := loadAsset(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		name := a.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(out, "%s  %s, %d lines\n", name, humanize.Bytes(uint64(size)), a.LineCount())
		if len(a.Axes) > 0 {
			fmt.Fprintf(out, "  axes: %s\n", formatAxes(a.Axes))
		}
		for _, p := range a.Passes {
			state := ""
			if !p.Terminated {
				state = " (unterminated)"
			}
			fmt.Fprintf(out, "  pass %q lines %d-%d%s\n", p.Name, p.Start, p.End, state)
			if len(p.Axes) > 0 {
				fmt.Fprintf(out, "    axes: %s\n", formatAxes(p.Axes))
			}
			for _, b := range p.Stages {
				span := "empty"
				if !b.Empty() {
					span = fmt.Sprintf("lines %d-%d", b.Start, b.End)
				}
				fmt.Fprintf(out, "    %-8s %s", b.Stage, span)
				if b.Entry > 0 {
					fmt.Fprintf(out, ", entry at line %d", b.Entry)
				}
				fmt.Fprintln(out)
			}
		}
		for _, d := range a.Diagnostics {
			fmt.Fprintf(out, "  %s\n", d)
		}
		if a.HasErrors() {
			return errors.New(errors.PhaseParse, errors.KindInvalidData).
				Subject(args[0]).
				Detail("description has errors").
				Build()
		}
		return nil
	},
}

// loadAsset parses the file at path and returns its size in bytes.
func loadAsset(path string) (*asset.Asset, int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, 0, errors.NotFound(errors.PhaseIO, path, err)
	}
	a, err := asset.ParseFile(path)
	if err != nil {
		return nil, 0, err
	}
	return a, fi.Size(), nil
}

func formatAxes[T ~[]string](axes []T) string {
	parts := make([]string, len(axes))
	for i, ax := range axes {
		parts[i] = "[" + strings.Join(ax, " ") + "]"
	}
	return strings.Join(parts, " x ")
}
