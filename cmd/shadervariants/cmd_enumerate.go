package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/shader-variants/errors"
	"github.com/wippyai/shader-variants/variant"
)

var (
	enumAxes []string
	enumPass string
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate [FILE]",
	Short: "List every keyword combination in odometer order",
	Long: `List every keyword combination in odometer order.

Axes come from FILE (top-level axes plus the axes of --pass) followed by
every --axis flag and the axes of the configuration file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var axes []variant.Axis
		if len(args) == 1 {
			a, _, err := loadAsset(args[0])
			if err != nil {
				return err
			}
			axes = append(axes, a.Axes...)
			if enumPass != "" {
				p, ok := a.Pass(enumPass)
				if !ok {
					return errors.NotFound(errors.PhaseParse, enumPass, nil)
				}
				axes = a.AxesFor(p)
			}
		} else if enumPass != "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Subject("--pass").
				Detail("--pass needs a FILE").
				Build()
		}
		axes = append(axes, flagAxes(enumAxes)...)
		axes = append(axes, cfg.VariantAxes()...)

		en, err := variant.New(axes...)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		n := 0
		for c, kws := range en.All() {
			fmt.Fprintf(out, "%4d  %-12s %s\n", n, c, strings.Join(kws, " "))
			n++
		}
		fmt.Fprintf(out, "%d variants over %d axes\n", n, len(axes))
		return nil
	},
}

func init() {
	enumerateCmd.Flags().StringArrayVar(&enumAxes, "axis", nil, "comma-separated keywords of one axis (repeatable)")
	enumerateCmd.Flags().StringVar(&enumPass, "pass", "", "include the axes of this pass")
}

// flagAxes splits "A,B,C" flag values into axes.
func flagAxes(values []string) []variant.Axis {
	out := make([]variant.Axis, 0, len(values))
	for _, v := range values {
		var ax variant.Axis
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				ax = append(ax, kw)
			}
		}
		out = append(out, ax)
	}
	return out
}
