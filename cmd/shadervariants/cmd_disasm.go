package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/shader-variants/spirv"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE.spv",
	Short: "Print a SPIR-V word file as text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		words, err := spirv.ReadFile(args[0])
		if err != nil {
			return err
		}
		log.Debug("read spirv",
			zap.String("file", args[0]),
			zap.Int("words", len(words)),
			zap.String("size", humanize.Bytes(uint64(len(words)*spirv.WordSize))))

		text, err := spirv.Disassemble(words)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}
