package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/astcrun/astcrun/natv"
)

var inspectCmd = &cobra.Command{
	Use:          "inspect <module.native>",
	Short:        "Validate a NATV module and list its header and exports",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		m, err := natv.Parse(data)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		h := m.Header
		fmt.Fprintf(out, "module:       %s\n", args[0])
		fmt.Fprintf(out, "version:      %d\n", h.Version)
		fmt.Fprintf(out, "architecture: %d\n", h.Arch)
		fmt.Fprintf(out, "module type:  %d\n", h.ModuleType)
		fmt.Fprintf(out, "code size:    %d bytes\n", h.CodeSize)
		fmt.Fprintf(out, "data size:    %d bytes\n", h.DataSize)
		fmt.Fprintf(out, "exports:      %d\n", h.ExportCount)
		for i, e := range m.Exports {
			fmt.Fprintf(out, "  [%d] %s (offset %d, size %d)\n", i, e.Name, e.Offset, e.Size)
		}
		return nil
	},
}
