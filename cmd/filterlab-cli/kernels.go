package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKernelsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kernels",
		Short: "List the kernel presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := root.registry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, preset := range registry.Presets() {
				fmt.Fprintf(out, "%-12s %dx%d %s\n", preset.Name, preset.Kernel.Size(), preset.Kernel.Size(), preset.Kernel)
			}

			return nil
		},
	}
}
