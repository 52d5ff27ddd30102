package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/visualright/filterlab/internal/kernel"
	"github.com/visualright/filterlab/internal/logger"
	"go.uber.org/zap"
)

// Flags shared by every command
type rootOptions struct {
	kernelsFile string
	verbose     bool
	log         *logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "filterlab-cli",
		Short: "Apply convolution kernels and adjustments to local images",
		Long: `filterlab-cli runs the same filter chains as the image service on local files.

Available commands:
  apply   - Filter an image file
  kernels - List the kernel presets`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zap.WarnLevel
			if opts.verbose {
				level = zap.DebugLevel
			}

			opts.log = logger.NewConsole(level)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.kernelsFile, "kernels-file", "", "yaml file with custom kernel presets")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every step")

	rootCmd.AddCommand(newApplyCmd(opts))
	rootCmd.AddCommand(newKernelsCmd(opts))

	return rootCmd
}

func (o *rootOptions) registry() (*kernel.Registry, error) {
	return kernel.LoadRegistry(o.kernelsFile)
}
