package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/visualright/filterlab/internal/filter"
	"github.com/visualright/filterlab/internal/raster"
)

type applyOptions struct {
	kernels    []string
	adjustment filter.Adjustment
}

func newApplyCmd(root *rootOptions) *cobra.Command {
	opts := &applyOptions{}

	cmd := &cobra.Command{
		Use:   "apply [flags] <input> <output>",
		Short: "Filter an image file",
		Long: `Apply convolves the input with each --kernel in order, then runs the adjustment.

Kernels are preset names or matrix literals with rows separated by ';'
and values by ',', for example --kernel "0,-1,0;-1,5,-1;0,-1,0".
The output format follows the extension of the output file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(root, opts, args[0], args[1])
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.kernels, "kernel", "k", nil, "kernel preset or matrix literal, may be repeated")
	flags.Float64Var(&opts.adjustment.Brightness, "brightness", 0, "brightness offset")
	flags.Float64Var(&opts.adjustment.Contrast, "contrast", 1, "contrast factor")
	flags.IntVar(&opts.adjustment.Noise, "noise", 0, "noise amplitude")
	flags.Uint32Var(&opts.adjustment.Seed, "seed", 0, "noise seed (0 for a random seed)")
	flags.BoolVar(&opts.adjustment.Grayscale, "grayscale", false, "convert the result to grayscale")

	return cmd
}

func runApply(root *rootOptions, opts *applyOptions, input, output string) error {
	format, err := raster.FormatFromExtension(filepath.Ext(output))
	if err != nil {
		return fmt.Errorf("output %s: %w", output, err)
	}

	chain, err := opts.chain(root)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	src, err := raster.DecodeBytes(data)
	if err != nil {
		return fmt.Errorf("input %s: %w", input, err)
	}

	start := time.Now()
	dst, err := chain.Apply(src)
	if err != nil {
		return err
	}

	root.log.Debugw("applied chain", "chain", chain.String(), "width", dst.Rect.Dx(), "height", dst.Rect.Dy(), "duration", time.Since(start))

	encoded, err := raster.EncodeBytes(dst, format)
	if err != nil {
		return err
	}

	return os.WriteFile(output, encoded, 0644)
}

func (o *applyOptions) chain(root *rootOptions) (filter.Chain, error) {
	var chain filter.Chain

	if len(o.kernels) > 0 {
		registry, err := root.registry()
		if err != nil {
			return nil, err
		}

		for _, value := range o.kernels {
			k, err := registry.Resolve(value)
			if err != nil {
				return nil, fmt.Errorf("kernel %q: %w", value, err)
			}

			chain = append(chain, filter.ConvolveStep{Kernel: k})
		}
	}

	if !o.adjustment.IsNeutral() {
		chain = append(chain, filter.AdjustStep{Adjustment: o.adjustment})
	}

	if err := chain.Validate(); err != nil {
		return nil, err
	}

	return chain, nil
}
