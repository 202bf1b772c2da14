package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

// convertCommand creates the convert command for re-encoding grid files.
func (c *CLI) convertCommand() *cobra.Command {
	var format string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "convert [bands.dx.gz]",
		Short: "Re-encode a grid file without computing anything",
		Long: `Re-encode a grid file without computing anything.

The eigenvalues are decoded and written back out in the selected format,
e.g. as CSV with one "band_index,kx,ky,kz,energy" row per band and mesh
point. Output defaults to <input>_conv.<format> next to the input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Format = dx.Format(format)
			return c.runConvert(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default <input>_conv.<format>)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dx (default), csv")

	return cmd
}

// runConvert decodes the input and writes it in the requested format.
func (c *CLI) runConvert(ctx context.Context, opts pipeline.Options) error {
	if err := c.setCLIDefaults(&opts, "conv"); err != nil {
		return err
	}

	// Conversion is a single read and write; nothing worth caching.
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	data, err := runner.Convert(ctx, opts)
	if err != nil {
		printError("Conversion failed")
		return err
	}

	printSuccess("Converted to %s", outputFormat(opts))
	printDetail("%d bytes", len(data))
	printFile(opts.Output)
	return nil
}
