package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/grid"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

// computeCommand creates the compute command.
func (c *CLI) computeCommand() *cobra.Command {
	var (
		format       string
		component    string
		noCache      bool
		showProgress bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "compute [bands.dx.gz]",
		Short: "Compute the Lindhard susceptibility of a band-energy grid",
		Long: `Compute the static Lindhard susceptibility chi(q) of a band-energy grid.

The input is an OpenDX grid file (plain or gzip-compressed) with one column
per band. The repeated boundary slice of the mesh is dropped, chi(q) is
evaluated for every q of the remaining periodic cell, and the result is
closed again so the output mesh matches the input mesh.

Output defaults to <input>_chi.dx next to the input. A ".gz" suffix on -o
compresses the output, and a ".csv" suffix selects CSV.

Results are cached locally, so re-running with the same input and
parameters is instant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Input = args[0]
			opts.Format = dx.Format(format)
			opts.Component = grid.Component(component)
			return c.runCompute(cmd.Context(), opts, noCache, showProgress)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default <input>_chi.<format>)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "show a progress bar on terminals")

	// Compute flags
	cmd.Flags().Float64Var(&opts.Gamma, "gamma", 0, fmt.Sprintf("broadening of the denominators (default %g)", pipeline.DefaultGamma))
	cmd.Flags().Float64Var(&opts.Temperature, "temperature", 0, fmt.Sprintf("smearing temperature, in eigenvalue units (default %g)", pipeline.DefaultTemperature))
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "concurrent q-points (default: number of CPUs)")

	// Output flags
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dx (default), csv")
	cmd.Flags().StringVar(&component, "component", "", "part of chi to write: real (default), imag, abs, complex")

	return cmd
}

// runCompute executes the full pipeline and reports the result.
func (c *CLI) runCompute(ctx context.Context, opts pipeline.Options, noCache, showProgress bool) error {
	if err := c.setCLIDefaults(&opts, "chi"); err != nil {
		return err
	}

	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	ctx = withLogger(ctx, c.Logger)
	prog := newProgress(loggerFromContext(ctx))

	var result *pipeline.Result
	if showProgress && isTerminal(os.Stderr) {
		err = runWithProgress(ctx, "Computing susceptibility", func(ctx context.Context, progress func(done, total int)) error {
			opts.Progress = progress
			var err error
			result, err = runner.Execute(ctx, opts)
			return err
		})
		if err != nil {
			printError("Computation failed")
			return err
		}
	} else {
		spinner := newSpinnerWithContext(ctx, "Computing susceptibility...")
		spinner.Start()
		opts.Progress = spinner.progressFunc("Computing q-points")

		result, err = runner.Execute(ctx, opts)
		if err != nil {
			if spinner.Cancelled() {
				spinner.Stop()
				printInfo("Computation cancelled")
				return err
			}
			spinner.StopWithError("Computation failed")
			return err
		}
		spinner.Stop()
	}

	prog.done("Computed susceptibility", "points", result.Stats.Points, "cached", result.CacheInfo.ComputeHit)
	printSuccess("Susceptibility computed")
	printStats(result.Stats.Points, result.Stats.Bands, result.CacheInfo.ComputeHit)
	printFile(opts.Output)
	if outputFormat(opts) == dx.FormatDX {
		printNextStep("Plot a slice", fmt.Sprintf("%s plot %s", appName, opts.Output))
	}
	return nil
}

// outputFormat returns the format the artifact was written in.
func outputFormat(opts pipeline.Options) dx.Format {
	if opts.Format != "" {
		return opts.Format
	}
	if f, ok := dx.FormatFromPath(opts.Output); ok {
		return f
	}
	return pipeline.DefaultFormat
}
