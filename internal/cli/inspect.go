package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

// inspectCommand creates the inspect command for summarizing grid files.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [bands.dx.gz]",
		Short: "Show the header and band ranges of a grid file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0])
		},
	}
}

// runInspect decodes the file and prints its header and a band table.
func (c *CLI) runInspect(ctx context.Context, input string) error {
	runner, err := c.newRunner(true)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	g, hash, err := runner.Decode(ctx, pipeline.Options{Input: input, Logger: c.Logger})
	if err != nil {
		return err
	}

	fmt.Println(StyleTitle.Render(input))
	printKeyValue("counts", g.Counts.String())
	printKeyValue("bands", strconv.Itoa(g.Values.Count))
	printKeyValue("origin", formatVector(g.Origin))
	for i, d := range g.Deltas {
		printKeyValue(fmt.Sprintf("delta %d", i+1), formatVector(d))
	}
	printKeyValue("voxel", fmt.Sprintf("%.6g", g.VoxelVolume()))
	if g.Type != "" {
		printKeyValue("type", g.Type)
	}
	printKeyValue("hash", hash[:16])
	printNewline()
	fmt.Println(bandTable(g).Render())
	return nil
}

// bandTable renders one row per band with its energy range.
func bandTable(g *dx.Grid) *table.Table {
	rows := make([][]string, g.Values.Count)
	for n := range rows {
		lo, hi := g.Values.Range(n)
		rows[n] = []string{
			strconv.Itoa(n),
			fmt.Sprintf("%.6f", lo),
			fmt.Sprintf("%.6f", hi),
			fmt.Sprintf("%.6f", hi-lo),
		}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Band", "Min", "Max", "Width").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return StyleNumber
			}
			return StyleValue
		})
}

func formatVector(v [3]float64) string {
	return fmt.Sprintf("%g %g %g", v[0], v[1], v[2])
}
