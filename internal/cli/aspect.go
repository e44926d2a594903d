package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/domain"
)

func aspectCmd() *cobra.Command {
	var side int
	var multiple int

	c := &cobra.Command{
		Use:   "aspect [ratios...]",
		Short: "Print the largest snapped dimensions for aspect ratios under a pixel budget",
		Long: `Print the largest snapped dimensions for aspect ratios under a pixel
budget, offline. Each line shows the ratio, the generated resolution,
and a 420px-tall preview size.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, ratio := range args {
				dims, err := domain.ResolveDimensions(ratio, side, multiple)
				if err != nil {
					return err
				}
				preview := int(math.Round(float64(dims.Width) / float64(dims.Height) * 420))
				fmt.Fprintf(out, "%s\t%d x %d\t%d x 420\n", ratio, dims.Width, dims.Height, preview)
			}
			return nil
		},
	}

	c.Flags().IntVarP(&side, "pixels", "p", 1024, "pixel budget as one side of a square")
	c.Flags().IntVarP(&multiple, "multiplier", "m", 64, "common divisor for both dimensions")
	return c
}
