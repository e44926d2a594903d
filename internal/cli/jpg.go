package cli

import (
	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/infra/imagemeta"
	"github.com/jgreely/genaistuff/internal/infra/logger"
	"github.com/jgreely/genaistuff/internal/infra/postproc"
	"github.com/jgreely/genaistuff/internal/usecase"
)

func jpgCmd(opts *globalOpts) *cobra.Command {
	var dryRun bool
	var resize int

	c := &cobra.Command{
		Use:   "jpg [files...]",
		Short: "Convert PNG files to JPEG, preserving metadata and optionally resizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := imagemeta.NewTool()
			if err != nil {
				return err
			}
			defer tool.Close()

			pipeline := postproc.New(
				postproc.WithMetadataWriter(tool),
				postproc.WithLogger(logger.L()),
			)
			uc := usecase.NewConvert(tool, pipeline, logger.L())

			return uc.Run(usecase.ConvertInput{
				Files:         args,
				ResizePercent: resize,
				Quality:       opts.jpegQuality,
				DryRun:        dryRun,
				DryRunOut:     cmd.OutOrStdout(),
			})
		},
	}

	c.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "just print the before/after filenames")
	c.Flags().IntVarP(&resize, "resize", "r", 100, "percentage to resize to (default: no change)")
	return c
}
