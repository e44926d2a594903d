package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/infra/imagemeta"
	"github.com/jgreely/genaistuff/internal/infra/logger"
	"github.com/jgreely/genaistuff/internal/infra/postproc"
	"github.com/jgreely/genaistuff/internal/usecase"
)

func genCmd(opts *globalOpts) *cobra.Command {
	var model string
	var loras []string
	var rules []string
	var params []string
	var lutName string
	var saveOnServer bool
	var dryRun bool
	var unsharpMask bool
	var unsharpParams string

	c := &cobra.Command{
		Use:   "gen [sources...]",
		Short: "Generate images with common parameters and different prompts",
		Long: `Generate images with common parameters and different prompts.

A source that names an existing file (PNG, JPG, or JSON) is re-generated
from its embedded parameters. Any other source is used as a literal
prompt. With no sources, one-line prompts are read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ruleSource, err := opts.loadRules()
			if err != nil {
				return err
			}

			var sharp *domain.UnsharpSpec
			if unsharpMask {
				if sharp, err = parseUnsharp(unsharpParams); err != nil {
					return err
				}
			}

			tool, err := imagemeta.NewTool()
			if err != nil {
				return err
			}
			defer tool.Close()

			server := opts.server(ruleSource)
			pipeline := postproc.New(
				postproc.WithMetadataWriter(tool),
				postproc.WithLogger(logger.L()),
			)
			uc := usecase.NewGenerate(server, server, tool, pipeline, ruleSource, logger.L())

			in := usecase.GenerateInput{
				Sources:       args,
				Stdin:         cmd.InOrStdin(),
				Model:         model,
				LoRAs:         loras,
				Rules:         rules,
				Overrides:     params,
				LUT:           lutName,
				Aspect:        opts.aspect,
				SideLength:    opts.sidelength,
				FixResolution: opts.fixResolution,
				Unsharp:       sharp,
				JPEG:          opts.jpegOutput,
				JPEGQuality:   opts.jpegQuality,
				SaveOnServer:  saveOnServer,
				DryRun:        dryRun,
				DryRunOut:     cmd.OutOrStdout(),
				Namer:         domain.NewNamer(opts.template, opts.pre, opts.set, opts.pad),
				Seq:           opts.seq,
			}
			return uc.Run(cmd.Context(), in)
		},
	}

	c.Flags().StringVarP(&model, "model", "m", "",
		"case-insensitive unique substring of the base model to render with")
	c.Flags().StringArrayVarP(&loras, "loras", "l", nil,
		`LoRA to enable, as "name[:weight[:base|refine]]" (repeatable)`)
	c.Flags().StringArrayVarP(&rules, "rules", "r", nil,
		"config-file parameter set (overrides file params; repeatable)")
	c.Flags().StringArrayVarP(&params, "params", "p", nil,
		"comma-separated k=v parameters (override file params and rules)")
	c.Flags().StringVarP(&lutName, "lut-name", "L", "",
		`LUT to apply after rendering, as "name[:strength]" (needs the PostRender extension)`)
	c.Flags().BoolVarP(&saveOnServer, "save-on-server", "S", false,
		"also keep the generated images on the server")
	c.Flags().BoolVarP(&dryRun, "dry-run", "n", false,
		"print the request that would be sent instead of generating")
	c.Flags().BoolVarP(&unsharpMask, "unsharp-mask", "u", false,
		"apply an unsharp mask before saving")
	c.Flags().StringVarP(&unsharpParams, "unsharp-params", "U", "0.65/65/5",
		"unsharp parameters as radius/percent/threshold")
	return c
}

// parseUnsharp splits the radius/percent/threshold triple.
func parseUnsharp(spec string) (*domain.UnsharpSpec, error) {
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return nil, fmt.Errorf("unsharp parameters %q are not radius/percent/threshold", spec)
	}
	r, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("unsharp radius %q: %w", parts[0], err)
	}
	p, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("unsharp percent %q: %w", parts[1], err)
	}
	t, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("unsharp threshold %q: %w", parts[2], err)
	}
	return &domain.UnsharpSpec{Radius: r, Percent: p, Threshold: t}, nil
}

// fileExists is shared by the rename and gen paths.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
