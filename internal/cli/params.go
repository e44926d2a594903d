package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/infra/imagemeta"
	"github.com/jgreely/genaistuff/internal/infra/logger"
)

func paramsCmd(_ *globalOpts) *cobra.Command {
	var jsonOutput bool
	var verbose bool
	var promptOnly bool

	c := &cobra.Command{
		Use:   "params [files...]",
		Short: "Dump generation parameters from JSON, PNG, and JPG files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				jsonOutput = true
			}

			tool, err := imagemeta.NewTool()
			if err != nil {
				return err
			}
			defer tool.Close()

			out := cmd.OutOrStdout()
			var collected []domain.ParameterSet
			for _, file := range args {
				params, err := tool.ReadParams(file, verbose)
				if err != nil {
					logger.L().Error("params.read", "file", file, "error", err)
					continue
				}
				switch {
				case promptOnly:
					fmt.Fprintln(out, params.String("prompt"))
				case jsonOutput:
					params["_filename"] = file
					collected = append(collected, params)
				default:
					fmt.Fprintf(out, "filename=%s\n", file)
					for _, k := range params.SortedKeys() {
						fmt.Fprintf(out, "%s=%v\n", k, params[k])
					}
					if len(args) > 1 {
						fmt.Fprintln(out)
					}
				}
			}

			if len(collected) == 1 {
				return dumpJSON(out, collected[0])
			}
			if len(collected) > 1 {
				return dumpJSON(out, collected)
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&jsonOutput, "json", "j", false, "JSON output instead of k=v")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "include all metadata; implies --json")
	c.Flags().BoolVarP(&promptOnly, "prompt", "p", false, "print just the prompt(s), one per line")
	return c
}

func promptCmd(opts *globalOpts) *cobra.Command {
	c := &cobra.Command{
		Use:   "prompt [files...]",
		Short: `Shortcut for "params --prompt"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := imagemeta.NewTool()
			if err != nil {
				return err
			}
			defer tool.Close()

			for _, file := range args {
				params, err := tool.ReadParams(file, false)
				if err != nil {
					logger.L().Error("params.read", "file", file, "error", err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), params.String("prompt"))
			}
			return nil
		},
	}
	return c
}

func dumpJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = out.Write(b)
	return err
}
