package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/domain"
)

func renameCmd(opts *globalOpts) *cobra.Command {
	var dryRun bool

	c := &cobra.Command{
		Use:   "rename [files...]",
		Short: "Rename files to the sequenced template, preserving extensions",
		RunE: func(cmd *cobra.Command, args []string) error {
			namer := domain.NewNamer(opts.template, opts.pre, opts.set, opts.pad)
			seq := opts.seq
			for _, file := range args {
				ext := strings.TrimPrefix(filepath.Ext(file), ".")
				var outname string
				outname, seq = namer.Next(seq, ext, fileExists)
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", file, outname)
					continue
				}
				if err := os.Rename(file, outname); err != nil {
					return fmt.Errorf("rename %q to %q: %w", file, outname, err)
				}
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "just print the before/after filenames")
	return c
}
