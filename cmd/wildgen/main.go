package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/infra/wildcards"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var count int
	var directory string
	var listWildcards bool
	var verbose bool
	var dumpAll bool
	var tee bool

	cmd := &cobra.Command{
		Use:   "wildgen [prompt ...]",
		Short: "wildgen — expand dynamic prompts into random variations",
		Long: `Expands {a|b|c} variant groups and __name__ wildcard-file references
into random prompts, for generation software that doesn't support them
directly. Generate a few hundred into a file and use it as a SwarmUI
wildcard with Seed Behavior set to 'Index'.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := wildcards.LoadDir(directory)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if listWildcards {
				for _, name := range m.Names() {
					if verbose {
						fmt.Fprintln(out, name)
						continue
					}
					values, _ := m.Values(name)
					printed := false
					for _, val := range values {
						if !wildcards.HasReference(val) {
							continue
						}
						if !printed {
							fmt.Fprintln(out, name)
							printed = true
						}
						fmt.Fprintln(out, "    "+val)
					}
				}
				return nil
			}

			if dumpAll {
				for _, name := range args {
					values, ok := m.Values(name)
					if !ok {
						return fmt.Errorf("no wildcard collection %q", name)
					}
					for _, val := range values {
						fmt.Fprintln(out, val)
					}
				}
				return nil
			}

			gen := wildcards.NewGenerator(m)
			for _, prompt := range args {
				for _, result := range gen.Generate(prompt, count) {
					line := wildcards.Normalize(result)
					fmt.Fprintln(out, line)
					if tee {
						fmt.Fprintln(cmd.ErrOrStderr(), line)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "c", 1, "number of prompts to generate")
	cmd.Flags().StringVarP(&directory, "directory", "d", ".", "directory to load wildcard files from")
	cmd.Flags().BoolVarP(&listWildcards, "wildcards", "w", false, "list collections containing wildcard references")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "with -w, list all collections")
	cmd.Flags().BoolVarP(&dumpAll, "all", "a", false, "dump all values for the named collections")
	cmd.Flags().BoolVarP(&tee, "tee", "t", false, "copy output to stderr, so you can watch it and pipe it")
	return cmd
}
