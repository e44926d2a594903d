package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func rulesCmd(opts *globalOpts) *cobra.Command {
	var verbose bool

	c := &cobra.Command{
		Use:   "rules",
		Short: "List the rules defined in the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := opts.loadRules()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range rules.Names() {
				if !verbose {
					fmt.Fprintln(out, name)
					continue
				}
				fmt.Fprintf(out, "[%s]\n", name)
				set, _ := rules.Rule(name)
				for _, k := range set.SortedKeys() {
					fmt.Fprintf(out, "%s=%v\n", k, set[k])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the contents of every rule")
	return c
}
