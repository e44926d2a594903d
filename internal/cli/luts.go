package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func lutsCmd(opts *globalOpts) *cobra.Command {
	c := &cobra.Command{
		Use:   "luts [search]",
		Short: "List LUTs available through the PostRender extension",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := opts.loadRules()
			if err != nil {
				return err
			}
			server := opts.server(rules)
			if err := server.NewSession(cmd.Context()); err != nil {
				return err
			}
			luts, err := server.ListLUTs(cmd.Context())
			if err != nil {
				return err
			}

			search := ""
			if len(args) > 0 {
				search = strings.ToLower(args[0])
			}
			for _, lut := range luts {
				if search != "" && !strings.Contains(strings.ToLower(lut), search) {
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), lut)
			}
			return nil
		},
	}
	return c
}
