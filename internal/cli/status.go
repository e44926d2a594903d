package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

func statusCmd(opts *globalOpts) *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Print server and backend status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := opts.loadRules()
			if err != nil {
				return err
			}
			server := opts.server(rules)
			if err := server.NewSession(cmd.Context()); err != nil {
				return err
			}
			status, backends, err := server.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := indentJSON(out, status); err != nil {
				return err
			}
			return indentJSON(out, backends)
		},
	}
	return c
}

func indentJSON(out io.Writer, raw json.RawMessage) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return dumpJSON(out, v)
}
