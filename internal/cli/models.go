package cli

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// civitaiRE pulls the model's homepage out of the description HTML the
// server passes through from the model file.
var civitaiRE = regexp.MustCompile(`(https://civitai\.com/[^"]+)"`)

func modelsCmd(opts *globalOpts) *cobra.Command {
	var modelType string
	var verbose bool

	c := &cobra.Command{
		Use:   "models [search]",
		Short: "List models available on the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := modelKind(modelType)
			if err != nil {
				return err
			}

			rules, err := opts.loadRules()
			if err != nil {
				return err
			}
			server := opts.server(rules)
			if err := server.NewSession(cmd.Context()); err != nil {
				return err
			}
			entries, err := server.ListModels(cmd.Context(), kind)
			if err != nil {
				return err
			}

			search := ""
			if len(args) > 0 {
				search = strings.ToLower(args[0])
			}
			out := cmd.OutOrStdout()
			for _, m := range entries {
				if search != "" && !matchesModel(m, search) {
					continue
				}
				if !verbose {
					fmt.Fprintln(out, strings.TrimSuffix(m.Name, ".safetensors"))
					continue
				}
				fmt.Fprintln(out, m.Title)
				for _, kv := range [][2]string{
					{"name", m.Name},
					{"architecture", m.Architecture},
					{"compat_class", m.CompatClass},
					{"resolution", m.Resolution},
				} {
					if kv[1] != "" {
						fmt.Fprintf(out, "    %s=%s\n", kv[0], kv[1])
					}
				}
				if url := civitaiRE.FindStringSubmatch(m.Description); url != nil {
					fmt.Fprintf(out, "    url=%s\n", url[1])
				}
			}
			return nil
		},
	}

	c.Flags().StringVarP(&modelType, "type", "T", "base", "model type: base, lora, or vae")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "print more detail about each model")
	return c
}

func modelKind(t string) (ports.ModelKind, error) {
	switch t {
	case "base":
		return ports.KindBase, nil
	case "lora":
		return ports.KindLoRA, nil
	case "vae":
		return ports.KindVAE, nil
	default:
		return "", fmt.Errorf("model type %q must be base, lora, or vae", t)
	}
}

func matchesModel(m domain.CatalogEntry, search string) bool {
	for _, field := range []string{m.Name, m.Architecture, m.CompatClass} {
		if field != "" && strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}
