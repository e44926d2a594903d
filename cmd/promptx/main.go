package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/infra/lmapi"
	"github.com/jgreely/genaistuff/internal/infra/logger"
	"github.com/jgreely/genaistuff/internal/infra/rulesfile"
)

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var showPrompts bool
	var listModels bool
	var model string
	var temperature float64
	var maxTokens int
	var configPath string
	var debug bool

	cmd := &cobra.Command{
		Use:   "promptx [system-prompt-name]",
		Short: "promptx — rewrite image prompts through a local inference server",
		Long: `Reads prompts on stdin, one per line, and writes rewritten prompts on
stdout. Text outside "@< ... >@" markers is kept verbatim and only the
marked span is rewritten. Named system prompts come from the prompts
section of the config file.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(logger.Config{Debug: debug})

			cfg, err := rulesfile.Load(configPath)
			if err != nil {
				return err
			}

			if showPrompts {
				for _, name := range cfg.PromptNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			defaults := cfg.Default()
			baseURL := defaults.String("lm_url")
			if baseURL == "" {
				baseURL = "http://localhost:1234"
			}
			if model == "" {
				model = defaults.String("lm_model")
			}

			system := lmapi.DefaultSystemPrompt
			if p, ok := cfg.Prompt("default"); ok {
				system = p
			}
			if len(args) > 0 {
				p, ok := cfg.Prompt(args[0])
				if !ok {
					return fmt.Errorf("system prompt %q not found in config file", args[0])
				}
				system = p
			}

			client := lmapi.New(baseURL,
				lmapi.WithModel(model),
				lmapi.WithSystemPrompt(system),
				lmapi.WithTemperature(temperature),
				lmapi.WithMaxTokens(maxTokens),
			)

			if listModels {
				models, err := client.ListModels(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range models {
					fmt.Fprintln(cmd.OutOrStdout(), m)
				}
				return nil
			}

			out := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				rewritten, err := lmapi.Rewrite(cmd.Context(), client, line)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, rewritten)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().BoolVarP(&showPrompts, "show-prompts", "s", false, "list system prompts available in the config file")
	cmd.Flags().BoolVarP(&listModels, "list", "l", false, "list models available on the server")
	cmd.Flags().StringVarP(&model, "model", "m", "", "installed model to use for rewriting")
	cmd.Flags().Float64VarP(&temperature, "temperature", "t", lmapi.DefaultTemperature, "randomness of output (higher = more)")
	cmd.Flags().IntVarP(&maxTokens, "tokens", "T", lmapi.DefaultMaxTokens, "maximum tokens per response")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ~/"+rulesfile.DefaultFilename+")")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable verbose logging on stderr")
	return cmd
}
