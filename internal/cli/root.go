package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jgreely/genaistuff/internal/infra/logger"
	"github.com/jgreely/genaistuff/internal/infra/rulesfile"
	"github.com/jgreely/genaistuff/internal/infra/swarmapi"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOpts are the root-level flags shared by every subcommand.
type globalOpts struct {
	host          string
	port          string
	aspect        string
	sidelength    string
	fixResolution bool
	jpegOutput    bool
	jpegQuality   int
	template      string
	pre           string
	set           string
	seq           int
	pad           int
	config        string
	debug         bool
}

// rules loads the config file named by --config, or the default.
func (o *globalOpts) loadRules() (*rulesfile.Rules, error) {
	return rulesfile.Load(o.config)
}

// server builds the API client, resolving host/port from flags, the
// config default section, and finally localhost:7801.
func (o *globalOpts) server(rules *rulesfile.Rules) *swarmapi.Client {
	host, port := o.host, o.port
	if rules != nil {
		defaults := rules.Default()
		if host == "" {
			host = defaults.String("host")
		}
		if port == "" {
			port = defaults.String("port")
		}
	}
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "7801"
	}
	return swarmapi.New(host, port, swarmapi.WithLogger(logger.L()))
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	cmd := &cobra.Command{
		Use:          "sui",
		Short:        "sui — batch image generation against a SwarmUI server",
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.Setup(logger.Config{Debug: opts.debug})
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.host, "host", "H", "", "server name or IP address")
	pf.StringVarP(&opts.port, "port", "P", "", "port the server is listening on")
	pf.StringVarP(&opts.aspect, "aspect", "a", "", "aspect ratio as X:Y, or a specific XxY pixel resolution")
	pf.StringVarP(&opts.sidelength, "sidelength", "s", "", `model sidelength as pixels/divisor (default "1024/64")`)
	pf.BoolVarP(&opts.fixResolution, "fix-resolution", "f", false,
		"round resolution up to the nearest /64 and crop back after generating")
	pf.BoolVar(&opts.jpegOutput, "jpeg-output", false,
		"convert generated images to JPEG after all other client-side processing")
	pf.IntVarP(&opts.jpegQuality, "jpeg-quality", "J", 0, "JPEG conversion quality (default 85)")
	pf.StringVarP(&opts.template, "template", "t", "$pre-$set-$seq.$ext",
		"filename template; variables: pre, set, seq, ext, ymd, hms")
	pf.StringVar(&opts.pre, "pre", "genai", `template variable "pre"`)
	pf.StringVar(&opts.set, "set", "img", `template variable "set"`)
	pf.IntVar(&opts.seq, "seq", 1, `template variable "seq" initial value (auto-increments)`)
	pf.IntVar(&opts.pad, "pad", 4, `zero-padding length for "seq"`)
	pf.StringVarP(&opts.config, "config", "c", "", "rules file (default ~/"+rulesfile.DefaultFilename+")")
	pf.BoolVar(&opts.debug, "debug", false, "enable verbose logging on stderr")

	cmd.AddCommand(
		genCmd(opts),
		paramsCmd(opts),
		promptCmd(opts),
		rulesCmd(opts),
		modelsCmd(opts),
		lutsCmd(opts),
		renameCmd(opts),
		jpgCmd(opts),
		statusCmd(opts),
		aspectCmd(),
	)
	return cmd
}
