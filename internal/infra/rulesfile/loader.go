package rulesfile

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// DefaultFilename is looked up in the user's home directory when no
// explicit path is given.
const DefaultFilename = ".sui.yaml"

// builtinRules ships usable starting points; create ~/.sui.yaml to
// override. The rounding and fix_resolution keys are consumed
// client-side and never forwarded to the server.
const builtinRules = `
# default:
#   host: remoteswarm.example.com
#   port: "9999"
rules:
  sdxl:
    model: sd_xl_base_1.0
    cfgscale: 6.5
    steps: 36
    sidelength: 1024
    rounding: 64
    sampler: dpmpp_2m_sde_gpu
    scheduler: beta
  zit:
    model: z_image_turbo_bf16
    steps: 9
    cfgscale: 1.0
    sidelength: 1024
    rounding: 64
    sampler: euler_ancestral
    scheduler: simple
    sigmashift: 3.0
    fix_resolution: true
  "512":
    sidelength: 512
    rounding: 16
  "768":
    sidelength: 768
    rounding: 16
  2k:
    sidelength: 1472
    rounding: 64
  2x:
    refinercontrolpercentage: 0.4
    refinermethod: PostApply
    refinerupscale: 2.0
    # recommended: model-4xNomosUniDAT_bokeh_jpg_-_v2-0
    refinerupscalemethod: pixel-lanczos
    refinersampler: seeds_2
    refinerscheduler: kl_optimal
    refinerdotiling: true
  vary15:
    variationseed: -1
    variationseedstrength: 0.15
`

// Rules holds the parsed config file: a default section of global
// fallbacks, named rule sets, and named system prompts for the
// enhancement tool.
type Rules struct {
	defaults domain.ParameterSet
	rules    map[string]domain.ParameterSet
	prompts  map[string]string
}

var _ ports.RuleSource = (*Rules)(nil)

type yamlRules struct {
	Default map[string]any            `yaml:"default"`
	Rules   map[string]map[string]any `yaml:"rules"`
	Prompts map[string]string         `yaml:"prompts"`
}

// Load reads the rules file at path, or the builtin defaults when path
// is empty and no ~/.sui.yaml exists.
func Load(path string) (*Rules, error) {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, DefaultFilename)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Parse([]byte(builtinRules))
		}
		return nil, &domain.OpError{
			Op:   "rulesfile.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	r, err := Parse(b)
	if err != nil {
		if oe, ok := err.(*domain.OpError); ok {
			oe.Path = path
		}
		return nil, err
	}
	return r, nil
}

// Parse decodes rules from YAML bytes.
func Parse(b []byte) (*Rules, error) {
	var y yamlRules
	if err := yaml.Unmarshal(b, &y); err != nil {
		return nil, &domain.OpError{
			Op:   "rulesfile.parse",
			Kind: domain.KindInvalidConfig,
			Err:  err,
		}
	}

	r := &Rules{
		defaults: domain.ParameterSet{},
		rules:    map[string]domain.ParameterSet{},
		prompts:  y.Prompts,
	}
	for k, v := range y.Default {
		r.defaults[k] = v
	}
	for name, section := range y.Rules {
		set := domain.ParameterSet{}
		for k, v := range section {
			set[k] = v
		}
		r.rules[name] = set
	}
	return r, nil
}

// Default returns a copy of the global fallback section.
func (r *Rules) Default() domain.ParameterSet {
	return r.defaults.Clone()
}

// Rule returns a copy of the named rule set.
func (r *Rules) Rule(name string) (domain.ParameterSet, bool) {
	set, ok := r.rules[name]
	if !ok {
		return nil, false
	}
	return set.Clone(), true
}

// Prompt returns the named system prompt from the prompts section.
func (r *Rules) Prompt(name string) (string, bool) {
	p, ok := r.prompts[name]
	return p, ok
}

// PromptNames lists the system-prompt names in lexical order.
func (r *Rules) PromptNames() []string {
	names := make([]string, 0, len(r.prompts))
	for name := range r.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names lists the rule names in lexical order (the default section is
// not a rule).
func (r *Rules) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
