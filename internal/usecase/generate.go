package usecase

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// Generate drives the per-prompt render loop: assemble parameters,
// resolve catalog references, fix dimensions, call the server, and
// post-process the result into a sequenced output file.
type Generate struct {
	gen     ports.Generator
	catalog ports.Catalog
	meta    ports.MetadataSource
	post    ports.PostProcessor
	rules   ports.RuleSource
	logger  *slog.Logger

	// catalog names are fetched once per run, on first use
	baseNames []string
	loraNames []string
	lutNames  []string
}

// NewGenerate wires a Generate from its ports.
func NewGenerate(gen ports.Generator, catalog ports.Catalog, meta ports.MetadataSource,
	post ports.PostProcessor, rules ports.RuleSource, logger *slog.Logger) *Generate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generate{
		gen:     gen,
		catalog: catalog,
		meta:    meta,
		post:    post,
		rules:   rules,
		logger:  logger,
	}
}

// GenerateInput carries one invocation's worth of options. Sources are
// filenames (re-gen from embedded metadata) or literal prompts; when
// empty, prompts are read line by line from Stdin.
type GenerateInput struct {
	Sources []string
	Stdin   io.Reader

	Model     string
	LoRAs     []string
	Rules     []string
	Overrides []string
	LUT       string

	Aspect        string
	SideLength    string
	FixResolution bool

	Unsharp      *domain.UnsharpSpec
	JPEG         bool
	JPEGQuality  int
	SaveOnServer bool
	DryRun       bool
	DryRunOut    io.Writer

	Namer *domain.Namer
	Seq   int
}

// Run generates one image per source. Parameter, catalog, and dimension
// failures abort the run; a failure while saving or embedding metadata
// is logged and the loop continues with the next source.
func (g *Generate) Run(ctx context.Context, in GenerateInput) error {
	if err := g.gen.NewSession(ctx); err != nil {
		return err
	}

	seq := in.Seq
	handle := func(source string) error {
		name, nextSeq, err := g.one(ctx, in, source, seq)
		if err != nil {
			if domain.Fatal(err) {
				return err
			}
			g.logger.Error("gen.item", "source", source, "error", err)
			seq++
			return nil
		}
		g.logger.Info("gen.saved", "file", name)
		seq = nextSeq
		return nil
	}

	if len(in.Sources) > 0 {
		for _, source := range in.Sources {
			if err := handle(source); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(in.Stdin)
	for scanner.Scan() {
		if err := handle(scanner.Text()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// one renders a single source and returns the output filename plus the
// next sequence value.
func (g *Generate) one(ctx context.Context, in GenerateInput, source string, seq int) (string, int, error) {
	params, origin, err := g.sourceParams(source)
	if err != nil {
		return "", seq, err
	}
	if err := g.applyOptions(ctx, in, params); err != nil {
		return "", seq, err
	}

	crop, err := g.resolveDimensions(in, params)
	if err != nil {
		return "", seq, err
	}

	ext := "png"
	if in.JPEG {
		ext = "jpg"
	}
	name, nextSeq := in.Namer.Next(seq, ext, func(p string) bool {
		_, err := os.Stat(p)
		return err == nil
	})

	if in.DryRun {
		out := in.DryRunOut
		if out == nil {
			out = os.Stdout
		}
		fmt.Fprintf(out, "output file: %s\n", name)
		dump, _ := json.MarshalIndent(params.EncodeWire(), "", "    ")
		fmt.Fprintf(out, "%s\n", dump)
		return name, nextSeq, nil
	}

	if !in.SaveOnServer {
		params["donotsave"] = true
	}
	data, err := g.gen.Generate(ctx, params)
	if err != nil {
		return "", seq, err
	}

	spec := domain.PostProcessSpec{
		Meta:     provenance(params),
		Source:   origin,
		Crop:     crop,
		Sharp:    in.Unsharp,
		SavePath: name,
	}
	if in.JPEG {
		spec.JPEG = &domain.JPEGSpec{Quality: in.JPEGQuality}
	}
	if err := g.post.Process(data, spec); err != nil {
		return "", seq, err
	}
	return name, nextSeq, nil
}

// sourceParams builds the starting parameter set for one source: the
// embedded metadata of an existing file, or the source text as the
// prompt. Re-gens record the original basename for the provenance
// document-name field.
func (g *Generate) sourceParams(source string) (domain.ParameterSet, string, error) {
	if fi, err := os.Stat(source); err == nil && fi.Mode().IsRegular() {
		params, err := g.meta.ReadParams(source, false)
		if err != nil {
			return nil, "", err
		}
		// strip the previous gen's requests, to avoid surprises
		delete(params, "imageformat")
		delete(params, "donotsave")
		return params, filepath.Base(source), nil
	}
	return domain.ParameterSet{"prompt": strings.TrimRight(source, "\r\n")}, "", nil
}

// applyOptions layers rules, explicit overrides, and catalog-resolved
// model/LoRA/LUT references onto params, in fixed precedence order.
func (g *Generate) applyOptions(ctx context.Context, in GenerateInput, params domain.ParameterSet) error {
	base := g.rules.Default()
	for k, v := range base {
		if _, ok := params[k]; !ok {
			params[k] = v
		}
	}

	for _, arg := range in.Rules {
		for _, name := range strings.Split(arg, ",") {
			rule, ok := g.rules.Rule(name)
			if !ok {
				return &domain.OpError{
					Op:   "gen.rules",
					Kind: domain.KindNotFound,
					Err:  fmt.Errorf("config file has no rule %q", name),
				}
			}
			merged := domain.MergeParams(params, rule)
			clear(params)
			for k, v := range merged {
				params[k] = v
			}
		}
	}

	for _, arg := range in.Overrides {
		for _, pair := range strings.Split(arg, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || k == "" {
				return &domain.OpError{
					Op:   "gen.params",
					Kind: domain.KindInvalidConfig,
					Err:  fmt.Errorf("parameter %q is not k=v", pair),
				}
			}
			if v == domain.Unset {
				delete(params, k)
				continue
			}
			params[k] = v
		}
	}

	if in.Model != "" {
		names, err := g.baseModelNames(ctx)
		if err != nil {
			return err
		}
		full, err := domain.ResolveRef(in.Model, names, "model")
		if err != nil {
			return err
		}
		params["model"] = full
	}

	if len(in.LoRAs) > 0 {
		refs := make([]domain.LoRARef, 0, len(in.LoRAs))
		for _, raw := range in.LoRAs {
			ref, err := domain.ParseLoRARef(raw)
			if err != nil {
				return err
			}
			refs = append(refs, ref)
		}
		names, err := g.loraModelNames(ctx)
		if err != nil {
			return err
		}
		if err := domain.ApplyLoRAs(params, refs, names); err != nil {
			return err
		}
	}

	if in.LUT != "" {
		ref, err := domain.ParseLUTRef(in.LUT)
		if err != nil {
			return err
		}
		luts, err := g.lutList(ctx)
		if err != nil {
			return err
		}
		full, err := domain.ResolveRef(ref.Query, luts, "LUT")
		if err != nil {
			return err
		}
		params["lutname"] = full
		params["lutlutstrength"] = ref.Strength
		params["lutlogspace"] = false
	}
	return nil
}

// resolveDimensions applies the aspect calculation and the optional
// fix-resolution pass, returning the crop box that recovers the
// requested area (empty when nothing to recover).
func (g *Generate) resolveDimensions(in GenerateInput, params domain.ParameterSet) (domain.CropBox, error) {
	if in.Aspect != "" {
		spec := in.SideLength
		if spec == "" {
			spec = params.String("sidelength")
			if r := params.String("rounding"); spec != "" && r != "" && !strings.Contains(spec, "/") {
				spec += "/" + r
			}
		}
		if spec == "" {
			spec = "1024/64"
		}
		side, rounding, err := domain.ParseSideLength(spec)
		if err != nil {
			return domain.CropBox{}, err
		}
		dims, err := domain.ResolveDimensions(in.Aspect, side, rounding)
		if err != nil {
			return domain.CropBox{}, err
		}
		params["width"] = dims.Width
		params["height"] = dims.Height
	}

	if !in.FixResolution && !params.Bool("fix_resolution") {
		return domain.CropBox{}, nil
	}
	width := atoiDefault(params.String("width"), 0)
	height := atoiDefault(params.String("height"), 0)
	if width <= 0 || height <= 0 {
		return domain.CropBox{}, &domain.OpError{
			Op:   "gen.fixres",
			Kind: domain.KindInvalidConfig,
			Err:  fmt.Errorf("fix_resolution requires explicit width and height"),
		}
	}
	upscale := 0.0
	if u := params.String("refinerupscale"); u != "" {
		fmt.Sscanf(u, "%g", &upscale)
	}
	newW, newH, crop := domain.CompensateResolution(width, height, upscale)
	params["width"] = newW
	params["height"] = newH
	return crop, nil
}

func (g *Generate) baseModelNames(ctx context.Context) ([]string, error) {
	if g.baseNames == nil {
		entries, err := g.catalog.ListModels(ctx, ports.KindBase)
		if err != nil {
			return nil, err
		}
		g.baseNames = domain.Names(entries)
	}
	return g.baseNames, nil
}

func (g *Generate) loraModelNames(ctx context.Context) ([]string, error) {
	if g.loraNames == nil {
		entries, err := g.catalog.ListModels(ctx, ports.KindLoRA)
		if err != nil {
			return nil, err
		}
		g.loraNames = domain.Names(entries)
	}
	return g.loraNames, nil
}

func (g *Generate) lutList(ctx context.Context) ([]string, error) {
	if g.lutNames == nil {
		luts, err := g.catalog.ListLUTs(ctx)
		if err != nil {
			return nil, err
		}
		g.lutNames = luts
	}
	return g.lutNames, nil
}

// provenance renders the wire-form parameters as the metadata envelope
// embedded into saved images, so a later re-gen can reconstruct the
// request.
func provenance(params domain.ParameterSet) string {
	wire := params.EncodeWire()
	wire.StripInternal()
	delete(wire, "donotsave")
	envelope := map[string]any{"sui_image_params": map[string]any(wire)}
	b, err := json.Marshal(envelope)
	if err != nil {
		return ""
	}
	return string(b)
}

func atoiDefault(s string, def int) int {
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return def
	}
	return v
}
