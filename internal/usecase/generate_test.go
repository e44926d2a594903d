package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

type fakeGenerator struct {
	sessions int
	requests []domain.ParameterSet
	image    []byte
	err      error
}

func (f *fakeGenerator) NewSession(context.Context) error {
	f.sessions++
	return nil
}

func (f *fakeGenerator) Generate(_ context.Context, params domain.ParameterSet) ([]byte, error) {
	f.requests = append(f.requests, params.Clone())
	if f.err != nil {
		return nil, f.err
	}
	if f.image == nil {
		return []byte("image"), nil
	}
	return f.image, nil
}

type fakeCatalog struct {
	base  []string
	loras []string
	luts  []string
	calls map[ports.ModelKind]int
}

func (f *fakeCatalog) ListModels(_ context.Context, kind ports.ModelKind) ([]domain.CatalogEntry, error) {
	if f.calls == nil {
		f.calls = map[ports.ModelKind]int{}
	}
	f.calls[kind]++
	var names []string
	switch kind {
	case ports.KindBase:
		names = f.base
	case ports.KindLoRA:
		names = f.loras
	}
	var out []domain.CatalogEntry
	for _, n := range names {
		out = append(out, domain.CatalogEntry{Name: n})
	}
	return out, nil
}

func (f *fakeCatalog) ListLUTs(context.Context) ([]string, error) {
	return f.luts, nil
}

type fakeMetaSource struct {
	params domain.ParameterSet
	err    error
}

func (f *fakeMetaSource) ReadParams(string, bool) (domain.ParameterSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.params.Clone(), nil
}

type fakePost struct {
	specs []domain.PostProcessSpec
	data  [][]byte
	err   error
}

func (f *fakePost) Process(data []byte, spec domain.PostProcessSpec) error {
	f.data = append(f.data, data)
	f.specs = append(f.specs, spec)
	return f.err
}

type fakeRules struct {
	defaults domain.ParameterSet
	rules    map[string]domain.ParameterSet
}

func (f *fakeRules) Default() domain.ParameterSet {
	if f.defaults == nil {
		return domain.ParameterSet{}
	}
	return f.defaults.Clone()
}

func (f *fakeRules) Rule(name string) (domain.ParameterSet, bool) {
	r, ok := f.rules[name]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

func (f *fakeRules) Names() []string { return nil }

func testNamer(t *testing.T, dir string) *domain.Namer {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC) }
	return domain.NewNamer(filepath.Join(dir, "$pre-$set-$seq.$ext"), "genai", "img", 4,
		domain.WithClock(clock))
}

func newGenerate(gen *fakeGenerator, cat *fakeCatalog, meta *fakeMetaSource,
	post *fakePost, rules *fakeRules) *Generate {
	if cat == nil {
		cat = &fakeCatalog{}
	}
	if rules == nil {
		rules = &fakeRules{}
	}
	if meta == nil {
		meta = &fakeMetaSource{}
	}
	return NewGenerate(gen, cat, meta, post, rules, nil)
}

func TestRunLiteralPrompt(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	post := &fakePost{}
	g := newGenerate(gen, nil, nil, post, nil)

	in := GenerateInput{
		Sources: []string{"a quiet harbor"},
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if gen.sessions != 1 {
		t.Errorf("sessions = %d, want 1", gen.sessions)
	}
	if len(gen.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(gen.requests))
	}
	req := gen.requests[0]
	if req.String("prompt") != "a quiet harbor" {
		t.Errorf("prompt = %q", req.String("prompt"))
	}
	if !req.Bool("donotsave") {
		t.Error("donotsave not set without --save-on-server")
	}
	if len(post.specs) != 1 {
		t.Fatalf("post calls = %d, want 1", len(post.specs))
	}
	if got := filepath.Base(post.specs[0].SavePath); got != "genai-img-0001.png" {
		t.Errorf("save path = %s", got)
	}
	if !strings.Contains(post.specs[0].Meta, "sui_image_params") {
		t.Errorf("provenance envelope missing: %s", post.specs[0].Meta)
	}
	if strings.Contains(post.specs[0].Meta, "donotsave") {
		t.Error("provenance leaked donotsave")
	}
}

func TestRunStdinPrompts(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	post := &fakePost{}
	g := newGenerate(gen, nil, nil, post, nil)

	in := GenerateInput{
		Stdin: strings.NewReader("first prompt\nsecond prompt\n"),
		Namer: testNamer(t, dir),
		Seq:   1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(gen.requests))
	}
	if gen.requests[1].String("prompt") != "second prompt" {
		t.Errorf("second prompt = %q", gen.requests[1].String("prompt"))
	}
	if filepath.Base(post.specs[1].SavePath) != "genai-img-0002.png" {
		t.Errorf("second save path = %s", post.specs[1].SavePath)
	}
}

func TestRunRulesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	rules := &fakeRules{
		defaults: domain.ParameterSet{"seed": -1},
		rules: map[string]domain.ParameterSet{
			"sdxl": {"steps": 36, "cfgscale": 6.5},
			"fast": {"steps": 9},
		},
	}
	g := newGenerate(gen, nil, nil, &fakePost{}, rules)

	in := GenerateInput{
		Sources:   []string{"x"},
		Rules:     []string{"sdxl,fast"},
		Overrides: []string{"cfgscale=3.0,seed=unset"},
		Namer:     testNamer(t, dir),
		Seq:       1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := gen.requests[0]
	if req.String("steps") != "9" {
		t.Errorf("later rule should win: steps = %v", req["steps"])
	}
	if req.String("cfgscale") != "3.0" {
		t.Errorf("override should win: cfgscale = %v", req["cfgscale"])
	}
	if _, ok := req["seed"]; ok {
		t.Error("seed=unset did not delete the default")
	}
}

func TestRunUnknownRuleAborts(t *testing.T) {
	dir := t.TempDir()
	g := newGenerate(&fakeGenerator{}, nil, nil, &fakePost{}, &fakeRules{})

	in := GenerateInput{
		Sources: []string{"x"},
		Rules:   []string{"nope"},
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	err := g.Run(context.Background(), in)
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("err = %v, want not-found kind", err)
	}
}

func TestRunResolvesModelAndLoRAs(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	cat := &fakeCatalog{
		base:  []string{"OfficialStableDiffusion/sd_xl_base_1.0", "flux-dev"},
		loras: []string{"styles/watercolor", "styles/lineart"},
	}
	g := newGenerate(gen, cat, nil, &fakePost{}, nil)

	in := GenerateInput{
		Sources: []string{"x", "y"},
		Model:   "xl_base",
		LoRAs:   []string{"watercolor:0.8:base", "lineart"},
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := gen.requests[0]
	if req.String("model") != "OfficialStableDiffusion/sd_xl_base_1.0" {
		t.Errorf("model = %q", req.String("model"))
	}
	loras := req.StringList("loras")
	if len(loras) != 2 || loras[0] != "styles/watercolor" {
		t.Errorf("loras = %v", loras)
	}
	weights := req.StringList("loraweights")
	if len(weights) != 2 || weights[0] != "0.8" || weights[1] != "1" {
		t.Errorf("loraweights = %v", weights)
	}
	confine := req.StringList("lorasectionconfinement")
	if len(confine) != 2 || confine[0] != domain.ConfineBase || confine[1] != domain.ConfineGlobal {
		t.Errorf("confinement = %v", confine)
	}

	// catalog listings are fetched once per run, not per image
	if cat.calls[ports.KindBase] != 1 || cat.calls[ports.KindLoRA] != 1 {
		t.Errorf("catalog calls = %v, want one per kind", cat.calls)
	}
}

func TestRunLUT(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	cat := &fakeCatalog{luts: []string{"cine-warm", "noir"}}
	g := newGenerate(gen, cat, nil, &fakePost{}, nil)

	in := GenerateInput{
		Sources: []string{"x"},
		LUT:     "cine:0.5",
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	req := gen.requests[0]
	if req.String("lutname") != "cine-warm" {
		t.Errorf("lutname = %q", req.String("lutname"))
	}
	if req.String("lutlutstrength") != "0.5" {
		t.Errorf("lutlutstrength = %v", req["lutlutstrength"])
	}
	if v, ok := req["lutlogspace"].(bool); !ok || v {
		t.Errorf("lutlogspace = %v", req["lutlogspace"])
	}
}

func TestRunAspectAndFixResolution(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	post := &fakePost{}
	g := newGenerate(gen, nil, nil, post, nil)

	in := GenerateInput{
		Sources:       []string{"x"},
		Aspect:        "1000x1000",
		FixResolution: true,
		Namer:         testNamer(t, dir),
		Seq:           1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := gen.requests[0]
	if req.String("width") != "1024" || req.String("height") != "1024" {
		t.Errorf("padded dims = %vx%v, want 1024x1024", req["width"], req["height"])
	}
	crop := post.specs[0].Crop
	want := domain.CropBox{Left: 12, Top: 12, Right: 1012, Bottom: 1012}
	if crop != want {
		t.Errorf("crop = %+v, want %+v", crop, want)
	}
}

func TestRunAspectFromRuleSidelength(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	rules := &fakeRules{rules: map[string]domain.ParameterSet{
		"sdxl": {"sidelength": 1024, "rounding": 64},
	}}
	g := newGenerate(gen, nil, nil, &fakePost{}, rules)

	in := GenerateInput{
		Sources: []string{"x"},
		Rules:   []string{"sdxl"},
		Aspect:  "16:9",
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	req := gen.requests[0]
	if req.String("width") != "1344" || req.String("height") != "768" {
		t.Errorf("dims = %vx%v, want 1344x768", req["width"], req["height"])
	}
}

func TestRunRegenFromFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "earlier.png")
	if err := os.WriteFile(src, []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	gen := &fakeGenerator{}
	post := &fakePost{}
	meta := &fakeMetaSource{params: domain.ParameterSet{
		"prompt":      "original prompt",
		"imageformat": "JPG",
		"donotsave":   true,
		"seed":        12345,
	}}
	g := newGenerate(gen, nil, meta, post, nil)

	in := GenerateInput{
		Sources: []string{src},
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}

	req := gen.requests[0]
	if req.String("prompt") != "original prompt" {
		t.Errorf("prompt = %q", req.String("prompt"))
	}
	if _, ok := req["imageformat"]; ok {
		t.Error("previous gen's imageformat survived")
	}
	if post.specs[0].Source != "earlier.png" {
		t.Errorf("provenance source = %q", post.specs[0].Source)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	post := &fakePost{}
	g := newGenerate(gen, nil, nil, post, nil)

	var buf bytes.Buffer
	in := GenerateInput{
		Sources:   []string{"x"},
		DryRun:    true,
		DryRunOut: &buf,
		Namer:     testNamer(t, dir),
		Seq:       1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.requests) != 0 || len(post.specs) != 0 {
		t.Error("dry run must not generate or save")
	}
	if !strings.Contains(buf.String(), "genai-img-0001.png") {
		t.Errorf("dry run output missing filename: %s", buf.String())
	}
}

func TestRunJPEGOutput(t *testing.T) {
	dir := t.TempDir()
	post := &fakePost{}
	g := newGenerate(&fakeGenerator{}, nil, nil, post, nil)

	in := GenerateInput{
		Sources:     []string{"x"},
		JPEG:        true,
		JPEGQuality: 92,
		Namer:       testNamer(t, dir),
		Seq:         1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	spec := post.specs[0]
	if filepath.Ext(spec.SavePath) != ".jpg" {
		t.Errorf("save path = %s, want .jpg", spec.SavePath)
	}
	if spec.JPEG == nil || spec.JPEG.Quality != 92 {
		t.Errorf("jpeg spec = %+v", spec.JPEG)
	}
}

func TestRunSaveFailureContinues(t *testing.T) {
	dir := t.TempDir()
	gen := &fakeGenerator{}
	post := &fakePost{err: &domain.OpError{Op: "meta.write", Kind: domain.KindMetadata, Err: os.ErrPermission}}
	g := newGenerate(gen, nil, nil, post, nil)

	in := GenerateInput{
		Sources: []string{"a", "b"},
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	if err := g.Run(context.Background(), in); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(gen.requests) != 2 {
		t.Errorf("requests = %d, want 2 (metadata failure must not abort)", len(gen.requests))
	}
}

func TestRunAmbiguousModelAborts(t *testing.T) {
	dir := t.TempDir()
	cat := &fakeCatalog{base: []string{"sd_xl_base", "sd_xl_turbo"}}
	g := newGenerate(&fakeGenerator{}, cat, nil, &fakePost{}, nil)

	in := GenerateInput{
		Sources: []string{"x"},
		Model:   "xl",
		Namer:   testNamer(t, dir),
		Seq:     1,
	}
	err := g.Run(context.Background(), in)
	if !domain.IsKind(err, domain.KindAmbiguous) {
		t.Fatalf("err = %v, want ambiguous kind", err)
	}
}

func TestProvenanceWireForm(t *testing.T) {
	params := domain.ParameterSet{
		"prompt":    "x",
		"loras":     []string{"a", "b"},
		"donotsave": true,
		"rounding":  64,
	}
	var envelope map[string]map[string]any
	if err := json.Unmarshal([]byte(provenance(params)), &envelope); err != nil {
		t.Fatalf("provenance is not JSON: %v", err)
	}
	inner := envelope["sui_image_params"]
	if inner["loras"] != "a,b" {
		t.Errorf("loras = %v, want wire form", inner["loras"])
	}
	if _, ok := inner["rounding"]; ok {
		t.Error("internal key in provenance")
	}
}
