package rulesfile

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jgreely/genaistuff/internal/domain"
)

func TestLoadFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "sui.yaml")
	content := `
default:
  host: swarm.example.com
  port: "9999"
rules:
  fast:
    steps: 9
    cfgscale: 1.0
  slow:
    steps: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := r.Default()["host"]; got != "swarm.example.com" {
		t.Fatalf("default host = %v", got)
	}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"fast", "slow"}) {
		t.Fatalf("names = %v", got)
	}

	fast, ok := r.Rule("fast")
	if !ok {
		t.Fatalf("rule fast missing")
	}
	if fast["steps"] != 9 {
		t.Fatalf("steps = %v", fast["steps"])
	}
}

func TestPrompts(t *testing.T) {
	r, err := Parse([]byte(`
prompts:
  default: |
    You rewrite prompts.
  terse: one line
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	p, ok := r.Prompt("default")
	if !ok || p != "You rewrite prompts.\n" {
		t.Fatalf("prompt default = %q, %v", p, ok)
	}
	if _, ok := r.Prompt("missing"); ok {
		t.Fatalf("missing prompt should not resolve")
	}
	if got := r.PromptNames(); !reflect.DeepEqual(got, []string{"default", "terse"}) {
		t.Fatalf("prompt names = %v", got)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindNotFound) {
		t.Fatalf("expected KindNotFound, got: %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "sui.yaml")
	if err := os.WriteFile(path, []byte("rules: [not, a, map]"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected KindInvalidConfig, got: %v", err)
	}
}

func TestBuiltinRules(t *testing.T) {
	r, err := Parse([]byte(builtinRules))
	if err != nil {
		t.Fatalf("builtin rules do not parse: %v", err)
	}

	zit, ok := r.Rule("zit")
	if !ok {
		t.Fatalf("builtin rule zit missing")
	}
	if zit["model"] != "z_image_turbo_bf16" {
		t.Fatalf("zit model = %v", zit["model"])
	}
	if !zit.Bool("fix_resolution") {
		t.Fatalf("zit should request fix_resolution")
	}

	if _, ok := r.Rule("512"); !ok {
		t.Fatalf("numeric rule names must stay strings")
	}
}

func TestRuleReturnsCopy(t *testing.T) {
	r, err := Parse([]byte("rules:\n  a:\n    steps: 1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	set, _ := r.Rule("a")
	set["steps"] = 99

	again, _ := r.Rule("a")
	if again["steps"] != 1 {
		t.Fatalf("rule sets must be immutable, got %v", again["steps"])
	}
}
