package domain

import (
	"reflect"
	"testing"
)

func TestMergeParamsLastWriterWins(t *testing.T) {
	out := MergeParams(
		ParameterSet{"a": 1, "b": 2},
		ParameterSet{"b": "unset"},
		ParameterSet{"c": 3},
	)
	want := ParameterSet{"a": 1, "c": 3}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("merge = %v, want %v", out, want)
	}
}

func TestMergeParamsUnsetWithoutPriorKey(t *testing.T) {
	// Unset for a key never seen leaves nothing behind.
	out := MergeParams(ParameterSet{"a": Unset})
	if _, ok := out["a"]; ok {
		t.Fatalf("expected a absent, got %v", out)
	}
}

func TestMergeParamsSourcesNotMutated(t *testing.T) {
	first := ParameterSet{"steps": 20}
	second := ParameterSet{"steps": 36}
	out := MergeParams(first, second)

	if first["steps"] != 20 {
		t.Fatalf("source set mutated: %v", first)
	}
	if out["steps"] != 36 {
		t.Fatalf("later set should win: %v", out)
	}
}

func TestStripInternal(t *testing.T) {
	p := ParameterSet{
		"prompt":         "a cat",
		"rounding":       64,
		"fix_resolution": true,
		"host":           "localhost",
		"port":           "7801",
		"swarm_version":  "0.9.5",
	}
	p.StripInternal()
	if len(p) != 1 || p["prompt"] != "a cat" {
		t.Fatalf("internal keys should be gone, got %v", p)
	}
}

func TestEncodeDecodeWire(t *testing.T) {
	p := ParameterSet{
		"prompt":      "a cat",
		"loras":       []string{"zelda", "pixel"},
		"loraweights": []string{"0.8", "1"},
	}

	wire := p.EncodeWire()
	if wire["loras"] != "zelda,pixel" {
		t.Fatalf("loras not joined: %v", wire["loras"])
	}
	if wire["loraweights"] != "0.8,1" {
		t.Fatalf("loraweights not joined: %v", wire["loraweights"])
	}
	// The original keeps its slices.
	if _, ok := p["loras"].([]string); !ok {
		t.Fatalf("EncodeWire mutated its receiver: %v", p)
	}

	wire.DecodeWire()
	if !reflect.DeepEqual(wire["loras"], []string{"zelda", "pixel"}) {
		t.Fatalf("round trip lost lora names: %v", wire["loras"])
	}
	if !reflect.DeepEqual(wire["loraweights"], []string{"0.8", "1"}) {
		t.Fatalf("round trip lost weights: %v", wire["loraweights"])
	}
}

func TestStringListNormalizesJSONValues(t *testing.T) {
	// JSON decoding produces []any; metadata files produce comma strings.
	p := ParameterSet{
		"loras":       []any{"a", "b"},
		"loraweights": "0.5,1",
	}
	if got := p.StringList("loras"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("from []any: %v", got)
	}
	if got := p.StringList("loraweights"); !reflect.DeepEqual(got, []string{"0.5", "1"}) {
		t.Fatalf("from comma string: %v", got)
	}
	if got := p.StringList("missing"); got != nil {
		t.Fatalf("missing key should be nil, got %v", got)
	}
}

func TestBool(t *testing.T) {
	p := ParameterSet{
		"a": true,
		"b": "true",
		"c": "false",
		"d": 0,
		"e": "yes",
	}
	for k, want := range map[string]bool{"a": true, "b": true, "c": false, "d": false, "e": true, "zz": false} {
		if got := p.Bool(k); got != want {
			t.Errorf("Bool(%q) = %v, want %v", k, got, want)
		}
	}
}
