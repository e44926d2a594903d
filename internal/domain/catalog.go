package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CatalogEntry is one server-side model record. Only Name is guaranteed;
// the remaining fields are present for base models and LUTs.
type CatalogEntry struct {
	Name         string
	Title        string
	Architecture string
	CompatClass  string
	Resolution   string
	Description  string
}

// Names projects a catalog onto its entry names, preserving order.
func Names(catalog []CatalogEntry) []string {
	out := make([]string, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e.Name)
	}
	return out
}

// ResolveRef resolves a case-insensitive substring reference against a
// list of catalog names. Exactly one match succeeds; zero or several are
// errors that abort the whole invocation. kind only shapes the message.
func ResolveRef(query string, names []string, kind string) (string, error) {
	q := strings.ToLower(query)
	var matches []string
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), q) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", &OpError{
			Op:   "catalog.resolve",
			Kind: KindNotFound,
			Err:  fmt.Errorf("%s %q not found on server", kind, query),
		}
	default:
		return "", &OpError{
			Op:   "catalog.resolve",
			Kind: KindAmbiguous,
			Err:  fmt.Errorf("ambiguous %s %q, matches:\n  %s", kind, query, strings.Join(matches, "\n  ")),
		}
	}
}

// Section confinement wire codes: a LoRA applies globally unless
// restricted to the base or refinement stage.
const (
	ConfineGlobal = "0"
	ConfineRefine = "1"
	ConfineBase   = "5"
)

// LoRARef is a parsed command-line LoRA reference:
// "name[:weight[:section]]" with section "base" or "refine".
type LoRARef struct {
	Query   string
	Weight  string
	Confine string // one of the Confine* codes
}

// ParseLoRARef splits and validates the optional suffixes before any
// catalog matching happens.
func ParseLoRARef(ref string) (LoRARef, error) {
	out := LoRARef{Weight: "1", Confine: ConfineGlobal}
	parts := strings.Split(ref, ":")
	out.Query = parts[0]
	if out.Query == "" {
		return LoRARef{}, &OpError{
			Op:   "catalog.lora",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("empty LoRA name in %q", ref),
		}
	}
	if len(parts) > 3 {
		return LoRARef{}, &OpError{
			Op:   "catalog.lora",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("LoRA reference %q has too many fields", ref),
		}
	}
	if len(parts) > 1 {
		w := parts[1]
		if _, err := strconv.ParseFloat(w, 64); err != nil {
			return LoRARef{}, &OpError{
				Op:   "catalog.lora",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("LoRA weight %q in %q is not a number", w, ref),
			}
		}
		out.Weight = w
	}
	if len(parts) > 2 {
		switch parts[2] {
		case "base":
			out.Confine = ConfineBase
		case "refine":
			out.Confine = ConfineRefine
		default:
			return LoRARef{}, &OpError{
				Op:   "catalog.lora",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("LoRA section %q in %q must be base or refine", parts[2], ref),
			}
		}
	}
	return out, nil
}

// ApplyLoRAs resolves refs against the catalog names and merges them into
// the three parallel ordered sequences on params: loras, loraweights,
// lorasectionconfinement. Refs whose resolved name is already listed (a
// re-gen from embedded metadata) are skipped. The confinement sequence is
// emitted only when at least one entry, new or pre-existing, is confined.
func ApplyLoRAs(params ParameterSet, refs []LoRARef, names []string) error {
	loras := params.StringList("loras")
	weights := params.StringList("loraweights")
	confine := params.StringList("lorasectionconfinement")

	// Pre-existing entries without confinement info apply globally.
	for len(confine) < len(loras) {
		confine = append(confine, ConfineGlobal)
	}

	for _, ref := range refs {
		full, err := ResolveRef(ref.Query, names, "LoRA")
		if err != nil {
			return err
		}
		if contains(loras, full) {
			continue
		}
		loras = append(loras, full)
		weights = append(weights, ref.Weight)
		confine = append(confine, ref.Confine)
	}

	if len(loras) == 0 {
		return nil
	}
	params["loras"] = loras
	params["loraweights"] = weights

	confined := false
	for _, c := range confine {
		if c != ConfineGlobal {
			confined = true
			break
		}
	}
	if confined {
		params["lorasectionconfinement"] = confine
	} else {
		delete(params, "lorasectionconfinement")
	}
	return nil
}

// LUTRef is a parsed "name[:strength]" LUT reference.
type LUTRef struct {
	Query    string
	Strength string
}

// ParseLUTRef splits the optional strength suffix.
func ParseLUTRef(ref string) (LUTRef, error) {
	out := LUTRef{Strength: "1.0"}
	if i := strings.IndexByte(ref, ':'); i >= 0 {
		out.Query = ref[:i]
		s := ref[i+1:]
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return LUTRef{}, &OpError{
				Op:   "catalog.lut",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("LUT strength %q in %q is not a number", s, ref),
			}
		}
		out.Strength = s
	} else {
		out.Query = ref
	}
	if out.Query == "" {
		return LUTRef{}, &OpError{
			Op:   "catalog.lut",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("empty LUT name in %q", ref),
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, it := range list {
		if it == v {
			return true
		}
	}
	return false
}
