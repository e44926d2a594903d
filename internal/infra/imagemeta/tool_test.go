package imagemeta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/barasher/go-exiftool"

	"github.com/jgreely/genaistuff/internal/domain"
)

// fakeExtractor serves canned metadata and records writes.
type fakeExtractor struct {
	fields  map[string]any
	err     error
	written []exiftool.FileMetadata
}

func (f *fakeExtractor) ExtractMetadata(files ...string) []exiftool.FileMetadata {
	out := make([]exiftool.FileMetadata, 0, len(files))
	for _, file := range files {
		out = append(out, exiftool.FileMetadata{File: file, Fields: f.fields, Err: f.err})
	}
	return out
}

func (f *fakeExtractor) WriteMetadata(fms []exiftool.FileMetadata) {
	f.written = append(f.written, fms...)
}

const envelope = `{
	"sui_image_params": {
		"prompt": "tidepools at dawn",
		"loras": "detail,glow",
		"seed": 31337
	},
	"sui_extra_data": {"date": "2025-03-14"}
}`

func TestReadParamsSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0001.json")
	content := `{"prompt": "harbor", "loras": "a,b", "steps": 20}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write sidecar: %v", err)
	}

	tool := &Tool{et: &fakeExtractor{}}
	params, err := tool.ReadParams(path, false)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if params.String("prompt") != "harbor" {
		t.Errorf("prompt = %q", params.String("prompt"))
	}
	loras := params.StringList("loras")
	if len(loras) != 2 || loras[0] != "a" || loras[1] != "b" {
		t.Errorf("loras not decoded: %v", loras)
	}
}

func TestReadParamsImageEnvelope(t *testing.T) {
	tool := &Tool{et: &fakeExtractor{fields: map[string]any{"Parameters": envelope}}}

	params, err := tool.ReadParams("out.png", false)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if params.String("prompt") != "tidepools at dawn" {
		t.Errorf("prompt = %q", params.String("prompt"))
	}
	if _, ok := params["sui_extra_data"]; ok {
		t.Error("envelope not unwrapped")
	}
	loras := params.StringList("loras")
	if len(loras) != 2 || loras[1] != "glow" {
		t.Errorf("loras not decoded: %v", loras)
	}
}

func TestReadParamsImageVerbose(t *testing.T) {
	tool := &Tool{et: &fakeExtractor{fields: map[string]any{"UserComment": envelope}}}

	params, err := tool.ReadParams("out.jpg", true)
	if err != nil {
		t.Fatalf("ReadParams: %v", err)
	}
	if _, ok := params["sui_image_params"]; !ok {
		t.Error("verbose read lost the parameter block")
	}
	if _, ok := params["sui_extra_data"]; !ok {
		t.Error("verbose read lost the extra-data block")
	}
}

func TestReadParamsMissingField(t *testing.T) {
	tool := &Tool{et: &fakeExtractor{fields: map[string]any{"ImageWidth": 1024}}}

	_, err := tool.ReadParams("plain.png", false)
	if !domain.IsKind(err, domain.KindMetadata) {
		t.Fatalf("err = %v, want metadata kind", err)
	}
}

func TestReadParamsUnsupportedType(t *testing.T) {
	tool := &Tool{et: &fakeExtractor{}}
	_, err := tool.ReadParams("notes.txt", false)
	if !domain.IsKind(err, domain.KindMetadata) {
		t.Fatalf("err = %v, want metadata kind", err)
	}
}

func TestWriteProvenanceJPEG(t *testing.T) {
	fake := &fakeExtractor{}
	tool := &Tool{et: fake}

	if err := tool.WriteProvenance("out.jpg", `{"prompt":"x"}`, "0001.png"); err != nil {
		t.Fatalf("WriteProvenance: %v", err)
	}
	if len(fake.written) != 1 {
		t.Fatalf("wrote %d files, want 1", len(fake.written))
	}
	fields := fake.written[0].Fields
	if fields["EXIF:UserComment"] != `{"prompt":"x"}` {
		t.Errorf("UserComment = %v", fields["EXIF:UserComment"])
	}
	if fields["EXIF:DocumentName"] != "0001.png" {
		t.Errorf("DocumentName = %v", fields["EXIF:DocumentName"])
	}
}

func TestWriteProvenancePNG(t *testing.T) {
	fake := &fakeExtractor{}
	tool := &Tool{et: fake}

	if err := tool.WriteProvenance("out.png", `{"prompt":"x"}`, "0001.png"); err != nil {
		t.Fatalf("WriteProvenance: %v", err)
	}
	fields := fake.written[0].Fields
	if fields["PNG:Parameters"] != `{"prompt":"x"}` {
		t.Errorf("Parameters = %v", fields["PNG:Parameters"])
	}
	if fields["EXIF:DocumentName"] != "0001.png" {
		t.Errorf("DocumentName = %v", fields["EXIF:DocumentName"])
	}
	if _, ok := fields["EXIF:UserComment"]; ok {
		t.Error("PNG write set the JPEG comment field")
	}
}

func TestWriteProvenanceNothingToWrite(t *testing.T) {
	fake := &fakeExtractor{}
	tool := &Tool{et: fake}

	if err := tool.WriteProvenance("out.png", "", ""); err != nil {
		t.Fatalf("WriteProvenance: %v", err)
	}
	if len(fake.written) != 0 {
		t.Error("empty provenance should not invoke exiftool")
	}
}
