package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"terrain-streamer/internal/terrain"
)

const validDoc = `{
  "segment_width": 12,
  "start_margin": -6,
  "end_margin": 24,
  "templates": [
    {"name": "flat", "payload": {"profile": "____"}},
    {"name": "gap"},
    {"name": "ramp"}
  ],
  "forced": ["flat", "ramp"]
}`

func TestParse_valid(t *testing.T) {
	doc, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg := doc.Config()
	if cfg != (terrain.Config{SegmentWidth: 12, StartMargin: -6, EndMargin: 24}) {
		t.Errorf("Config = %+v", cfg)
	}

	set, err := doc.TemplateSet()
	if err != nil {
		t.Fatalf("TemplateSet: %v", err)
	}
	if len(set.Templates) != 3 {
		t.Fatalf("templates = %d, want 3", len(set.Templates))
	}
	for i, want := range []string{"flat", "gap", "ramp"} {
		if set.Templates[i].Name != want || set.Templates[i].ID != terrain.TemplateID(i+1) {
			t.Errorf("template %d = %v, want %s#%d", i, set.Templates[i], want, i+1)
		}
	}
	if len(set.Forced) != 2 || set.Forced[0].ID != 1 || set.Forced[1].ID != 3 {
		t.Errorf("forced = %v, want flat#1 ramp#3", set.Forced)
	}
	if p, ok := set.Templates[0].Payload.(map[string]any); !ok || p["profile"] != "____" {
		t.Errorf("payload = %#v", set.Templates[0].Payload)
	}
}

func TestParse_errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"zero_width", `{"segment_width": 0, "templates": [{"name": "a"}]}`, ErrInvalidWidth},
		{"no_templates", `{"segment_width": 10, "templates": []}`, ErrNoTemplates},
		{"duplicate", `{"segment_width": 10, "templates": [{"name": "a"}, {"name": "a"}]}`, ErrDuplicateName},
		{"unknown_forced", `{"segment_width": 10, "templates": [{"name": "a"}], "forced": ["b"]}`, ErrUnknownForced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("expected error for malformed json")
	}
	if _, err := Parse([]byte(`{"segment_width": 10, "templates": [{"name": ""}]}`)); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDefault_builds_stream(t *testing.T) {
	doc := Default()
	set, err := doc.TemplateSet()
	if err != nil {
		t.Fatalf("TemplateSet: %v", err)
	}
	s, err := terrain.NewStream(doc.Config(), set, &terrain.SegmentFactory{})
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	if err := s.Start(terrain.Viewport{Left: 0, Right: 80}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestLoad_missing_file(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFetchAndLoad_local_file(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "terrain.json")
	if err := os.WriteFile(src, []byte(validDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(t.TempDir(), "cache")
	doc, err := FetchAndLoad(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("FetchAndLoad: %v", err)
	}
	if doc.SegmentWidth != 12 || len(doc.Templates) != 3 {
		t.Errorf("doc = %+v", doc)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("fetched file missing: %v", err)
	}
}

func TestFetch_missing_source(t *testing.T) {
	src := filepath.Join(t.TempDir(), "absent.json")
	if _, err := Fetch(context.Background(), src, t.TempDir()); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not json: %v", err)
	}
	if doc["title"] != "Terrain Segment Catalog" {
		t.Errorf("title = %v", doc["title"])
	}
	for _, field := range []string{"segment_width", "templates", "forced"} {
		if !strings.Contains(string(data), `"`+field+`"`) {
			t.Errorf("schema missing %s", field)
		}
	}

	props, _ := doc["properties"].(map[string]any)
	width, _ := props["segment_width"].(map[string]any)
	if width["minimum"] != float64(0) || width["exclusiveMinimum"] != true {
		t.Errorf("segment_width bounds = %v, want exclusive minimum 0", width)
	}
}
