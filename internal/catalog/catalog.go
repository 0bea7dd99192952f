// Package catalog loads the segment template catalog: the JSON document that
// names the templates a terrain stream picks from and the forced opening run.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"terrain-streamer/internal/terrain"
)

var (
	// ErrNoTemplates is returned for a catalog without any template entry.
	ErrNoTemplates = errors.New("catalog has no templates")

	// ErrDuplicateName is returned when two templates share a name.
	ErrDuplicateName = errors.New("duplicate template name")

	// ErrUnknownForced is returned when a forced entry names no template.
	ErrUnknownForced = errors.New("forced template not in catalog")

	// ErrInvalidWidth is returned for a missing or non-positive segment width.
	ErrInvalidWidth = errors.New("segment_width must be positive")
)

// Document is the on-disk catalog format.
type Document struct {
	SegmentWidth float64         `json:"segment_width" jsonschema:"required,minimum=0,exclusiveMinimum=true,description=Width shared by every segment template"`
	StartMargin  float64         `json:"start_margin,omitempty" jsonschema:"description=Offset added to the viewport left edge"`
	EndMargin    float64         `json:"end_margin,omitempty" jsonschema:"description=Offset added to the viewport right edge"`
	Templates    []TemplateEntry `json:"templates" jsonschema:"required,minItems=1"`
	Forced       []string        `json:"forced,omitempty" jsonschema:"description=Template names placed in order before random generation"`
}

// TemplateEntry describes one segment template. Payload is handed to the
// renderer untouched.
type TemplateEntry struct {
	Name    string         `json:"name" jsonschema:"required,minLength=1"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses the catalog at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Validate checks the document without building a template set.
func (d *Document) Validate() error {
	if d.SegmentWidth <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidWidth, d.SegmentWidth)
	}
	if len(d.Templates) == 0 {
		return ErrNoTemplates
	}
	names := make(map[string]struct{}, len(d.Templates))
	for i, e := range d.Templates {
		if e.Name == "" {
			return fmt.Errorf("template %d: name is empty", i)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		names[e.Name] = struct{}{}
	}
	for _, name := range d.Forced {
		if _, ok := names[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownForced, name)
		}
	}
	return nil
}

// Config returns the stream configuration declared by the document.
func (d *Document) Config() terrain.Config {
	return terrain.Config{
		SegmentWidth: d.SegmentWidth,
		StartMargin:  d.StartMargin,
		EndMargin:    d.EndMargin,
	}
}

// TemplateSet assigns template identities in document order, starting at 1,
// and resolves forced names to those templates.
func (d *Document) TemplateSet() (terrain.TemplateSet, error) {
	if err := d.Validate(); err != nil {
		return terrain.TemplateSet{}, err
	}

	byName := make(map[string]terrain.Template, len(d.Templates))
	set := terrain.TemplateSet{Templates: make([]terrain.Template, 0, len(d.Templates))}
	for i, e := range d.Templates {
		t := terrain.Template{ID: terrain.TemplateID(i + 1), Name: e.Name, Payload: e.Payload}
		set.Templates = append(set.Templates, t)
		byName[e.Name] = t
	}
	for _, name := range d.Forced {
		set.Forced = append(set.Forced, byName[name])
	}
	return set, nil
}

// Default returns the built-in catalog used when no source is configured.
func Default() *Document {
	return &Document{
		SegmentWidth: 10,
		StartMargin:  -10,
		EndMargin:    20,
		Templates: []TemplateEntry{
			{Name: "flat", Payload: map[string]any{"profile": "__________"}},
			{Name: "gap", Payload: map[string]any{"profile": "____  ____"}},
			{Name: "step", Payload: map[string]any{"profile": "_____-----"}},
			{Name: "pillars", Payload: map[string]any{"profile": "__|__|__|_"}},
		},
		Forced: []string{"flat", "flat"},
	}
}
