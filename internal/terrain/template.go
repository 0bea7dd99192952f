package terrain

import "fmt"

// TemplateID is the stable identity of a segment template. It is assigned when the
// template set is configured and is independent of the display name; the pool is
// keyed by it.
type TemplateID int

// Template is an immutable segment descriptor. Payload carries the visual/content
// data and is never inspected by the stream.
type Template struct {
	ID      TemplateID
	Name    string
	Payload any
}

func (t Template) String() string {
	if t.Name == "" {
		return fmt.Sprintf("template#%d", t.ID)
	}
	return fmt.Sprintf("%s#%d", t.Name, t.ID)
}

// TemplateSet is the ordered collection of templates used for random generation,
// plus an ordered Forced sequence consumed once at startup before random
// generation begins.
type TemplateSet struct {
	Templates []Template
	Forced    []Template
}

// Validate checks that the set can feed a stream. Forced templates may reuse
// identities from Templates, but each identity must map to one template.
func (s TemplateSet) Validate() error {
	if len(s.Templates) == 0 && len(s.Forced) == 0 {
		return ErrNoTemplates
	}

	seen := make(map[TemplateID]string, len(s.Templates))
	for _, t := range s.Templates {
		if name, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: %d used by %q and %q", ErrDuplicateTemplate, t.ID, name, t.Name)
		}
		seen[t.ID] = t.Name
	}
	for _, t := range s.Forced {
		if name, ok := seen[t.ID]; ok && name != t.Name {
			return fmt.Errorf("%w: forced %d is %q, expected %q", ErrDuplicateTemplate, t.ID, t.Name, name)
		}
		seen[t.ID] = t.Name
	}
	return nil
}

// index returns every template of the set keyed by identity.
func (s TemplateSet) index() map[TemplateID]Template {
	byID := make(map[TemplateID]Template, len(s.Templates)+len(s.Forced))
	for _, t := range s.Forced {
		byID[t.ID] = t
	}
	for _, t := range s.Templates {
		byID[t.ID] = t
	}
	return byID
}
