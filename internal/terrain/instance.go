package terrain

// Instance is a placed, possibly pooled occurrence of a template. Implementations
// are owned by the host (renderer, scene graph); the stream only moves them and
// toggles their visibility.
type Instance interface {
	TemplateID() TemplateID
	X() float64
	SetX(x float64)
	Active() bool
	SetActive(active bool)
}

// Factory constructs a new instance for a template. It is only called on a pool miss.
type Factory interface {
	New(t Template) Instance
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(t Template) Instance

// New implements Factory.
func (f FactoryFunc) New(t Template) Instance {
	return f(t)
}

// Segment is the default Instance: a plain value with no rendering attached.
// Serial numbers are assigned by SegmentFactory in construction order, which
// makes reuse observable.
type Segment struct {
	serial   uint64
	template Template
	x        float64
	active   bool
}

// TemplateID implements Instance.
func (s *Segment) TemplateID() TemplateID { return s.template.ID }

// Template returns the descriptor the segment was built from.
func (s *Segment) Template() Template { return s.template }

// Serial returns the construction number of the segment.
func (s *Segment) Serial() uint64 { return s.serial }

// X implements Instance.
func (s *Segment) X() float64 { return s.x }

// SetX implements Instance.
func (s *Segment) SetX(x float64) { s.x = x }

// Active implements Instance.
func (s *Segment) Active() bool { return s.active }

// SetActive implements Instance.
func (s *Segment) SetActive(active bool) { s.active = active }

// SegmentFactory builds *Segment values and counts constructions.
type SegmentFactory struct {
	built uint64
}

// New implements Factory.
func (f *SegmentFactory) New(t Template) Instance {
	f.built++
	return &Segment{serial: f.built, template: t}
}

// Built returns how many segments have been constructed.
func (f *SegmentFactory) Built() uint64 {
	return f.built
}
