package terrain

import (
	"errors"
	"testing"
)

type recordingObserver struct {
	spawned    int
	reused     int
	recycled   int
	violations []error
}

func (r *recordingObserver) SegmentSpawned(_ TemplateID, reused bool) {
	r.spawned++
	if reused {
		r.reused++
	}
}

func (r *recordingObserver) SegmentRecycled(TemplateID) { r.recycled++ }

func (r *recordingObserver) InvariantViolated(err error) { r.violations = append(r.violations, err) }

func newTestPool(t *testing.T, opts ...Option) (*Pool, *SegmentFactory) {
	t.Helper()
	f := &SegmentFactory{}
	p, err := NewPool(f, opts...)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return p, f
}

func TestNewPool_nil_factory(t *testing.T) {
	if _, err := NewPool(nil); !errors.Is(err, ErrNilFactory) {
		t.Errorf("expected ErrNilFactory, got %v", err)
	}
}

func TestPool_Acquire_constructs_on_miss(t *testing.T) {
	p, f := newTestPool(t)
	tpl := Template{ID: 1, Name: "flat"}

	if p.Registered(tpl.ID) {
		t.Fatal("template registered before first Acquire")
	}
	inst := p.Acquire(tpl)
	if !inst.Active() {
		t.Error("acquired instance should be active")
	}
	if inst.TemplateID() != tpl.ID {
		t.Errorf("TemplateID = %d, want %d", inst.TemplateID(), tpl.ID)
	}
	if !p.Registered(tpl.ID) {
		t.Error("Acquire should register a bucket")
	}
	if f.Built() != 1 || p.Stats().Constructed != 1 {
		t.Errorf("built=%d constructed=%d, want 1", f.Built(), p.Stats().Constructed)
	}
}

func TestPool_release_then_acquire_reuses(t *testing.T) {
	p, f := newTestPool(t)
	tpl := Template{ID: 7, Name: "ramp"}

	first := p.Acquire(tpl)
	if err := p.Release(first); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if first.Active() {
		t.Error("released instance should be inactive")
	}
	if p.Idle(tpl.ID) != 1 || !p.Contains(first) {
		t.Fatalf("bucket should hold the released instance, idle=%d", p.Idle(tpl.ID))
	}

	second := p.Acquire(tpl)
	if second != first {
		t.Error("Acquire should reuse the pooled instance")
	}
	if !second.Active() {
		t.Error("reused instance should be reactivated")
	}
	if f.Built() != 1 {
		t.Errorf("built = %d, want 1", f.Built())
	}
	if s := p.Stats(); s.Reused != 1 || s.Released != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPool_buckets_are_per_template(t *testing.T) {
	p, f := newTestPool(t)
	a := Template{ID: 1, Name: "a"}
	b := Template{ID: 2, Name: "b"}

	ia := p.Acquire(a)
	_ = p.Acquire(b)
	if err := p.Release(ia); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// A pooled "a" must not satisfy a request for "b".
	ib := p.Acquire(b)
	if ib == ia {
		t.Error("instance of a returned for b")
	}
	if f.Built() != 3 {
		t.Errorf("built = %d, want 3", f.Built())
	}
	if p.Idle(a.ID) != 1 || p.Idle(b.ID) != 0 {
		t.Errorf("idle a=%d b=%d, want 1,0", p.Idle(a.ID), p.Idle(b.ID))
	}

	got := p.Buckets()
	if len(got) != 2 || got[0] != (BucketInfo{ID: 1, Idle: 1}) || got[1] != (BucketInfo{ID: 2, Idle: 0}) {
		t.Errorf("Buckets = %+v", got)
	}
}

func TestPool_Release_unregistered_is_isolated(t *testing.T) {
	obs := &recordingObserver{}
	p, _ := newTestPool(t, WithObserver(obs))
	known := Template{ID: 1, Name: "known"}

	pooled := p.Acquire(known)
	if err := p.Release(pooled); err != nil {
		t.Fatalf("Release: %v", err)
	}

	stray := (&SegmentFactory{}).New(Template{ID: 99, Name: "stray"})
	stray.SetActive(true)
	err := p.Release(stray)
	if !errors.Is(err, ErrUnregisteredTemplate) {
		t.Fatalf("expected ErrUnregisteredTemplate, got %v", err)
	}
	if p.Registered(99) {
		t.Error("rejected release must not register a bucket")
	}
	if p.Idle(known.ID) != 1 || !p.Contains(pooled) {
		t.Error("rejected release corrupted another bucket")
	}
	if !stray.Active() {
		t.Error("rejected instance should be left untouched")
	}
	if len(obs.violations) != 1 || p.Stats().Rejected != 1 {
		t.Errorf("violations=%d rejected=%d, want 1,1", len(obs.violations), p.Stats().Rejected)
	}
}

func TestPool_Release_twice(t *testing.T) {
	p, _ := newTestPool(t)
	inst := p.Acquire(Template{ID: 3})
	if err := p.Release(inst); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := p.Release(inst); !errors.Is(err, ErrDoubleRelease) {
		t.Fatalf("expected ErrDoubleRelease, got %v", err)
	}
	if p.Idle(3) != 1 {
		t.Errorf("idle = %d, want 1 after double release", p.Idle(3))
	}
}

func TestPool_Release_unregistered_strict_panics(t *testing.T) {
	p, _ := newTestPool(t, WithStrict(true))
	stray := (&SegmentFactory{}).New(Template{ID: 5})
	stray.SetActive(true)

	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrUnregisteredTemplate) {
			t.Errorf("expected panic with ErrUnregisteredTemplate, got %v", r)
		}
	}()
	_ = p.Release(stray)
}

func TestPool_construction_bounded_by_high_water_mark(t *testing.T) {
	p, f := newTestPool(t)
	tpl := Template{ID: 1}

	// Keep at most 4 active at a time over many cycles.
	var live []Instance
	for i := 0; i < 100; i++ {
		live = append(live, p.Acquire(tpl))
		if len(live) > 4 {
			if err := p.Release(live[0]); err != nil {
				t.Fatalf("Release: %v", err)
			}
			live = live[1:]
		}
	}
	if f.Built() != 5 {
		t.Errorf("built = %d, want 5 (high-water mark)", f.Built())
	}
}
