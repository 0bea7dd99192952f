package terrain

import (
	"fmt"
	"log/slog"
	"sort"
)

// PoolStats counts pool traffic since construction.
type PoolStats struct {
	Constructed int `json:"constructed"`
	Reused      int `json:"reused"`
	Released    int `json:"released"`
	Rejected    int `json:"rejected"`
}

// Pool recycles instances per template identity. Instances are never destroyed:
// once constructed, an instance is either active (owned by the caller) or idle
// in its template's bucket.
//
// Pool is not safe for concurrent use.
type Pool struct {
	factory Factory
	buckets map[TemplateID][]Instance
	stats   PoolStats
	opts    options
}

// NewPool returns an empty pool that builds new instances with factory.
func NewPool(factory Factory, opts ...Option) (*Pool, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	return newPool(factory, buildOptions(opts)), nil
}

func newPool(factory Factory, o options) *Pool {
	return &Pool{
		factory: factory,
		buckets: make(map[TemplateID][]Instance),
		opts:    o,
	}
}

// Acquire returns an active instance of t, reusing an idle one when the bucket
// is non-empty and constructing a new one otherwise. The caller positions it.
func (p *Pool) Acquire(t Template) Instance {
	bucket, known := p.buckets[t.ID]
	if n := len(bucket); n > 0 {
		inst := bucket[n-1]
		bucket[n-1] = nil
		p.buckets[t.ID] = bucket[:n-1]

		inst.SetActive(true)
		p.stats.Reused++
		p.opts.observer.SegmentSpawned(t.ID, true)
		return inst
	}

	if !known {
		p.buckets[t.ID] = nil
	}

	inst := p.factory.New(t)
	inst.SetActive(true)
	p.stats.Constructed++
	p.opts.observer.SegmentSpawned(t.ID, false)
	p.opts.log.Debug("pool miss", slog.String("template", t.String()), slog.Int("constructed", p.stats.Constructed))
	return inst
}

// Release deactivates inst and files it in its template's bucket. Releasing an
// instance whose template never went through Acquire, or releasing twice, is an
// invariant violation: the pool is left untouched and the error is returned.
func (p *Pool) Release(inst Instance) error {
	id := inst.TemplateID()
	bucket, ok := p.buckets[id]
	if !ok {
		p.stats.Rejected++
		err := fmt.Errorf("%w: template %d", ErrUnregisteredTemplate, id)
		p.opts.violation(err, slog.Int("template_id", int(id)))
		return err
	}
	if !inst.Active() {
		p.stats.Rejected++
		err := fmt.Errorf("%w: template %d at x=%g", ErrDoubleRelease, id, inst.X())
		p.opts.violation(err, slog.Int("template_id", int(id)))
		return err
	}

	inst.SetActive(false)
	p.buckets[id] = append(bucket, inst)
	p.stats.Released++
	p.opts.observer.SegmentRecycled(id)
	return nil
}

// Registered reports whether the pool has a bucket for id.
func (p *Pool) Registered(id TemplateID) bool {
	_, ok := p.buckets[id]
	return ok
}

// Idle returns the number of pooled instances of id.
func (p *Pool) Idle(id TemplateID) int {
	return len(p.buckets[id])
}

// Contains reports whether inst is currently idle in its bucket.
func (p *Pool) Contains(inst Instance) bool {
	for _, pooled := range p.buckets[inst.TemplateID()] {
		if pooled == inst {
			return true
		}
	}
	return false
}

// Buckets returns the idle count of every registered template, ordered by identity.
func (p *Pool) Buckets() []BucketInfo {
	out := make([]BucketInfo, 0, len(p.buckets))
	for id, bucket := range p.buckets {
		out = append(out, BucketInfo{ID: id, Idle: len(bucket)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns the pool counters.
func (p *Pool) Stats() PoolStats {
	return p.stats
}

// BucketInfo summarizes one pool bucket.
type BucketInfo struct {
	ID   TemplateID `json:"id"`
	Idle int        `json:"idle"`
}
