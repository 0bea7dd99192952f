package session

import (
	"terrain-streamer/internal/terrain"
)

// BuildSnapshot copies the observable state of st. The caller must hold the
// lock that guards st.Stream.
func BuildSnapshot(st *SessionState) Snapshot {
	s := st.Stream
	snap := Snapshot{
		ID:            st.ID,
		Ended:         st.Ended,
		Started:       s.Started(),
		Window:        s.Window(),
		Cursors:       s.Cursors(),
		Segments:      buildSegmentViews(s),
		Pool:          buildPoolView(s),
		Stats:         s.Stats(),
		PendingForced: s.PendingForced(),
		CreatedAt:     st.CreatedAt,
		LastTickAt:    st.LastTickAt,
	}
	return snap
}

// buildSegmentViews lists active segments in x order. An empty stream yields
// an empty, non-nil slice so it encodes as [].
func buildSegmentViews(s *terrain.Stream) []SegmentView {
	width := s.Config().SegmentWidth
	active := s.Active()
	views := make([]SegmentView, 0, len(active))
	for _, inst := range active {
		v := SegmentView{
			X:          inst.X(),
			Width:      width,
			TemplateID: inst.TemplateID(),
			Template:   templateName(s, inst.TemplateID()),
		}
		if seg, ok := inst.(*terrain.Segment); ok {
			v.Serial = seg.Serial()
		}
		views = append(views, v)
	}
	return views
}

func buildPoolView(s *terrain.Stream) PoolView {
	buckets := s.Pool().Buckets()
	view := PoolView{
		Buckets: make([]BucketView, 0, len(buckets)),
		Stats:   s.Pool().Stats(),
	}
	for _, b := range buckets {
		view.Buckets = append(view.Buckets, BucketView{
			TemplateID: b.ID,
			Template:   templateName(s, b.ID),
			Idle:       b.Idle,
		})
	}
	return view
}

func templateName(s *terrain.Stream, id terrain.TemplateID) string {
	if t, ok := s.Template(id); ok {
		return t.Name
	}
	return ""
}
