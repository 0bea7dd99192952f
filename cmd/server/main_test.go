package main

import (
	"testing"

	"terrain-streamer/internal/platform/config"
	"terrain-streamer/internal/terrain"
)

func TestApplyOverrides(t *testing.T) {
	base := terrain.Config{SegmentWidth: 10, StartMargin: -10, EndMargin: 20}
	zero := 0.0

	tests := []struct {
		name string
		cfg  config.Server
		want terrain.Config
	}{
		{"none", config.Server{}, base},
		{"width", config.Server{SegmentWidth: 4}, terrain.Config{SegmentWidth: 4, StartMargin: -10, EndMargin: 20}},
		{"zero_margins", config.Server{StartMargin: &zero, EndMargin: &zero}, terrain.Config{SegmentWidth: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := applyOverrides(base, tt.cfg); got != tt.want {
				t.Errorf("applyOverrides = %+v, want %+v", got, tt.want)
			}
		})
	}
}
