package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/forcelayout/internal/sim"
)

func feed(m sim.Metric, stats ...sim.Stats) {
	for _, st := range stats {
		m.Observe(st)
	}
}

func TestMetrics(t *testing.T) {
	stats := []sim.Stats{
		{Iter: 1, MeanDx: 0.04, MaxDx: 0.07, Crossings: 12},
		{Iter: 2, MeanDx: 0.02, MaxDx: 0.05, Crossings: 3},
		{Iter: 3, MeanDx: 0.0005, MaxDx: 0.01, Crossings: 0},
		{Iter: 4, MeanDx: 0.0001, MaxDx: 0.002, Crossings: 1},
	}

	tests := []struct {
		metric sim.Metric
		name   string
		want   float64
	}{
		{NewMeanDisplacement(), "mean_dx", 0.0001},
		{NewMaxDisplacement(), "max_dx", 0.07},
		{NewCrossings(), "crossings", 16},
		{NewSettled(0.001), "settled_fraction", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metric.Name(); got != tt.name {
				t.Errorf("Name() = %q, want %q", got, tt.name)
			}
			if got := tt.metric.Value(); got != 0 {
				t.Errorf("Value() before observing = %v, want 0", got)
			}
			feed(tt.metric, stats...)
			if got := tt.metric.Value(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Value() = %v, want %v", got, tt.want)
			}
			tt.metric.Reset()
			if got := tt.metric.Value(); got != 0 {
				t.Errorf("Value() after Reset = %v, want 0", got)
			}
		})
	}
}

func TestDefaultSetHasUniqueNames(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default(1e-3) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %q", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 4 {
		t.Errorf("got %d metrics, want 4", len(seen))
	}
}
