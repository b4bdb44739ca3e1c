package sim

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/san-kum/forcelayout/internal/particle"
)

func benchSim(b *testing.B, n, threads int) *Simulator {
	b.Helper()
	ps, err := particle.NewSet(ids(n), 3)
	if err != nil {
		b.Fatal(err)
	}
	if err := ps.Apply(particle.Init{PositionRange: 25, Seed: 1}); err != nil {
		b.Fatal(err)
	}
	cfg := DefaultConfig()
	cfg.Threads = threads
	cfg.MaxIter = 1 << 30
	s, err := New(cfg, ps, WithLogger(log.New(io.Discard)))
	if err != nil {
		b.Fatal(err)
	}
	if err := s.Init(); err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkStepSingleThread(b *testing.B) {
	s := benchSim(b, 10000, 1)
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Step(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStepFourThreads(b *testing.B) {
	s := benchSim(b, 10000, 4)
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Step(); err != nil {
			b.Fatal(err)
		}
	}
}
