package usecase

import (
	"context"
	"fmt"
	"math"

	"go.ngs.io/currents-tiles/internal/domain"
)

// memReader is an in-memory velocity dataset indexed [t][d].
type memReader struct {
	axes   domain.Axes
	slices [][]*domain.VelocitySlice
	reads  int
	failAt [2]int // time, depth index of a failing read; {-1, -1} disables
	closed bool
}

func (m *memReader) Axes() domain.Axes { return m.axes }

func (m *memReader) ReadSlice(t, d int) (*domain.VelocitySlice, error) {
	m.reads++
	if m.failAt == [2]int{t, d} {
		return nil, fmt.Errorf("disk on fire")
	}
	if t < 0 || t >= len(m.slices) || d < 0 || d >= len(m.slices[t]) {
		return nil, fmt.Errorf("slice (%d, %d) out of range", t, d)
	}
	return m.slices[t][d], nil
}

func (m *memReader) Close() error {
	m.closed = true
	return nil
}

func workedSlice() *domain.VelocitySlice {
	return &domain.VelocitySlice{
		U: [][]float64{{1, 0}, {0, -1}},
		V: [][]float64{{0, 1}, {math.NaN(), 1}},
	}
}

func emptySlice() *domain.VelocitySlice {
	nan := math.NaN()
	return &domain.VelocitySlice{
		U: [][]float64{{nan, nan}, {nan, nan}},
		V: [][]float64{{nan, nan}, {nan, nan}},
	}
}

// newWorkedReader returns a 2 time × 2 depth dataset over the 2×2 grid
// lats [10, 11], lons [20, 21]. The second depth of the second time step is
// all land.
func newWorkedReader() *memReader {
	return &memReader{
		axes: domain.Axes{
			Latitude:  []float64{10, 11},
			Longitude: []float64{20, 21},
			Depth:     []float64{0.494025, 1.541375},
			Time:      []float64{0, 24},
			TimeUnits: "hours since 2025-06-20 00:00:00",
		},
		slices: [][]*domain.VelocitySlice{
			{workedSlice(), workedSlice()},
			{workedSlice(), emptySlice()},
		},
		failAt: [2]int{-1, -1},
	}
}

// failingSink rejects every key in fail and delegates nothing else.
type failingSink struct {
	fail map[string]bool
	puts map[string][]byte
}

func newFailingSink(keys ...string) *failingSink {
	s := &failingSink{fail: map[string]bool{}, puts: map[string][]byte{}}
	for _, k := range keys {
		s.fail[k] = true
	}
	return s
}

func (s *failingSink) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.fail[key] {
		return fmt.Errorf("quota exceeded")
	}
	s.puts[key] = data
	return nil
}

func (s *failingSink) Location() string { return "mem://" }

func (s *failingSink) Close() error { return nil }
