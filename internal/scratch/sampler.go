package scratch

// Sampler throttles progress measurement to every Nth stroke segment.
type Sampler struct {
	Step    int
	Every   int
	strokes int
}

// Tick counts one segment and reports whether a measurement is due.
func (s *Sampler) Tick() bool {
	s.strokes++
	every := s.Every
	if every <= 0 {
		every = 1
	}
	if s.strokes < every {
		return false
	}
	s.strokes = 0
	return true
}

func (s *Sampler) Reset() { s.strokes = 0 }

func (s *Sampler) Measure(surface *Surface) float64 {
	return surface.Sample(s.Step)
}
