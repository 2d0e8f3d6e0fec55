package decomp

// ClipTolerance bounds the floating-point noise allowed in a nested
// R-squared increment. Increments in (-ClipTolerance, 0) are clipped to
// exactly zero; anything more negative is a modeling bug and fails.
const ClipTolerance = 1e-8

// Components are the percentage shares of outcome variation attributed
// to each grouping layer. Time through Firm plus Residual partition the
// variation and sum to 100. FirmTotal = Firm + Residual is a display
// aggregate, not an independent component.
type Components struct {
	Time           float64
	Industry       float64
	IndustryTime   float64
	Technology     float64
	TechnologyTime float64
	FirmTotal      float64
	Firm           float64
	Residual       float64
}

// Sum returns the total of the seven partitioning components
// (FirmTotal excluded). It equals 100 up to floating tolerance.
func (c Components) Sum() float64 {
	return c.Time + c.Industry + c.IndustryTime + c.Technology + c.TechnologyTime + c.Firm + c.Residual
}

// Shares converts a nested R-squared sequence into percentage
// components. Each increment is guarded: tiny negative values are
// floating noise and clip to zero, larger ones raise
// NonMonotonicFitError.
func Shares(r2 [NumSpecs]float64) (Components, error) {
	steps := []struct {
		name  string
		delta float64
	}{
		{"time", r2[0]},
		{"industry", r2[1] - r2[0]},
		{"industry_time", r2[2] - r2[1]},
		{"technology", r2[3] - r2[2]},
		{"technology_time", r2[4] - r2[3]},
		{"firm", r2[5] - r2[4]},
		{"residual", 1 - r2[5]},
	}

	var clipped [7]float64
	for i, s := range steps {
		d := s.delta
		if d < 0 {
			if d <= -ClipTolerance {
				return Components{}, &NonMonotonicFitError{Step: s.name, Delta: d}
			}
			d = 0
		}
		clipped[i] = 100 * d
	}

	c := Components{
		Time:           clipped[0],
		Industry:       clipped[1],
		IndustryTime:   clipped[2],
		Technology:     clipped[3],
		TechnologyTime: clipped[4],
		Firm:           clipped[5],
		Residual:       clipped[6],
	}
	c.FirmTotal = c.Firm + c.Residual
	return c, nil
}
