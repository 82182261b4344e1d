package metrics

import "math"

// SettlingTicks is the number of ticks until the position error falls within
// the threshold and stays there for the rest of the run. A run that never
// settles scores its full length.
type SettlingTicks struct {
	name          string
	threshold     float64
	samples       int
	lastViolation int
	violated      bool
}

func NewSettlingTicks(threshold float64) *SettlingTicks {
	return &SettlingTicks{name: "settling_ticks", threshold: threshold}
}

func (m *SettlingTicks) Name() string {
	return m.name
}

func (m *SettlingTicks) Observe(output, input, setpoint []float64) {
	maxErr := 0.0
	for i := range output {
		if i >= len(setpoint) {
			break
		}
		if e := math.Abs(output[i] - setpoint[i]); e > maxErr {
			maxErr = e
		}
	}
	if maxErr > m.threshold {
		m.lastViolation = m.samples
		m.violated = true
	}
	m.samples++
}

func (m *SettlingTicks) Value() float64 {
	if !m.violated {
		return 0
	}
	return float64(m.lastViolation + 1)
}

func (m *SettlingTicks) Reset() {
	m.samples = 0
	m.lastViolation = 0
	m.violated = false
}
