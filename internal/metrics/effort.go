package metrics

import "math"

// ControlEffort is the mean absolute control input per tick, summed across
// input dimensions.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{name: "control_effort"}
}

func (m *ControlEffort) Name() string {
	return m.name
}

func (m *ControlEffort) Observe(output, input, setpoint []float64) {
	for _, val := range input {
		m.sum += math.Abs(val)
	}
	m.samples++
}

func (m *ControlEffort) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *ControlEffort) Reset() {
	m.sum = 0
	m.samples = 0
}
