package metrics

import "math"

// TrackingRMSE is the root mean square of the position error against the
// active setpoint.
type TrackingRMSE struct {
	name    string
	sumSq   float64
	samples int
}

func NewTrackingRMSE() *TrackingRMSE {
	return &TrackingRMSE{name: "tracking_rmse"}
}

func (m *TrackingRMSE) Name() string {
	return m.name
}

func (m *TrackingRMSE) Observe(output, input, setpoint []float64) {
	for i := range output {
		if i >= len(setpoint) {
			break
		}
		d := output[i] - setpoint[i]
		m.sumSq += d * d
	}
	m.samples++
}

func (m *TrackingRMSE) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.samples))
}

func (m *TrackingRMSE) Reset() {
	m.sumSq = 0
	m.samples = 0
}
