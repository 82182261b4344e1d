package physics

import "math"

// Quaternion helpers operating on (w, x, y, z) slices.

func quatMul(a, b []float64) [4]float64 {
	return [4]float64{
		a[0]*b[0] - a[1]*b[1] - a[2]*b[2] - a[3]*b[3],
		a[0]*b[1] + a[1]*b[0] + a[2]*b[3] - a[3]*b[2],
		a[0]*b[2] - a[1]*b[3] + a[2]*b[0] + a[3]*b[1],
		a[0]*b[3] + a[1]*b[2] - a[2]*b[1] + a[3]*b[0],
	}
}

// QuatRotate rotates vector v by quaternion q.
func QuatRotate(q []float64, v [3]float64) [3]float64 {
	qv := []float64{0, v[0], v[1], v[2]}
	qc := []float64{q[0], -q[1], -q[2], -q[3]}
	t := quatMul(q, qv)
	r := quatMul(t[:], qc)
	return [3]float64{r[1], r[2], r[3]}
}

// QuatNormalize scales q to unit norm in place. A zero quaternion is reset
// to identity.
func QuatNormalize(q []float64) {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		q[0], q[1], q[2], q[3] = 1, 0, 0, 0
		return
	}
	for i := range q[:4] {
		q[i] /= n
	}
}
