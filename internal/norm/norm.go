// Package norm maps control actions between an execution-native range and
// the canonical [-1, 1] range shared by all controllers.
package norm

// Bounds is the native [Min, Max] range of one action dimension.
type Bounds struct {
	Min float64
	Max float64
}

// Canonical is the shared action range all controllers are compared in.
var Canonical = Bounds{Min: -1, Max: 1}

// Interpolate remaps x from [xb.Min, xb.Max] to [yb.Min, yb.Max]:
//
//	y = yMin + (x - xMin) * (yMax - yMin) / (xMax - xMin)
func Interpolate(x float64, xb, yb Bounds) float64 {
	return yb.Min + (x-xb.Min)*(yb.Max-yb.Min)/(xb.Max-xb.Min)
}

// Normalize maps a native-range value into [-1, 1].
func Normalize(x float64, b Bounds) float64 {
	return Interpolate(x, b, Canonical)
}

// Denormalize maps a canonical [-1, 1] value back to its native range.
func Denormalize(y float64, b Bounds) float64 {
	return Interpolate(y, Canonical, b)
}

// NormalizeVec normalizes each action dimension in place using per-dimension
// bounds. Dimensions beyond len(bounds) are left untouched.
func NormalizeVec(x []float64, bounds []Bounds) {
	for i := range x {
		if i < len(bounds) {
			x[i] = Normalize(x[i], bounds[i])
		}
	}
}

// DenormalizeVec maps each canonical dimension back to its native range in
// place.
func DenormalizeVec(y []float64, bounds []Bounds) {
	for i := range y {
		if i < len(bounds) {
			y[i] = Denormalize(y[i], bounds[i])
		}
	}
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampVec restricts every element of v to [lo, hi] in place.
func ClampVec(v []float64, lo, hi float64) {
	for i := range v {
		v[i] = Clamp(v[i], lo, hi)
	}
}
