// Package analysis extracts frequency-domain signatures from comparison
// trajectories, mainly to spot controller-induced oscillation around the
// setpoint.
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/san-kum/quadbench/internal/comparison"
)

// FFT computes the radix-2 Cooley-Tukey transform. The input length must be
// a power of two.
func FFT(data []float64) []complex128 {
	n := len(data)
	if n <= 1 {
		result := make([]complex128, n)
		for i := range data {
			result[i] = complex(data[i], 0)
		}
		return result
	}

	if n%2 != 0 {
		panic("fft requires power of 2 length")
	}

	even := make([]float64, n/2)
	odd := make([]float64, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = data[2*i]
		odd[i] = data[2*i+1]
	}

	feven := FFT(even)
	fodd := FFT(odd)

	result := make([]complex128, n)
	for k := 0; k < n/2; k++ {
		w := cmplx.Exp(complex(0, -2*math.Pi*float64(k)/float64(n)))
		result[k] = feven[k] + w*fodd[k]
		result[k+n/2] = feven[k] - w*fodd[k]
	}
	return result
}

// PowerSpectrum returns the magnitude of the positive-frequency half of the
// transform. Inputs are zero-padded up to the next power of two.
func PowerSpectrum(data []float64) []float64 {
	padded := padPow2(data)
	fft := FFT(padded)
	ps := make([]float64, len(fft)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(fft[i])
	}
	return ps
}

func padPow2(data []float64) []float64 {
	n := 1
	for n < len(data) {
		n *= 2
	}
	if n == len(data) {
		return data
	}
	padded := make([]float64, n)
	copy(padded, data)
	return padded
}

// TrackingResidual is one controller's position error series on one axis.
func TrackingResidual(traj *comparison.Trajectory, worker, axis int) []float64 {
	if worker < 0 || worker >= len(traj.Names) || axis < 0 || axis > 2 {
		return nil
	}
	res := make([]float64, traj.Ticks())
	for k := range res {
		res[k] = traj.SystemOutputs[worker][k][axis] - traj.Setpoints[k][axis]
	}
	return res
}

// DominantFrequency finds the strongest non-DC component of the signal and
// returns its frequency in Hz together with its spectral magnitude. dt is the
// sample interval in seconds.
func DominantFrequency(signal []float64, dt float64) (freq, power float64) {
	if len(signal) < 4 || dt <= 0 {
		return 0, 0
	}

	ps := PowerSpectrum(signal)
	n := len(ps) * 2 // padded length

	bestBin := 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > power {
			power = ps[i]
			bestBin = i
		}
	}
	if bestBin == 0 {
		return 0, 0
	}

	freq = float64(bestBin) / (float64(n) * dt)
	return freq, power
}
