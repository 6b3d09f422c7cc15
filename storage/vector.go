package storage

import "math"

// NormalizeVector returns v scaled to unit length.
// A zero vector normalizes to a zero vector of the same length.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// CosineDistance returns 1 - cos(a, b). Vectors of different lengths are
// compared over their common prefix. A zero vector is at distance 1 from
// everything.
func CosineDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// DotDistance returns 1 - a·b for vectors already normalized to unit length.
func DotDistance(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return 1 - dot
}
