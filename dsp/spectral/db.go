package spectral

import "math"

// DefaultFloorDB is the dB floor applied when converting linear power to dB.
// Power below the floor (including exact zero) clamps to it instead of
// producing -Inf.
const DefaultFloorDB = -120.0

// LinearToDB converts a linear power vector to dB with a floor clamp:
// 10*log10(max(v, 10^(floorDB/10))). The input is not modified.
func LinearToDB(linear []float64, floorDB float64) []float64 {
	floorLinear := math.Pow(10, floorDB/10)
	db := make([]float64, len(linear))
	for i, v := range linear {
		db[i] = 10 * math.Log10(math.Max(v, floorLinear))
	}
	return db
}

// PowerToDB converts a single linear power value to dB with a floor clamp.
func PowerToDB(linear, floorDB float64) float64 {
	floorLinear := math.Pow(10, floorDB/10)
	return 10 * math.Log10(math.Max(linear, floorLinear))
}
