package picosdk

import "math"

// ADCToMillivolts converts raw codes to millivolts: v * R / M, where R is the
// full-scale range in mV and M the device's maximum ADC value.
func ADCToMillivolts(codes []int16, r Range, maxADC int16) ([]float64, error) {
	full, err := r.Millivolts()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(codes))
	for i, v := range codes {
		out[i] = float64(v) * full / float64(maxADC)
	}
	return out, nil
}

// MillivoltsToADC converts a level in millivolts to the nearest ADC code for
// range r, clipped to -M-1..M the way the converter saturates.
func MillivoltsToADC(mv float64, r Range, maxADC int16) (int16, error) {
	full, err := r.Millivolts()
	if err != nil {
		return 0, err
	}
	code := math.Round(mv * float64(maxADC) / full)
	code = math.Max(-float64(maxADC)-1, math.Min(float64(maxADC), code))
	return int16(code), nil
}
