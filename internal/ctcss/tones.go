package ctcss

// standardTones is the standard 38-tone EIA table of sub-audible
// squelch frequencies, in ascending order.
var standardTones = []float64{
	67.0, 71.9, 74.4, 77.0, 79.7, 82.5, 85.4, 88.5,
	91.5, 94.8, 97.4, 100.0, 103.5, 107.2, 110.9, 114.8,
	118.8, 123.0, 127.3, 131.8, 136.5, 141.3, 146.2, 151.4,
	156.7, 162.2, 167.9, 173.8, 179.9, 186.2, 192.8, 199.5,
	206.5, 213.8, 221.3, 229.1, 237.1, 250.3,
}

// StandardTones returns a copy of the standard 38-tone table. Callers
// that monitor systems with a non-standard tone plan can pass their
// own ordered table to Select instead.
func StandardTones() []float64 {
	out := make([]float64, len(standardTones))
	copy(out, standardTones)
	return out
}
