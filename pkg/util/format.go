package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a quantity with an SI prefix, e.g. 0.0047 F as
// "4.700 mF". Values outside the femto..giga range fall back to scientific
// notation.
func FormatValue(value float64, unit string) string {
	abs := math.Abs(value)
	switch {
	case abs == 0:
		return fmt.Sprintf("0 %s", unit)
	case abs >= 1e9:
		return fmt.Sprintf("%.3f G%s", value/1e9, unit)
	case abs >= 1e6:
		return fmt.Sprintf("%.3f M%s", value/1e6, unit)
	case abs >= 1e3:
		return fmt.Sprintf("%.3f k%s", value/1e3, unit)
	case abs >= 1:
		return fmt.Sprintf("%.3f %s", value, unit)
	case abs >= 1e-3:
		return fmt.Sprintf("%.3f m%s", value*1e3, unit)
	case abs >= 1e-6:
		return fmt.Sprintf("%.3f u%s", value*1e6, unit)
	case abs >= 1e-9:
		return fmt.Sprintf("%.3f n%s", value*1e9, unit)
	case abs >= 1e-12:
		return fmt.Sprintf("%.3f p%s", value*1e12, unit)
	case abs >= 1e-15:
		return fmt.Sprintf("%.3f f%s", value*1e15, unit)
	default:
		return fmt.Sprintf("%.3e %s", value, unit)
	}
}

func FormatFrequency(freq float64) string {
	switch {
	case freq >= 1e9:
		return fmt.Sprintf("%7.3f GHz", freq/1e9)
	case freq >= 1e6:
		return fmt.Sprintf("%7.3f MHz", freq/1e6)
	case freq >= 1e3:
		return fmt.Sprintf("%7.3f kHz", freq/1e3)
	default:
		return fmt.Sprintf("%7.3f Hz ", freq)
	}
}

// FormatPhasor renders a small-signal result as magnitude and phase.
func FormatPhasor(name string, mag, phaseDeg float64) string {
	var magStr string
	if mag >= 1000 || (mag < 0.001 && mag != 0) {
		magStr = fmt.Sprintf("%8.2e", mag)
	} else {
		magStr = fmt.Sprintf("%8.3g", mag)
	}
	return fmt.Sprintf("%s=%s<%6.1fdeg", name, magStr, phaseDeg)
}

var siSuffixes = map[string]float64{
	"f":   1e-15,
	"p":   1e-12,
	"n":   1e-9,
	"u":   1e-6,
	"m":   1e-3,
	"k":   1e3,
	"meg": 1e6,
	"g":   1e9,
	"t":   1e12,
}

// ParseValue parses a component value with an optional SI suffix: "4.7k",
// "100n", "2.2meg". Suffixes are case-insensitive; "M" means mega and "m"
// means milli only when spelled as "meg"/"m" respectively after lowering,
// matching common netlist convention where case is ignored and mega is
// written "meg".
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}

	numEnd := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' && r != '+' && r != 'e' {
			// allow exponent digits after 'e'
			if r == 'e' {
				continue
			}
			numEnd = i
			break
		}
	}

	num, err := strconv.ParseFloat(s[:numEnd], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing value %q: %v", s, err)
	}

	suffix := s[numEnd:]
	if suffix == "" {
		return num, nil
	}
	// Trailing unit letters after the prefix ("4.7kohm") are tolerated.
	if strings.HasPrefix(suffix, "meg") {
		return num * siSuffixes["meg"], nil
	}
	if scale, ok := siSuffixes[suffix[:1]]; ok {
		return num * scale, nil
	}
	return num, nil
}
