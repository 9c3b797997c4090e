package util

import (
	"math"
	"testing"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		value float64
		unit  string
		want  string
	}{
		{4700, "Ohm", "4.700 kOhm"},
		{0.001, "V", "1.000 mV"},
		{2.2e-6, "F", "2.200 uF"},
		{1e-9, "F", "1.000 nF"},
		{5, "V", "5.000 V"},
		{0, "A", "0 A"},
	}
	for _, tc := range cases {
		if got := FormatValue(tc.value, tc.unit); got != tc.want {
			t.Errorf("FormatValue(%v, %q): want %q, got %q", tc.value, tc.unit, tc.want, got)
		}
	}
}

func TestParseValue(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"4.7k", 4700},
		{"100n", 100e-9},
		{"2.2meg", 2.2e6},
		{"10", 10},
		{"3.3", 3.3},
		{"1u", 1e-6},
		{"470p", 470e-12},
		{"1.5K", 1500},
	}
	for _, tc := range cases {
		got, err := ParseValue(tc.in)
		if err != nil {
			t.Errorf("ParseValue(%q) failed: %v", tc.in, err)
			continue
		}
		if math.Abs(got-tc.want) > math.Abs(tc.want)*1e-12 {
			t.Errorf("ParseValue(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestParseValueRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "k10", "abc"} {
		if _, err := ParseValue(in); err == nil {
			t.Errorf("ParseValue(%q): want error", in)
		}
	}
}
