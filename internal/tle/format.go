package tle

import (
	"fmt"
	"math"
	"strings"
)

// Lines re-serializes the parsed mean elements back into the fixed-column
// two-line format, with recomputed checksums. Numeric fields survive a
// parse → format → parse round trip within the format's own precision.
func (s *Set) Lines() (line1, line2 string) {
	yy := s.epochYear % 100

	cls := s.classification
	if cls == 0 {
		cls = 'U'
	}

	body1 := fmt.Sprintf("1 %5d%c %-8s %02d%012.8f %s %s %s 0 %4d",
		s.noradID, cls, s.intlDesignator, yy, s.epochDay,
		formatImpliedDecimal(s.meanMotionDot),
		formatExpField(s.meanMotionDDot),
		formatExpField(s.bstar),
		s.elementNumber,
	)

	body2 := fmt.Sprintf("2 %5d %8.4f %8.4f %07d %8.4f %8.4f %11.8f%5d",
		s.noradID, s.inclinationDeg, s.raanDeg,
		int(math.Round(s.eccentricity*1e7)),
		s.argPerigeeDeg, s.meanAnomalyDeg, s.meanMotion, s.revNumber,
	)

	line1 = body1 + string(rune('0'+checksum(body1)))
	line2 = body2 + string(rune('0'+checksum(body2)))
	return line1, line2
}

// formatImpliedDecimal renders a value as the 10-character " .00000602"
// style field with the leading zero omitted.
func formatImpliedDecimal(v float64) string {
	sign := " "
	if v < 0 {
		sign = "-"
	}
	frac := fmt.Sprintf("%.8f", math.Abs(v))
	frac = strings.TrimPrefix(frac, "0")
	return sign + frac
}

// formatExpField renders a value as the 8-character " 21163-4" style field:
// sign, five implied-decimal mantissa digits, exponent sign, exponent digit.
func formatExpField(v float64) string {
	if v == 0 {
		return " 00000+0"
	}

	sign := " "
	if v < 0 {
		sign = "-"
	}
	av := math.Abs(v)

	exp := int(math.Floor(math.Log10(av))) + 1
	digits := int(math.Round(av / math.Pow(10, float64(exp)) * 1e5))
	if digits >= 100000 {
		// Rounding carried into a sixth digit.
		digits /= 10
		exp++
	}

	expSign := "+"
	if exp < 0 {
		expSign = "-"
		exp = -exp
	}
	return fmt.Sprintf("%s%05d%s%d", sign, digits, expSign, exp)
}
