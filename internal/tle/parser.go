package tle

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const lineLen = 69

// ParseSet parses one two-line element record. The name is the free-text
// title line (may be empty). Both lines are validated for length, line
// number, checksum, numeric fields, and physical ranges before a Set is
// returned.
func ParseSet(line1, line2, name string) (*Set, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != lineLen {
		return nil, parseErrf(1, "length", "got %d characters, want %d", len(line1), lineLen)
	}
	if len(line2) != lineLen {
		return nil, parseErrf(2, "length", "got %d characters, want %d", len(line2), lineLen)
	}
	if line1[0] != '1' {
		return nil, parseErrf(1, "line number", "must begin with '1', got %q", line1[0])
	}
	if line2[0] != '2' {
		return nil, parseErrf(2, "line number", "must begin with '2', got %q", line2[0])
	}

	if err := verifyChecksum(1, line1); err != nil {
		return nil, err
	}
	if err := verifyChecksum(2, line2); err != nil {
		return nil, err
	}

	s := &Set{name: strings.TrimSpace(name)}
	if err := s.parseLine1(line1); err != nil {
		return nil, err
	}
	if err := s.parseLine2(line2); err != nil {
		return nil, err
	}

	if err := s.checkRanges(); err != nil {
		return nil, err
	}

	s.epoch = epochTime(s.epochYear, s.epochDay)
	return s, nil
}

func (s *Set) parseLine1(line string) error {
	var err error

	s.noradID, err = strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return parseErrf(1, "catalog number", "%q is not numeric", line[2:7])
	}
	s.classification = line[7]
	s.intlDesignator = strings.TrimSpace(line[9:17])

	yy, err := strconv.Atoi(strings.TrimSpace(line[18:20]))
	if err != nil {
		return parseErrf(1, "epoch year", "%q is not numeric", line[18:20])
	}
	// Two-digit year convention: 57-99 → 1900s, 00-56 → 2000s.
	if yy >= 57 {
		s.epochYear = 1900 + yy
	} else {
		s.epochYear = 2000 + yy
	}

	s.epochDay, err = strconv.ParseFloat(strings.TrimSpace(line[20:32]), 64)
	if err != nil {
		return parseErrf(1, "epoch day", "%q is not numeric", line[20:32])
	}
	if s.epochDay < 1 || s.epochDay >= 367 {
		return parseErrf(1, "epoch day", "%.8f outside [1, 367)", s.epochDay)
	}

	s.meanMotionDot, err = parseImpliedDecimal(line[33:43])
	if err != nil {
		return parseErrf(1, "mean motion derivative", "%q is not numeric", line[33:43])
	}

	s.meanMotionDDot, err = parseExpField(line[44:52])
	if err != nil {
		return parseErrf(1, "mean motion second derivative", "%q is not numeric", line[44:52])
	}

	s.bstar, err = parseExpField(line[53:61])
	if err != nil {
		return parseErrf(1, "drag term", "%q is not numeric", line[53:61])
	}

	s.elementNumber, err = strconv.Atoi(strings.TrimSpace(line[64:68]))
	if err != nil {
		return parseErrf(1, "element number", "%q is not numeric", line[64:68])
	}

	return nil
}

func (s *Set) parseLine2(line string) error {
	satNum, err := strconv.Atoi(strings.TrimSpace(line[2:7]))
	if err != nil {
		return parseErrf(2, "catalog number", "%q is not numeric", line[2:7])
	}
	if satNum != s.noradID {
		return parseErrf(2, "catalog number", "mismatch between lines (%d vs %d)", s.noradID, satNum)
	}

	s.inclinationDeg, err = strconv.ParseFloat(strings.TrimSpace(line[8:16]), 64)
	if err != nil {
		return parseErrf(2, "inclination", "%q is not numeric", line[8:16])
	}

	s.raanDeg, err = strconv.ParseFloat(strings.TrimSpace(line[17:25]), 64)
	if err != nil {
		return parseErrf(2, "right ascension", "%q is not numeric", line[17:25])
	}

	// Decimal point implied: XXXXXXX encodes 0.XXXXXXX.
	s.eccentricity, err = strconv.ParseFloat("0."+strings.TrimSpace(line[26:33]), 64)
	if err != nil {
		return parseErrf(2, "eccentricity", "%q is not numeric", line[26:33])
	}

	s.argPerigeeDeg, err = strconv.ParseFloat(strings.TrimSpace(line[34:42]), 64)
	if err != nil {
		return parseErrf(2, "argument of perigee", "%q is not numeric", line[34:42])
	}

	s.meanAnomalyDeg, err = strconv.ParseFloat(strings.TrimSpace(line[43:51]), 64)
	if err != nil {
		return parseErrf(2, "mean anomaly", "%q is not numeric", line[43:51])
	}

	s.meanMotion, err = strconv.ParseFloat(strings.TrimSpace(line[52:63]), 64)
	if err != nil {
		return parseErrf(2, "mean motion", "%q is not numeric", line[52:63])
	}

	s.revNumber, err = strconv.Atoi(strings.TrimSpace(line[63:68]))
	if err != nil {
		return parseErrf(2, "revolution number", "%q is not numeric", line[63:68])
	}

	return nil
}

// checkRanges rejects values that parse but are physically impossible.
func (s *Set) checkRanges() error {
	if s.eccentricity < 0 || s.eccentricity >= 1 {
		return parseErrf(2, "eccentricity", "%.7f outside [0, 1)", s.eccentricity)
	}
	if s.inclinationDeg < 0 || s.inclinationDeg > 180 {
		return parseErrf(2, "inclination", "%.4f outside [0, 180]", s.inclinationDeg)
	}
	if s.meanMotion <= 0 {
		return parseErrf(2, "mean motion", "%.8f must be positive", s.meanMotion)
	}
	return nil
}

// verifyChecksum recomputes the mod-10 checksum over the first 68 characters
// (digits summed, '-' counts as 1) and compares it with the final digit.
func verifyChecksum(lineNum int, line string) error {
	last := line[68]
	if last < '0' || last > '9' {
		return parseErrf(lineNum, "checksum", "%q is not a digit", last)
	}
	if got := checksum(line); got != int(last-'0') {
		return parseErrf(lineNum, "checksum", "computed %d, line says %d", got, last-'0')
	}
	return nil
}

// checksum computes the mod-10 sum of digits over the first 68 characters,
// with '-' counted as 1. Letters, spaces, '.' and '+' are ignored.
func checksum(line string) int {
	sum := 0
	for i := 0; i < 68 && i < len(line); i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// parseImpliedDecimal handles the " .00000602" style field where the leading
// zero before the decimal point is omitted.
func parseImpliedDecimal(field string) (float64, error) {
	f := strings.TrimSpace(field)
	f = strings.Replace(f, "-.", "-0.", 1)
	f = strings.Replace(f, "+.", "+0.", 1)
	if strings.HasPrefix(f, ".") {
		f = "0" + f
	}
	if f == "" {
		return 0, nil
	}
	return strconv.ParseFloat(f, 64)
}

// parseExpField handles the " 21163-4" style field: five implied-decimal
// mantissa digits followed by a single-digit power of ten.
func parseExpField(field string) (float64, error) {
	mantStr := strings.TrimSpace(field[:len(field)-2])
	expStr := strings.TrimSpace(field[len(field)-2:])

	if mantStr == "" {
		mantStr = "0"
	}
	mant, err := strconv.ParseFloat(mantStr, 64)
	if err != nil {
		return 0, err
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return mant * 1e-5 * math.Pow(10, float64(exp)), nil
}

// epochTime converts a TLE epoch (full year + fractional day-of-year, day 1 =
// Jan 1) to an absolute UTC instant. The fractional day is converted to whole
// nanoseconds with rounding so repeated conversions are stable.
func epochTime(year int, dayOfYear float64) time.Time {
	days := int(dayOfYear)
	frac := dayOfYear - float64(days)

	base := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days-1)
	nanos := int64(math.Round(frac * 86400.0 * 1e9))
	return base.Add(time.Duration(nanos))
}
