package dataset

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v the way the downstream training pipeline has always
// received it: shortest round-trip digits, a trailing ".0" on integral values,
// and exponent notation only below 1e-4 or from 1e16 up.
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// FormatBool renders booleans as True/False.
func FormatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// ParseFloat parses a numeric cell, tolerating surrounding whitespace.
func ParseFloat(value string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(value), 64)
}

// ParseFrame parses a frame index. Integral float spellings such as "46.0"
// are accepted because spreadsheet exports often write them.
func ParseFrame(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, strconv.ErrSyntax
	}
	return int(f), nil
}

func unwrapNumError(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return numErr.Err
	}
	return err
}
