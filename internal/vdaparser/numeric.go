package vdaparser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errEmptyNumber    = errors.New("no digits")
	errEmbeddedSpace  = errors.New("space between digits")
	errNumberTooLarge = errors.New("value out of range")
)

// ParseNumber decodes a space-padded digit span as an unsigned integer.
//
// Padding may surround the digits but never split them: "001234" and
// "  1234" decode to 1234, "12 34" fails. The value must fit into bits.
// Failures are *DecodeError values with code numeric_format and no position.
func ParseNumber(span string, bits int) (uint64, error) {
	digits := strings.Trim(span, " ")
	if digits == "" {
		return 0, numberError(span, errEmptyNumber)
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] == ' ' {
			return 0, numberError(span, errEmbeddedSpace)
		}
		if !isDigit(digits[i]) {
			return 0, numberError(span, fmt.Errorf("invalid digit %q", digits[i]))
		}
	}

	value, err := strconv.ParseUint(digits, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, numberError(span, fmt.Errorf("%w for %d bits", errNumberTooLarge, bits))
		}
		return 0, numberError(span, err)
	}
	return value, nil
}

func numberError(span string, cause error) *DecodeError {
	return &DecodeError{
		Code:     CodeNumericFormat,
		Expected: []string{"unsigned integer"},
		Found:    span,
		Cause:    cause,
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return strconv.Itoa(n) + " " + many
}
