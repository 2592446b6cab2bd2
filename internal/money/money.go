// Package money holds amounts as integer centavos and formats them the way
// the front desk reads them (R$ 1.050,99).
package money

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Cents is an amount in centavos.
type Cents int64

// Max is the largest amount a single payment may carry (999.999,99).
const Max Cents = 99_999_999

var (
	ErrEmpty     = errors.New("amount is empty")
	ErrInvalid   = errors.New("amount is not a number")
	ErrNegative  = errors.New("amount is negative")
	ErrPrecision = errors.New("amount has more than two decimal places")
	ErrTooLarge  = errors.New("amount is too large")
)

// Parse accepts "100", "100.5", "100,50", "1.050,99", "1.050" and
// "R$ 80,00". When both separators appear the last one is the decimal mark.
// Dots alone that split the number into groups of three are thousands
// separators, so "2.500" is R$ 2.500,00.
func Parse(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmpty
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegative
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	var intPart, fracPart string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		sep := lastComma
		thousands := "."
		if lastDot > lastComma {
			sep = lastDot
			thousands = ","
		}
		intPart = strings.ReplaceAll(s[:sep], thousands, "")
		fracPart = s[sep+1:]
	case lastComma >= 0:
		intPart, fracPart = s[:lastComma], s[lastComma+1:]
	case lastDot >= 0 && thousandsGrouped(s):
		intPart = strings.ReplaceAll(s, ".", "")
	case lastDot >= 0:
		intPart, fracPart = s[:lastDot], s[lastDot+1:]
	default:
		intPart = s
	}

	if intPart == "" {
		intPart = "0"
	}
	if !digitsOnly(intPart) || !digitsOnly(fracPart) {
		return 0, ErrInvalid
	}
	if len(fracPart) > 2 {
		return 0, ErrPrecision
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrTooLarge
	}
	frac, _ := strconv.ParseInt(fracPart, 10, 64)
	if units > int64(Max/100) {
		return 0, ErrTooLarge
	}
	c := Cents(units*100 + frac)
	if c > Max {
		return 0, ErrTooLarge
	}
	return c, nil
}

// thousandsGrouped reports whether s looks like "1.050" or "1.000.000".
func thousandsGrouped(s string) bool {
	groups := strings.Split(s, ".")
	if len(groups) < 2 || len(groups[0]) == 0 || len(groups[0]) > 3 || !digitsOnly(groups[0]) {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !digitsOnly(g) {
			return false
		}
	}
	return true
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FromFloat rounds a float amount to the nearest centavo.
func FromFloat(f float64) Cents {
	if f < 0 {
		return -FromFloat(-f)
	}
	return Cents(f*100 + 0.5)
}

func (c Cents) Float() float64 {
	return float64(c) / 100
}

// Decimal renders the plain form used in form inputs, e.g. "1050.99".
func (c Cents) Decimal() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// String renders "R$ 1.050,99".
func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	units := strconv.FormatInt(int64(c/100), 10)

	var b strings.Builder
	for i, r := range units {
		if i > 0 && (len(units)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, b.String(), int64(c%100))
}
