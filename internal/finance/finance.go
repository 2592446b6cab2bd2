// Package finance aggregates payment totals per month and year.
package finance

import (
	"errors"
	"fmt"

	"github.com/Kauanrodrigues01/academy/internal/money"
)

// ErrInvalidMonth is returned for months outside 1..12.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	return nil
}

// MonthName returns the Portuguese name of month, or "" when out of range.
func MonthName(month int) string {
	if ValidateMonth(month) != nil {
		return ""
	}
	return monthNames[month-1]
}

// MonthTotal is the profit of one calendar month.
type MonthTotal struct {
	Month int
	Name  string
	Total money.Cents
}

// YearSummary holds the twelve monthly totals of one year.
type YearSummary struct {
	Year   int
	Months [12]money.Cents
}

// NewYearSummary builds a summary from month -> total pairs. Months outside
// 1..12 are rejected.
func NewYearSummary(year int, totals map[int]money.Cents) (YearSummary, error) {
	s := YearSummary{Year: year}
	for m, total := range totals {
		if err := ValidateMonth(m); err != nil {
			return YearSummary{}, err
		}
		s.Months[m-1] = total
	}
	return s, nil
}

// Month returns the profit of the given month.
func (s YearSummary) Month(month int) (money.Cents, error) {
	if err := ValidateMonth(month); err != nil {
		return 0, err
	}
	return s.Months[month-1], nil
}

func (s YearSummary) Total() money.Cents {
	var total money.Cents
	for _, c := range s.Months {
		total += c
	}
	return total
}

// Highest returns the month with the largest profit. Ties go to the
// earliest month, so a year without payments reports January.
func (s YearSummary) Highest() MonthTotal {
	best := 0
	for i := 1; i < len(s.Months); i++ {
		if s.Months[i] > s.Months[best] {
			best = i
		}
	}
	return MonthTotal{Month: best + 1, Name: monthNames[best], Total: s.Months[best]}
}

// List returns all twelve months in calendar order.
func (s YearSummary) List() []MonthTotal {
	out := make([]MonthTotal, 12)
	for i, c := range s.Months {
		out[i] = MonthTotal{Month: i + 1, Name: monthNames[i], Total: c}
	}
	return out
}

// Max returns the largest monthly total, used to scale the profit chart.
func (s YearSummary) Max() money.Cents {
	return s.Highest().Total
}
