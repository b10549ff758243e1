package shared

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reporting period bounds enforced across ledger and consolidation queries.
const (
	MinReportingYear = 2000
	MaxReportingYear = 2100
)

// ErrInvalidPeriod indicates a year/month outside the accepted reporting range.
var ErrInvalidPeriod = errors.New("invalid reporting period")

// ValidateYear checks the year falls inside the reporting range.
func ValidateYear(year int) error {
	if year < MinReportingYear || year > MaxReportingYear {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	return nil
}

// ValidateMonth checks a calendar month number.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	return nil
}

// ParsePeriod splits a "YYYY-MM" code into validated year and month.
func ParsePeriod(code string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(code), "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, code)
	}
	if err := ValidateYear(year); err != nil {
		return 0, 0, err
	}
	if err := ValidateMonth(month); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// FormatPeriod renders a year/month pair as "YYYY-MM".
func FormatPeriod(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
