package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Period is a calendar month.
type Period struct {
	Year  int
	Month int // 1-12
}

// NewPeriod returns the period for the given year and month.
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// String renders the period as YYYY-MM.
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Before reports whether p is earlier than q.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month < q.Month
}

// Valid reports whether the month is within 1-12.
func (p Period) Valid() bool {
	return p.Month >= 1 && p.Month <= 12
}

// dateLayouts are tried in order by ParseDate.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006/01/02",
	"2006/1/2",
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"2006-01",
	"2006/01",
	"Jan 2006",
	"January 2006",
	"2 January 2006",
	"Jan 2, 2006",
}

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate parses a date token as found in spreadsheets and CSV exports.
// Plain numbers are read as Excel serial dates.
func ParseDate(token string) (time.Time, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return time.Time{}, &MalformedDateError{Token: token}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		days := math.Floor(serial)
		secs := math.Round((serial - days) * 86400)
		return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
	}
	return time.Time{}, &MalformedDateError{Token: token}
}

// ParsePeriod parses a date token down to its month.
func ParsePeriod(token string) (Period, error) {
	t, err := ParseDate(token)
	if err != nil {
		return Period{}, err
	}
	return PeriodOf(t), nil
}

// ParseYearDotMonth parses column headers of the form YYYY.MM (or YYYY.M).
// YYYY-MM and YYYYMmm are accepted too.
func ParseYearDotMonth(token string) (Period, error) {
	s := strings.TrimSpace(token)
	var yearPart, monthPart string
	switch {
	case strings.Contains(s, "."):
		yearPart, monthPart, _ = strings.Cut(s, ".")
	case strings.Contains(s, "-"):
		yearPart, monthPart, _ = strings.Cut(s, "-")
	case strings.ContainsAny(s, "Mm") && len(s) > 5:
		yearPart, monthPart = s[:4], s[5:]
	default:
		return Period{}, &MalformedDateError{Token: token}
	}
	year, err := strconv.Atoi(yearPart)
	if err != nil || len(yearPart) != 4 {
		return Period{}, &MalformedDateError{Token: token}
	}
	month, err := strconv.Atoi(monthPart)
	if err != nil || month < 1 || month > 12 {
		return Period{}, &MalformedDateError{Token: token}
	}
	return Period{Year: year, Month: month}, nil
}
