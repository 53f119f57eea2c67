// Package sectortime converts real time into the sector calendar: 28 day
// months, a 13 month year plus a trailing "Year Day", counted from
// the turn of the millennium starting at year 481.
package sectortime

import (
	"fmt"
	"time"
)

const (
	DAYS_PER_YEAR  = 365
	DAYS_PER_MONTH = 28
	YEAR_OFFSET    = 481
)

var epoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

var monthNames = []string{
	"January",
	"February",
	"March",
	"April",
	"May",
	"June",
	"Sol",
	"July",
	"August",
	"September",
	"October",
	"November",
	"December",
	"Year Day",
}

type Date struct {
	Year  int
	Month string
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%s %d, %d FSC", d.Month, d.Day, d.Year)
}

// At returns the sector date for t.
func At(t time.Time) Date {
	days := int(t.UTC().Sub(epoch) / (24 * time.Hour))
	if t.Before(epoch) {
		days = 0
	}
	dayOfYear := days%DAYS_PER_YEAR + 1
	return Date{
		Year:  days/DAYS_PER_YEAR + YEAR_OFFSET,
		Month: monthNames[dayOfYear/DAYS_PER_MONTH],
		Day:   dayOfYear%DAYS_PER_MONTH + 1,
	}
}

// Format renders the clock line shown in the sector time embed.
func Format(t time.Time) string {
	return fmt.Sprintf("%s %s", t.UTC().Format("15:04"), At(t))
}
