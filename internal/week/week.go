// Package week computes ISO-8601 week keys with the Thursday-anchor method:
// a date belongs to the week of its ISO year that contains that week's Thursday.
package week

import (
	"fmt"
	"time"
)

// Key returns the "YYYY-Www" ISO week key for t.
func Key(t time.Time) string {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	dayNum := isoWeekday(d)
	thursday := d.AddDate(0, 0, 4-dayNum)

	isoYear := thursday.Year()
	weekNum := (thursday.YearDay() + 6) / 7

	return fmt.Sprintf("%d-W%02d", isoYear, weekNum)
}

// Current returns the key for the week containing now.
func Current() string {
	return Key(time.Now().UTC())
}

// Previous returns the key for the week containing now minus seven days.
func Previous() string {
	return Key(time.Now().UTC().AddDate(0, 0, -7))
}

// isoWeekday maps Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
