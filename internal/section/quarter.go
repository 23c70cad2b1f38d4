package section

import (
	"fmt"
	"time"
)

// CurrentQuarter returns the quarter archive name, e.g. "DONE Q1 2026".
// It is anchored on the most recent Friday (today included) so a week
// wrapped up on a Monday just after quarter end still lands in the
// quarter it was worked in.
func CurrentQuarter(now time.Time) string {
	daysSinceFriday := (int(now.Weekday()) - int(time.Friday) + 7) % 7
	friday := now.AddDate(0, 0, -daysSinceFriday)
	quarter := (int(friday.Month())-1)/3 + 1
	return fmt.Sprintf("DONE Q%d %d", quarter, friday.Year())
}

// WeekDates returns Monday-Friday date range labels for the three
// planning sections, e.g. "Jan 27 - Jan 31".
func WeekDates(now time.Time) map[string]string {
	daysSinceMonday := (int(now.Weekday()) - int(time.Monday) + 7) % 7
	monday := now.AddDate(0, 0, -daysSinceMonday)

	formatWeek := func(mon time.Time) string {
		fri := mon.AddDate(0, 0, 4)
		return mon.Format("Jan 2") + " - " + fri.Format("Jan 2")
	}

	return map[string]string{
		TodoThisWeek:      formatWeek(monday),
		TodoNextWeek:      formatWeek(monday.AddDate(0, 0, 7)),
		TodoFollowingWeek: formatWeek(monday.AddDate(0, 0, 14)),
	}
}
