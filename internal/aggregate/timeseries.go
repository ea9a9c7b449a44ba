package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/godilite/activation-insights/internal/repository/models"
)

// DisplayDateLayout is the calendar date format shown on the dashboard and
// accepted as the date filter.
const DisplayDateLayout = "02/01/2006"

// civilDay is a calendar date in the display timezone. It sorts
// chronologically, unlike its DD/MM/YYYY rendering.
type civilDay struct {
	year  int
	month time.Month
	day   int
}

func dayOf(t time.Time, loc *time.Location) civilDay {
	y, m, d := t.In(loc).Date()
	return civilDay{year: y, month: m, day: d}
}

func (d civilDay) compare(o civilDay) int {
	switch {
	case d.year != o.year:
		return d.year - o.year
	case d.month != o.month:
		return int(d.month) - int(o.month)
	default:
		return d.day - o.day
	}
}

func (d civilDay) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.day, int(d.month), d.year)
}

func displayLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// DisplayDate formats t as a calendar date in loc.
func DisplayDate(t time.Time, loc *time.Location) string {
	return dayOf(t, displayLocation(loc)).String()
}

func tallyDays[T any](records []T, at func(T) time.Time, keep func(T) bool, loc *time.Location) *counter[civilDay] {
	loc = displayLocation(loc)
	days := newCounter[civilDay]()
	for _, r := range records {
		ts := at(r)
		if ts.IsZero() || !keep(r) {
			continue
		}
		days.add(dayOf(ts, loc))
	}
	return days
}

func sortedDays(c *counter[civilDay]) []civilDay {
	days := slices.Clone(c.keys())
	slices.SortFunc(days, civilDay.compare)
	return days
}

func daySeries(c *counter[civilDay]) []CountByKey {
	days := sortedDays(c)
	out := make([]CountByKey, 0, len(days))
	for _, d := range days {
		out = append(out, CountByKey{Key: d.String(), Count: c.count(d)})
	}
	return out
}

// CheckinsPerDay counts check-ins per display date, oldest first. When
// activationID is set only check-ins linked to that activation are counted.
func CheckinsPerDay(checkins []models.Checkin, links []models.CheckinActivationLink, activationID *int64, loc *time.Location) []CountByKey {
	members := CheckinsOfActivation(links, activationID)
	days := tallyDays(checkins,
		func(c models.Checkin) time.Time { return c.CreatedAt },
		func(c models.Checkin) bool { return members.Contains(c.ID) },
		loc)
	return daySeries(days)
}

// UsersPerDay counts user registrations per display date, oldest first.
func UsersPerDay(users []models.User, loc *time.Location) []CountByKey {
	days := tallyDays(users,
		func(u models.User) time.Time { return u.CreatedAt },
		func(models.User) bool { return true },
		loc)
	return daySeries(days)
}

// ActivationsByHour buckets check-ins into "HH:00" slots by local hour of day.
// The optional date restricts the count to one display date.
func ActivationsByHour(checkins []models.Checkin, links []models.CheckinActivationLink, activationID *int64, date string, loc *time.Location) []CountByKey {
	loc = displayLocation(loc)
	members := CheckinsOfActivation(links, activationID)

	hours := newCounter[int]()
	for _, c := range checkins {
		if c.CreatedAt.IsZero() || !members.Contains(c.ID) {
			continue
		}
		local := c.CreatedAt.In(loc)
		if date != "" && dayOf(local, loc).String() != date {
			continue
		}
		hours.add(local.Hour())
	}

	slots := slices.Clone(hours.keys())
	slices.Sort(slots)
	out := make([]CountByKey, 0, len(slots))
	for _, h := range slots {
		out = append(out, CountByKey{Key: fmt.Sprintf("%02d:00", h), Count: hours.count(h)})
	}
	return out
}

// AvailableDates lists the distinct display dates that have check-ins, oldest first.
func AvailableDates(checkins []models.Checkin, loc *time.Location) []string {
	days := tallyDays(checkins,
		func(c models.Checkin) time.Time { return c.CreatedAt },
		func(models.Checkin) bool { return true },
		loc)
	sorted := sortedDays(days)
	out := make([]string, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, d.String())
	}
	return out
}

// EngagementFunnel merges registrations and check-ins per display date over
// the union of dates on which either occurred.
func EngagementFunnel(users []models.User, checkins []models.Checkin, loc *time.Location) []FunnelPoint {
	userDays := tallyDays(users,
		func(u models.User) time.Time { return u.CreatedAt },
		func(models.User) bool { return true },
		loc)
	checkinDays := tallyDays(checkins,
		func(c models.Checkin) time.Time { return c.CreatedAt },
		func(models.Checkin) bool { return true },
		loc)

	union := newCounter[civilDay]()
	for _, d := range userDays.keys() {
		union.add(d)
	}
	for _, d := range checkinDays.keys() {
		union.add(d)
	}

	days := sortedDays(union)
	out := make([]FunnelPoint, 0, len(days))
	for _, d := range days {
		out = append(out, FunnelPoint{
			Date:     d.String(),
			Users:    userDays.count(d),
			Checkins: checkinDays.count(d),
		})
	}
	return out
}
