package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/godilite/activation-insights/internal/aggregate"
)

var filterDateLayouts = []string{aggregate.DisplayDateLayout, time.DateOnly}

// ParseFilter validates raw filter parameters. Empty values mean "no filter".
// Dates are accepted as DD/MM/YYYY or YYYY-MM-DD and normalised to DD/MM/YYYY.
func ParseFilter(activationID, date string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}
	var f Filter

	if raw := strings.TrimSpace(activationID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return Filter{}, fmt.Errorf("%w: activation id %q", ErrInvalidFilter, activationID)
		}
		f.ActivationID = &id
	}

	if raw := strings.TrimSpace(date); raw != "" {
		d, ok := parseFilterDate(raw, loc)
		if !ok {
			return Filter{}, fmt.Errorf("%w: date %q", ErrInvalidFilter, date)
		}
		f.Date = d.Format(aggregate.DisplayDateLayout)
	}

	return f, nil
}

func parseFilterDate(s string, loc *time.Location) (time.Time, bool) {
	for _, layout := range filterDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CacheKey renders the filter for use in response cache keys.
func (f Filter) CacheKey() string {
	activation := "all"
	if f.ActivationID != nil {
		activation = strconv.FormatInt(*f.ActivationID, 10)
	}
	date := f.Date
	if date == "" {
		date = "all"
	}
	return activation + ":" + date
}
