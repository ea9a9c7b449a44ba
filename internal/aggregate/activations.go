package aggregate

import (
	"slices"
	"strings"

	"github.com/godilite/activation-insights/internal/repository/models"
)

type activationTally struct {
	name    string
	members map[int64]struct{}
	rating  mean
}

// CheckinsPerActivation ranks activations by the number of distinct check-ins
// linked to them. Only links to a known check-in and a known activation are
// counted, and activations without check-ins are left out. Ratings linked to
// an activation add avgRating and ratingCount; both stay unset without ratings.
func CheckinsPerActivation(
	checkins []models.Checkin,
	activations []models.Activation,
	links []models.CheckinActivationLink,
	ratings []models.ActivationRating,
	ratingLinks []models.ActivationRatingLink,
) []ActivationCheckins {
	known := make(map[int64]struct{}, len(checkins))
	for _, c := range checkins {
		known[c.ID] = struct{}{}
	}

	order := make([]int64, 0, len(activations))
	tallies := make(map[int64]*activationTally, len(activations))
	for _, a := range activations {
		if _, dup := tallies[a.ID]; dup {
			continue
		}
		order = append(order, a.ID)
		tallies[a.ID] = &activationTally{name: a.Name, members: make(map[int64]struct{})}
	}

	for _, l := range links {
		t, ok := tallies[l.ActivationID]
		if !ok {
			continue
		}
		if _, ok := known[l.CheckinID]; !ok {
			continue
		}
		t.members[l.CheckinID] = struct{}{}
	}

	ratingsByID := make(map[int64]models.ActivationRating, len(ratings))
	for _, r := range ratings {
		ratingsByID[r.ID] = r
	}
	for _, l := range ratingLinks {
		t, ok := tallies[l.ActivationID]
		if !ok {
			continue
		}
		r, ok := ratingsByID[l.RatingID]
		if !ok {
			continue
		}
		if v, ok := leadingInt(strings.TrimSpace(r.Rating)); ok {
			t.rating.add(float64(v))
		}
	}

	out := make([]ActivationCheckins, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		if len(t.members) == 0 {
			continue
		}
		row := ActivationCheckins{ActivationName: t.name, CheckinCount: len(t.members)}
		if t.rating.count > 0 {
			avg, n := t.rating.value(), t.rating.count
			row.AvgRating = &avg
			row.RatingCount = &n
		}
		out = append(out, row)
	}

	slices.SortStableFunc(out, func(a, b ActivationCheckins) int {
		return b.CheckinCount - a.CheckinCount
	})
	return out
}

// UniqueUsersWithActivations counts the distinct users that have at least one check-in.
func UniqueUsersWithActivations(links []models.CheckinUserLink) int {
	users := make(map[int64]struct{}, len(links))
	for _, l := range links {
		users[l.UserID] = struct{}{}
	}
	return len(users)
}

func ActivationOptions(activations []models.Activation) []ActivationOption {
	out := make([]ActivationOption, 0, len(activations))
	for _, a := range activations {
		out = append(out, ActivationOption{ID: a.ID, Name: a.Name})
	}
	return out
}
