package aggregate

import "github.com/godilite/activation-insights/internal/repository/models"

// Membership is the set of left-side ids of a link table that reference one
// target. The zero value is unrestricted and contains every id.
type Membership struct {
	restricted bool
	ids        map[int64]struct{}
}

func (m Membership) Contains(id int64) bool {
	if !m.restricted {
		return true
	}
	_, ok := m.ids[id]
	return ok
}

func (m Membership) Unrestricted() bool { return !m.restricted }

// Len reports the member count, or -1 when unrestricted.
func (m Membership) Len() int {
	if !m.restricted {
		return -1
	}
	return len(m.ids)
}

// ResolveMembership collects the left ids of links whose right id equals
// target. A nil target yields an unrestricted membership.
func ResolveMembership[L any](links []L, target *int64, pair func(L) (left, right int64)) Membership {
	if target == nil {
		return Membership{}
	}
	m := Membership{restricted: true, ids: make(map[int64]struct{})}
	for _, l := range links {
		left, right := pair(l)
		if right == *target {
			m.ids[left] = struct{}{}
		}
	}
	return m
}

// CheckinsOfActivation answers which check-in ids belong to an activation.
func CheckinsOfActivation(links []models.CheckinActivationLink, activationID *int64) Membership {
	return ResolveMembership(links, activationID, func(l models.CheckinActivationLink) (int64, int64) {
		return l.CheckinID, l.ActivationID
	})
}
