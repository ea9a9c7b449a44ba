package aggregate

import "github.com/godilite/activation-insights/internal/repository/models"

// Publishable is implemented by every soft-deletable table row.
type Publishable interface {
	IsPublished() bool
}

// FilterPublished returns the published rows of records in their original order.
func FilterPublished[T Publishable](records []T) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if r.IsPublished() {
			out = append(out, r)
		}
	}
	return out
}

// Tables is a snapshot with unpublished rows removed. Users and link tables
// carry no publication column and pass through as-is.
type Tables struct {
	Users                  []models.User
	Checkins               []models.Checkin
	Activations            []models.Activation
	Surveys                []models.SurveyResponse
	Redemptions            []models.Redemption
	Ratings                []models.ActivationRating
	CheckinActivationLinks []models.CheckinActivationLink
	CheckinUserLinks       []models.CheckinUserLink
	RatingActivationLinks  []models.ActivationRatingLink
}

func PublishedTables(s *models.Snapshot) Tables {
	if s == nil {
		return Tables{}
	}
	return Tables{
		Users:                  s.Users,
		Checkins:               FilterPublished(s.Checkins),
		Activations:            FilterPublished(s.Activations),
		Surveys:                FilterPublished(s.Surveys),
		Redemptions:            FilterPublished(s.Redemptions),
		Ratings:                FilterPublished(s.Ratings),
		CheckinActivationLinks: s.CheckinActivationLinks,
		CheckinUserLinks:       s.CheckinUserLinks,
		RatingActivationLinks:  s.RatingActivationLinks,
	}
}
