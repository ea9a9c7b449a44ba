package service

import (
	"time"

	"github.com/godilite/activation-insights/internal/aggregate"
)

// SnapshotInfo identifies the snapshot a response was computed from.
type SnapshotInfo struct {
	ID        string    `json:"snapshotId"`
	FetchedAt time.Time `json:"fetchedAt"`
	Checkins  int       `json:"checkins"`
	Surveys   int       `json:"surveys"`
}

// Filter narrows the activation-aware series of a Dashboard.
// A nil ActivationID and an empty Date both mean "no filter".
type Filter struct {
	ActivationID *int64 `json:"activationId,omitempty"`
	Date         string `json:"date,omitempty"`
}

// Dashboard is every card and chart series for one filter selection.
type Dashboard struct {
	Snapshot SnapshotInfo `json:"snapshot"`
	Filter   Filter       `json:"filter"`

	TotalUsers              int    `json:"totalUsers"`
	TotalCheckins           int    `json:"totalCheckins"`
	TotalRedemptions        int    `json:"totalResgates"`
	ActivationsWithCheckins int    `json:"activationsWithCheckins"`
	AverageSurveyRating     string `json:"averageSurveyRating"`

	CheckinsPerDay        []aggregate.CountByKey         `json:"checkinsPerDay"`
	CheckinsPerActivation []aggregate.ActivationCheckins `json:"checkinsPerActivation"`
	UsersPerDay           []aggregate.CountByKey         `json:"usersPerDay"`
	AgeDistribution       []aggregate.CountByKey         `json:"ageDistribution"`
	ClientIntention       []aggregate.IntentionScore     `json:"clientIntention"`
	ActivationsByTime     []aggregate.CountByKey         `json:"activationsByTime"`
	SurveyQuestions       []aggregate.SurveyQuestionStat `json:"surveyQuestions"`
	EngagementFunnel      []aggregate.FunnelPoint        `json:"engagementFunnel"`
	Activations           []aggregate.ActivationOption   `json:"activations"`
	AvailableDates        []string                       `json:"availableDates"`
}

// SurveyInsights is the survey analysis page.
type SurveyInsights struct {
	Snapshot SnapshotInfo `json:"snapshot"`

	Questions               []aggregate.SurveyQuestionStat    `json:"questions"`
	Blocks                  []aggregate.SatisfactionBlock     `json:"blocks"`
	Comments                []aggregate.Comment               `json:"comments"`
	ClientDistribution      aggregate.ClientDistributionStats `json:"clientDistribution"`
	ClientIntention         []aggregate.IntentionScore        `json:"clientIntention"`
	AgeDistribution         []aggregate.CountByKey            `json:"ageDistribution"`
	AverageExperienceRating string                            `json:"averageExperienceRating"`
}
