// Package aggregate derives the dashboard's metrics and chart series from the
// tables of an upstream snapshot. Every function is pure: inputs are never
// mutated and repeated calls on the same input return identical output.
package aggregate

import "time"

// CountByKey is one point of a count series. Keys are unique within a series.
type CountByKey struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type ActivationCheckins struct {
	ActivationName string   `json:"activationName"`
	CheckinCount   int      `json:"checkinCount"`
	AvgRating      *float64 `json:"avgRating,omitempty"`
	RatingCount    *int     `json:"ratingCount,omitempty"`
}

// IntentionScore carries the mean willingness score of one respondent group.
// The JSON field stays "count" for the dashboard's existing chart bindings.
type IntentionScore struct {
	Type string  `json:"type"`
	Mean float64 `json:"count"`
}

type SurveyQuestionStat struct {
	QuestionText      string  `json:"questionText"`
	MeanScore         float64 `json:"meanScore"`
	ResponseCount     int     `json:"responseCount"`
	SatisfactionGrade float64 `json:"satisfactionGrade"`
}

type BlockCategory string

const (
	CategorySatisfaction BlockCategory = "satisfaction"
	CategoryPositioning  BlockCategory = "positioning"
	CategoryRelationship BlockCategory = "relationship"
)

type SatisfactionBlock struct {
	Title          string               `json:"title"`
	Category       BlockCategory        `json:"category"`
	Questions      []SurveyQuestionStat `json:"questions"`
	BlockMeanScore float64              `json:"blockMeanScore"`
	BlockGrade     float64              `json:"blockGrade"`
}

type Comment struct {
	SurveyID      int64     `json:"surveyId"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
	RespondentAge string    `json:"respondentAge,omitempty"`
	IsClientFlag  string    `json:"isClientFlag,omitempty"`
}

type ClientDistributionStats struct {
	TotalResponses      int     `json:"totalResponses"`
	ClientCount         int     `json:"clientCount"`
	NonClientCount      int     `json:"nonClientCount"`
	ClientPercentage    float64 `json:"clientPercentage"`
	NonClientPercentage float64 `json:"nonClientPercentage"`
}

// FunnelPoint pairs registrations and check-ins for one display date.
type FunnelPoint struct {
	Date     string `json:"date"`
	Users    int    `json:"users"`
	Checkins int    `json:"checkins"`
}

type ActivationOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
