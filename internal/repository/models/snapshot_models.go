package models

import "time"

type Checkin struct {
	ID          int64
	CreatedAt   time.Time
	Published   bool
	PublishedAt time.Time
}

func (c Checkin) IsPublished() bool { return c.Published }

type User struct {
	ID        int64
	CreatedAt time.Time
}

type Activation struct {
	ID          int64
	Name        string
	Published   bool
	PublishedAt time.Time
}

func (a Activation) IsPublished() bool { return a.Published }

// QuestionAnswer is one entry of a survey's pergunta_resposta list.
type QuestionAnswer struct {
	Question string
	Answer   string
	Comment  string
}

type SurveyResponse struct {
	ID          int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Published   bool
	PublishedAt time.Time
	Answers     []QuestionAnswer
}

func (s SurveyResponse) IsPublished() bool { return s.Published }

type ActivationRating struct {
	ID          int64
	Rating      string
	Published   bool
	PublishedAt time.Time
}

func (r ActivationRating) IsPublished() bool { return r.Published }

type Redemption struct {
	ID          int64
	CreatedAt   time.Time
	Published   bool
	PublishedAt time.Time
}

func (r Redemption) IsPublished() bool { return r.Published }

type CheckinActivationLink struct {
	CheckinID    int64
	ActivationID int64
}

type CheckinUserLink struct {
	CheckinID int64
	UserID    int64
}

type ActivationRatingLink struct {
	RatingID     int64
	ActivationID int64
}

// Snapshot holds every table of one upstream fetch after row normalisation.
// Publication filtering has not been applied yet.
type Snapshot struct {
	ID        string
	FetchedAt time.Time

	Users                  []User
	Checkins               []Checkin
	Activations            []Activation
	Surveys                []SurveyResponse
	Redemptions            []Redemption
	Ratings                []ActivationRating
	CheckinActivationLinks []CheckinActivationLink
	CheckinUserLinks       []CheckinUserLink
	RatingActivationLinks  []ActivationRatingLink
}
