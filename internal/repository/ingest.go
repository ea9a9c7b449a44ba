package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/godilite/activation-insights/internal/repository/models"
)

// Upstream table names.
const (
	tableUsers                 = "up_users"
	tableCheckins              = "checkins"
	tableActivations           = "ativacoes"
	tableSurveys               = "pesquisa_experiencias"
	tableRedemptions           = "resgates"
	tableRedemptionsFallback   = "resgates_brinde_lnk"
	tableRatings               = "avaliacao_de_ativacaos"
	tableCheckinActivationLink = "checkins_ativacao_lnk"
	tableCheckinUserLink       = "checkins_users_permissions_user_lnk"
	tableRatingActivationLink  = "avaliacao_de_ativacaos_ativacao_lnk"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseSnapshot decodes the `{tables: {<name>: {data: [...]}}}` document.
// Missing tables become empty slices and malformed rows are dropped per table.
func parseSnapshot(body []byte, logger *zap.Logger) (*models.Snapshot, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedSnapshot)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedSnapshot)
	}
	tables := root.Get("tables")

	redemptionTable := tableRedemptions
	if !tables.Get(tableRedemptions).Exists() && tables.Get(tableRedemptionsFallback).Exists() {
		redemptionTable = tableRedemptionsFallback
	}

	return &models.Snapshot{
		Users:                  decodeTable(tables, tableUsers, logger, decodeUser),
		Checkins:               decodeTable(tables, tableCheckins, logger, decodeCheckin),
		Activations:            decodeTable(tables, tableActivations, logger, decodeActivation),
		Surveys:                decodeTable(tables, tableSurveys, logger, decodeSurvey),
		Redemptions:            decodeTable(tables, redemptionTable, logger, decodeRedemption),
		Ratings:                decodeTable(tables, tableRatings, logger, decodeRating),
		CheckinActivationLinks: decodeTable(tables, tableCheckinActivationLink, logger, decodeCheckinActivationLink),
		CheckinUserLinks:       decodeTable(tables, tableCheckinUserLink, logger, decodeCheckinUserLink),
		RatingActivationLinks:  decodeTable(tables, tableRatingActivationLink, logger, decodeRatingActivationLink),
	}, nil
}

func decodeTable[T any](tables gjson.Result, name string, logger *zap.Logger, decode func(gjson.Result) (T, bool)) []T {
	data := tables.Get(name + ".data")
	if !data.IsArray() {
		return []T{}
	}
	rows := data.Array()
	out := make([]T, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		if !row.IsObject() {
			skipped++
			continue
		}
		v, ok := decode(row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, v)
	}
	if skipped > 0 {
		logger.Warn("skipped malformed rows",
			zap.String("table", name),
			zap.Int("skipped", skipped),
			zap.Int("kept", len(out)))
	}
	return out
}

func decodeUser(row gjson.Result) (models.User, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.User{}, false
	}
	return models.User{ID: id, CreatedAt: parseTimestamp(row.Get("created_at"))}, true
}

func decodeCheckin(row gjson.Result) (models.Checkin, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.Checkin{}, false
	}
	published, at := publication(row)
	return models.Checkin{
		ID:          id,
		CreatedAt:   parseTimestamp(row.Get("created_at")),
		Published:   published,
		PublishedAt: at,
	}, true
}

func decodeActivation(row gjson.Result) (models.Activation, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.Activation{}, false
	}
	published, at := publication(row)
	return models.Activation{
		ID:          id,
		Name:        row.Get("nome").String(),
		Published:   published,
		PublishedAt: at,
	}, true
}

func decodeSurvey(row gjson.Result) (models.SurveyResponse, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.SurveyResponse{}, false
	}
	published, at := publication(row)
	return models.SurveyResponse{
		ID:          id,
		CreatedAt:   parseTimestamp(row.Get("created_at")),
		UpdatedAt:   parseTimestamp(row.Get("updated_at")),
		Published:   published,
		PublishedAt: at,
		Answers:     decodeAnswers(row.Get("pergunta_resposta")),
	}, true
}

// decodeAnswers accepts the list either inline or as a JSON-encoded string.
func decodeAnswers(v gjson.Result) []models.QuestionAnswer {
	if v.Type == gjson.String {
		if !gjson.Valid(v.Str) {
			return nil
		}
		v = gjson.Parse(v.Str)
	}
	if !v.IsArray() {
		return nil
	}
	var out []models.QuestionAnswer
	v.ForEach(func(_, item gjson.Result) bool {
		if item.IsObject() {
			out = append(out, models.QuestionAnswer{
				Question: item.Get("pergunta").String(),
				Answer:   item.Get("resposta").String(),
				Comment:  item.Get("comentario").String(),
			})
		}
		return true
	})
	return out
}

func decodeRedemption(row gjson.Result) (models.Redemption, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.Redemption{}, false
	}
	published, at := publication(row)
	return models.Redemption{
		ID:          id,
		CreatedAt:   parseTimestamp(row.Get("created_at")),
		Published:   published,
		PublishedAt: at,
	}, true
}

func decodeRating(row gjson.Result) (models.ActivationRating, bool) {
	id, ok := positiveID(row.Get("id"))
	if !ok {
		return models.ActivationRating{}, false
	}
	published, at := publication(row)
	return models.ActivationRating{
		ID:          id,
		Rating:      row.Get("avaliacao").String(),
		Published:   published,
		PublishedAt: at,
	}, true
}

func decodeCheckinActivationLink(row gjson.Result) (models.CheckinActivationLink, bool) {
	checkin, ok1 := positiveID(row.Get("checkin_id"))
	activation, ok2 := positiveID(row.Get("ativacao_id"))
	return models.CheckinActivationLink{CheckinID: checkin, ActivationID: activation}, ok1 && ok2
}

func decodeCheckinUserLink(row gjson.Result) (models.CheckinUserLink, bool) {
	checkin, ok1 := positiveID(row.Get("checkin_id"))
	user, ok2 := positiveID(row.Get("user_id"))
	return models.CheckinUserLink{CheckinID: checkin, UserID: user}, ok1 && ok2
}

func decodeRatingActivationLink(row gjson.Result) (models.ActivationRatingLink, bool) {
	rating, ok1 := positiveID(row.Get("avaliacao_de_ativacao_id"))
	activation, ok2 := positiveID(row.Get("ativacao_id"))
	return models.ActivationRatingLink{RatingID: rating, ActivationID: activation}, ok1 && ok2
}

func positiveID(v gjson.Result) (int64, bool) {
	switch v.Type {
	case gjson.Number:
		if v.Num != float64(int64(v.Num)) {
			return 0, false
		}
	case gjson.String:
		if _, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}
	id := v.Int()
	return id, id > 0
}

// publication treats a missing published_at as published and an explicit null as a draft.
func publication(row gjson.Result) (bool, time.Time) {
	v := row.Get("published_at")
	if !v.Exists() {
		return true, time.Time{}
	}
	if v.Type == gjson.Null {
		return false, time.Time{}
	}
	return true, parseTimestamp(v)
}

// parseTimestamp returns the zero time for anything it cannot read.
func parseTimestamp(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.Number:
		return time.UnixMilli(v.Int()).UTC()
	case gjson.String:
		s := strings.TrimSpace(v.Str)
		if s == "" {
			return time.Time{}
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC()
		}
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
