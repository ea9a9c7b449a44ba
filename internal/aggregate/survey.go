package aggregate

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/godilite/activation-insights/internal/repository/models"
)

const (
	IntentionNonClients = "Não Clientes"
	IntentionClients    = "Clientes"
)

var (
	ageMarkers                = []string{"idade"}
	commentClientMarkers      = []string{"cliente bb"}
	becomeClientMarkers       = []string{"vontade de se tornar cliente"}
	expandRelationshipMarkers = []string{"ampliar seu relacionamento", "ampliar o relacionamento"}
	experienceMarkers         = []string{"experiência no espaço", "experiencia no espaco"}
	clientStatusMarkers       = []string{"cliente bb", "cliente do banco do brasil", "você é cliente", "voce e cliente"}

	clientTokens    = []string{"sim", "yes"}
	nonClientTokens = []string{"não", "nao", "no"}
)

func findAnswer(answers []models.QuestionAnswer, markers []string) (models.QuestionAnswer, bool) {
	for _, qa := range answers {
		if containsAnyFold(qa.Question, markers...) {
			return qa, true
		}
	}
	return models.QuestionAnswer{}, false
}

// AgeDistribution counts respondents per literal age answer. Answers are
// used verbatim as keys. The series is ranked by count, ties in first-seen order.
func AgeDistribution(surveys []models.SurveyResponse) []CountByKey {
	ages := newCounter[string]()
	for _, s := range surveys {
		qa, ok := findAnswer(s.Answers, ageMarkers)
		if !ok || qa.Answer == "" {
			continue
		}
		ages.add(qa.Answer)
	}

	out := make([]CountByKey, 0, len(ages.keys()))
	for _, k := range ages.keys() {
		out = append(out, CountByKey{Key: k, Count: ages.count(k)})
	}
	slices.SortStableFunc(out, func(a, b CountByKey) int { return b.Count - a.Count })
	return out
}

// ClientIntention averages the willingness scores of non-clients (becoming a
// client) and clients (expanding the relationship). Groups without numeric
// answers are omitted.
func ClientIntention(surveys []models.SurveyResponse) []IntentionScore {
	var nonClients, clients mean
	for _, s := range surveys {
		for _, qa := range s.Answers {
			if qa.Question == "" {
				continue
			}
			v, ok := leadingInt(qa.Answer)
			if !ok {
				continue
			}
			switch {
			case containsAnyFold(qa.Question, becomeClientMarkers...):
				nonClients.add(float64(v))
			case containsAnyFold(qa.Question, expandRelationshipMarkers...):
				clients.add(float64(v))
			}
		}
	}

	out := []IntentionScore{}
	if nonClients.count > 0 {
		out = append(out, IntentionScore{Type: IntentionNonClients, Mean: nonClients.value()})
	}
	if clients.count > 0 {
		out = append(out, IntentionScore{Type: IntentionClients, Mean: clients.value()})
	}
	return out
}

// SatisfactionGrade rescales a 1-5 mean to 0-100. Values outside the scale are not clamped.
func SatisfactionGrade(meanScore float64) float64 {
	return round2((meanScore - 1) / 4 * 100)
}

// PerQuestionStats averages the numeric answers of every question, keyed by
// exact question text, in first-seen order. Age questions are excluded.
func PerQuestionStats(surveys []models.SurveyResponse) []SurveyQuestionStat {
	var order []string
	means := make(map[string]*mean)
	for _, s := range surveys {
		for _, qa := range s.Answers {
			if qa.Question == "" || qa.Answer == "" {
				continue
			}
			v, ok := leadingInt(qa.Answer)
			if !ok {
				continue
			}
			m, seen := means[qa.Question]
			if !seen {
				m = &mean{}
				means[qa.Question] = m
				order = append(order, qa.Question)
			}
			m.add(float64(v))
		}
	}

	out := make([]SurveyQuestionStat, 0, len(order))
	for _, q := range order {
		m := means[q]
		if m.count == 0 || containsAnyFold(q, ageMarkers...) {
			continue
		}
		avg := m.value()
		out = append(out, SurveyQuestionStat{
			QuestionText:      q,
			MeanScore:         avg,
			ResponseCount:     m.count,
			SatisfactionGrade: SatisfactionGrade(avg),
		})
	}
	return out
}

// AverageExperienceRating averages the first digit of each survey's
// experience-in-the-space answer. It returns "0" when nothing qualifies.
func AverageExperienceRating(surveys []models.SurveyResponse) string {
	var m mean
	for _, s := range surveys {
		qa, ok := findAnswer(s.Answers, experienceMarkers)
		if !ok || qa.Answer == "" {
			continue
		}
		if d := qa.Answer[0]; d >= '0' && d <= '9' {
			m.add(float64(d - '0'))
		}
	}
	if m.count == 0 {
		return "0"
	}
	return strconv.FormatFloat(m.sum/float64(m.count), 'f', 2, 64)
}

// ExtractComments returns one entry per non-blank free-text comment, newest first.
func ExtractComments(surveys []models.SurveyResponse) []Comment {
	out := []Comment{}
	for _, s := range surveys {
		var age, client string
		for _, qa := range s.Answers {
			if qa.Answer == "" {
				continue
			}
			if containsAnyFold(qa.Question, ageMarkers...) {
				age = qa.Answer
			}
			if containsAnyFold(qa.Question, commentClientMarkers...) {
				client = qa.Answer
			}
		}

		ts := s.CreatedAt
		if ts.IsZero() {
			ts = s.UpdatedAt
		}
		for _, qa := range s.Answers {
			if strings.TrimSpace(qa.Comment) == "" {
				continue
			}
			out = append(out, Comment{
				SurveyID:      s.ID,
				Text:          qa.Comment,
				Timestamp:     ts,
				RespondentAge: age,
				IsClientFlag:  client,
			})
		}
	}

	slices.SortStableFunc(out, func(a, b Comment) int {
		return compareTimeDesc(a.Timestamp, b.Timestamp)
	})
	return out
}

func compareTimeDesc(a, b time.Time) int {
	switch {
	case a.After(b):
		return -1
	case a.Before(b):
		return 1
	default:
		return 0
	}
}

// ClientDistribution splits respondents into clients and non-clients by their
// answer to the client-status question. Respondents without a classifiable
// answer are ignored.
func ClientDistribution(surveys []models.SurveyResponse) ClientDistributionStats {
	var d ClientDistributionStats
	for _, s := range surveys {
		switch clientStatus(s.Answers) {
		case answerYes:
			d.ClientCount++
		case answerNo:
			d.NonClientCount++
		}
	}
	d.TotalResponses = d.ClientCount + d.NonClientCount
	d.ClientPercentage = percentage(d.ClientCount, d.TotalResponses)
	d.NonClientPercentage = percentage(d.NonClientCount, d.TotalResponses)
	return d
}

type answerClass int

// clientStatus reads the first client-status answer that classifies. The
// willingness questions also mention being a client and are skipped.
func clientStatus(answers []models.QuestionAnswer) answerClass {
	for _, qa := range answers {
		if !containsAnyFold(qa.Question, clientStatusMarkers...) ||
			containsAnyFold(qa.Question, becomeClientMarkers...) ||
			containsAnyFold(qa.Question, expandRelationshipMarkers...) {
			continue
		}
		if c := classifyClientAnswer(qa.Answer); c != answerUnknown {
			return c
		}
	}
	return answerUnknown
}

const (
	answerUnknown answerClass = iota
	answerYes
	answerNo
)

// classifyClientAnswer matches the answer's words against yes/no tokens, yes first.
func classifyClientAnswer(answer string) answerClass {
	words := strings.FieldsFunc(fold(answer), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if hasAnyWord(words, clientTokens) {
		return answerYes
	}
	if hasAnyWord(words, nonClientTokens) {
		return answerNo
	}
	return answerUnknown
}

func hasAnyWord(words, tokens []string) bool {
	for _, w := range words {
		for _, t := range tokens {
			if w == fold(t) {
				return true
			}
		}
	}
	return false
}
