package aggregate_test

import (
	"testing"
	"time"

	"github.com/godilite/activation-insights/internal/aggregate"
	"github.com/godilite/activation-insights/internal/repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func survey(id int64, answers ...models.QuestionAnswer) models.SurveyResponse {
	return models.SurveyResponse{ID: id, Published: true, Answers: answers}
}

func qa(question, answer string) models.QuestionAnswer {
	return models.QuestionAnswer{Question: question, Answer: answer}
}

func TestPerQuestionStats(t *testing.T) {
	t.Run("leading integer mean and grade", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa("Quão relevante foi o conteúdo?", "4 - Concordo")),
			survey(2, qa("Quão relevante foi o conteúdo?", "2 - Discordo")),
		}
		got := aggregate.PerQuestionStats(surveys)
		require.Len(t, got, 1)
		assert.Equal(t, aggregate.SurveyQuestionStat{
			QuestionText:      "Quão relevante foi o conteúdo?",
			MeanScore:         3.00,
			ResponseCount:     2,
			SatisfactionGrade: 50.00,
		}, got[0])
	})

	t.Run("non-numeric answers and age questions are excluded", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1,
				qa("Qual a sua idade?", "25"),
				qa("Comentário livre", "Gostei muito"),
				qa("Nota geral", "5"),
			),
			survey(2, qa("Nota geral", "Ótimo 5")),
		}
		got := aggregate.PerQuestionStats(surveys)
		require.Len(t, got, 1)
		assert.Equal(t, "Nota geral", got[0].QuestionText)
		assert.Equal(t, 1, got[0].ResponseCount)
		assert.Equal(t, 100.0, got[0].SatisfactionGrade)
	})

	t.Run("question text is matched exactly", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa("Nota", "3")),
			survey(2, qa("nota", "5")),
			survey(3, qa("Nota ", "1")),
		}
		assert.Len(t, aggregate.PerQuestionStats(surveys), 3)
	})

	t.Run("rounding to two decimals", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa("Nota", "5")),
			survey(2, qa("Nota", "4")),
			survey(3, qa("Nota", "4")),
		}
		got := aggregate.PerQuestionStats(surveys)
		require.Len(t, got, 1)
		assert.Equal(t, 4.33, got[0].MeanScore)
		assert.Equal(t, 83.25, got[0].SatisfactionGrade)
	})

	t.Run("scores outside the scale are not clamped", func(t *testing.T) {
		got := aggregate.PerQuestionStats([]models.SurveyResponse{survey(1, qa("NPS", "10"))})
		require.Len(t, got, 1)
		assert.Equal(t, 225.0, got[0].SatisfactionGrade)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, aggregate.PerQuestionStats(nil))
	})
}

func TestAgeDistribution(t *testing.T) {
	surveys := []models.SurveyResponse{
		survey(1, qa("Qual a sua idade?", "18 a 24 anos")),
		survey(2, qa("Qual a sua idade?", "25 a 34 anos")),
		survey(3, qa("Qual a sua idade?", "25 a 34 anos")),
		survey(4, qa("Qual a sua idade?", "")),
		survey(5, qa("Outra pergunta", "18 a 24 anos")),
		survey(6, qa("Qual a sua idade?", "25-34")),
	}

	got := aggregate.AgeDistribution(surveys)
	assert.Equal(t, []aggregate.CountByKey{
		{Key: "25 a 34 anos", Count: 2},
		{Key: "18 a 24 anos", Count: 1},
		{Key: "25-34", Count: 1},
	}, got)
}

func TestClientIntention(t *testing.T) {
	t.Run("means per respondent group", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa("Qual sua vontade de se tornar cliente BB?", "4")),
			survey(2, qa("Qual sua vontade de se tornar cliente BB?", "5 - Muita")),
			survey(3, qa("Qual sua vontade de ampliar seu relacionamento com o BB?", "3")),
			survey(4, qa("Vontade de AMPLIAR O RELACIONAMENTO com o banco", "4")),
			survey(5, qa("Qual sua vontade de se tornar cliente BB?", "Não sei")),
		}
		got := aggregate.ClientIntention(surveys)
		assert.Equal(t, []aggregate.IntentionScore{
			{Type: aggregate.IntentionNonClients, Mean: 4.5},
			{Type: aggregate.IntentionClients, Mean: 3.5},
		}, got)
	})

	t.Run("groups without responses are omitted", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa("Qual sua vontade de ampliar o relacionamento?", "2")),
		}
		got := aggregate.ClientIntention(surveys)
		assert.Equal(t, []aggregate.IntentionScore{{Type: aggregate.IntentionClients, Mean: 2}}, got)
		assert.Empty(t, aggregate.ClientIntention(nil))
	})
}

func TestAverageExperienceRating(t *testing.T) {
	tests := []struct {
		name    string
		surveys []models.SurveyResponse
		want    string
	}{
		{name: "empty survey list", want: "0"},
		{
			name:    "no qualifying answers",
			surveys: []models.SurveyResponse{survey(1, qa("Como foi sua experiência no espaço?", "Boa"))},
			want:    "0",
		},
		{
			name: "both phrasings recognised",
			surveys: []models.SurveyResponse{
				survey(1, qa("Como foi sua experiência no espaço?", "5 - Excelente")),
				survey(2, qa("Como foi sua experiencia no espaco?", "4")),
				survey(3, qa("Como foi sua experiência no espaço?", "4")),
			},
			want: "4.33",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, aggregate.AverageExperienceRating(tc.surveys))
		})
	}
}

func TestExtractComments(t *testing.T) {
	older := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

	surveys := []models.SurveyResponse{
		{
			ID:        1,
			CreatedAt: older,
			Answers: []models.QuestionAnswer{
				{Question: "Qual a sua idade?", Answer: "25 a 34 anos"},
				{Question: "Você é cliente BB?", Answer: "Sim"},
				{Question: "Nota geral", Answer: "5", Comment: "Adorei o espaço"},
				{Question: "Relevância", Answer: "4", Comment: "   "},
				{Question: "Interesse", Answer: "4", Comment: "Poderia ter mais sessões"},
			},
		},
		{
			ID:        2,
			UpdatedAt: newer,
			Answers: []models.QuestionAnswer{
				{Question: "Nota geral", Answer: "3", Comment: "Fila grande"},
			},
		},
		survey(3, qa("Nota geral", "4")),
	}

	got := aggregate.ExtractComments(surveys)
	require.Len(t, got, 3)

	assert.Equal(t, aggregate.Comment{SurveyID: 2, Text: "Fila grande", Timestamp: newer}, got[0])
	assert.Equal(t, int64(1), got[1].SurveyID)
	assert.Equal(t, "Adorei o espaço", got[1].Text)
	assert.Equal(t, "25 a 34 anos", got[1].RespondentAge)
	assert.Equal(t, "Sim", got[1].IsClientFlag)
	assert.Equal(t, "Poderia ter mais sessões", got[2].Text)
}

func TestClientDistribution(t *testing.T) {
	const q = "Você é cliente BB?"

	t.Run("three yes one no", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa(q, "Sim")),
			survey(2, qa(q, "sim")),
			survey(3, qa(q, "Sim, há 5 anos")),
			survey(4, qa(q, "Não")),
		}
		assert.Equal(t, aggregate.ClientDistributionStats{
			TotalResponses:      4,
			ClientCount:         3,
			NonClientCount:      1,
			ClientPercentage:    75.00,
			NonClientPercentage: 25.00,
		}, aggregate.ClientDistribution(surveys))
	})

	t.Run("unclassified answers leave the denominator", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1, qa(q, "Sim")),
			survey(2, qa(q, "Não, mas tenho interesse")),
			survey(3, qa(q, "Talvez")),
			survey(4, qa("É cliente do Banco do Brasil?", "nao")),
			survey(5, qa(q, "Não")),
		}
		got := aggregate.ClientDistribution(surveys)
		assert.Equal(t, 4, got.TotalResponses)
		assert.Equal(t, 1, got.ClientCount)
		assert.Equal(t, 3, got.NonClientCount)
		assert.Equal(t, 25.0, got.ClientPercentage)
		assert.Equal(t, 75.0, got.NonClientPercentage)
	})

	t.Run("willingness question mentioning the bank is not the status question", func(t *testing.T) {
		surveys := []models.SurveyResponse{
			survey(1,
				qa("Qual a sua vontade de se tornar cliente do Banco do Brasil?", "4 - Alta"),
				qa(q, "Não"),
			),
			survey(2, qa(q, "Sim")),
		}
		assert.Equal(t, aggregate.ClientDistributionStats{
			TotalResponses:      2,
			ClientCount:         1,
			NonClientCount:      1,
			ClientPercentage:    50.00,
			NonClientPercentage: 50.00,
		}, aggregate.ClientDistribution(surveys))
	})

	t.Run("no responses", func(t *testing.T) {
		assert.Equal(t, aggregate.ClientDistributionStats{}, aggregate.ClientDistribution(nil))
	})
}

func TestAggregatorsAreIdempotent(t *testing.T) {
	surveys := []models.SurveyResponse{
		survey(1, qa("Nota", "5"), qa("Qual a sua idade?", "30")),
		survey(2, qa("Nota", "3"), qa("Qual a sua idade?", "40")),
	}
	assert.Equal(t, aggregate.PerQuestionStats(surveys), aggregate.PerQuestionStats(surveys))
	assert.Equal(t, aggregate.AgeDistribution(surveys), aggregate.AgeDistribution(surveys))
	assert.Equal(t, aggregate.ExtractComments(surveys), aggregate.ExtractComments(surveys))
}
