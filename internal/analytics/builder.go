package analytics

import (
	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Only fully submitted responses are ever persisted, so every stored
// response is complete. This stays a constant until the surrounding
// system starts persisting partials.
const completionRate = 100

// Builder orchestrates the normalizer and aggregator across a whole
// survey and one point-in-time response snapshot.
type Builder struct {
	logger *logger.Logger
}

func Init(logger *logger.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build produces the full analytics aggregate for the survey. It is a
// pure transformation of its inputs: calling it twice on the same
// snapshot yields identical output, and it never fails on malformed
// data — malformed questions are skipped, malformed answers dropped.
func (b *Builder) Build(survey *entity.Survey, responses []*entity.RawResponse) *entity.SurveyAnalytics {
	result := &entity.SurveyAnalytics{
		SurveyID:       survey.ID.String(),
		TotalResponses: len(responses),
		CompletionRate: completionRate,
		// No timing instrumentation exists yet, so there is nothing
		// real to put here.
		AverageTime: 0,
		Responses:   make(map[string]entity.QuestionAnalytics, len(survey.Questions)),
	}

	normalized := make([]entity.AnswerMap, len(responses))
	for i, response := range responses {
		normalized[i] = Normalize(response, b.logger)
	}

	for i := range survey.Questions {
		question := &survey.Questions[i]

		if question.ID == uuid.Nil {
			b.logger.Warn("skipping question without id",
				zap.String("survey_id", survey.ID.String()),
				zap.Uint("order_number", question.OrderNumber))
			continue
		}

		questionID := question.ID.String()
		answers := make([]any, 0, len(normalized))

		for _, answerMap := range normalized {
			value, ok := answerMap[questionID]
			if !ok || !hasContent(value) {
				continue
			}
			answers = append(answers, value)
		}

		result.Responses[questionID] = Aggregate(question, answers)
	}

	return result
}

// hasContent filters out the values that mean "no answer": nil and
// the empty string. Empty selections stay, the aggregator ignores
// them per type.
func hasContent(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok && s == "" {
		return false
	}
	return true
}
