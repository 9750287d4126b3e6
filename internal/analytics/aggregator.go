package analytics

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/montanaflynn/stats"
)

const (
	// RatingScale is the number of score buckets for rating questions.
	RatingScale = 5

	// TextDisplayCap limits how many text responses are carried in the
	// summary; the uncapped count stays in TotalAnswers so the UI can
	// offer a "show N more" affordance.
	TextDisplayCap = 10
)

// Aggregate computes the statistical summary for one question from the
// normalized answer values collected for it. Unknown question types
// degrade to a capped raw response list instead of failing, so newer
// question kinds do not break older analytics consumers.
func Aggregate(question *entity.Question, answers []any) entity.QuestionAnalytics {
	switch question.Type {
	case entity.TypeRating:
		return aggregateRating(answers)
	case entity.TypeMultipleChoice, entity.TypeDropdown:
		return aggregateSingleChoice(question, answers)
	case entity.TypeCheckbox:
		return aggregateCheckbox(question, answers)
	case entity.TypeShortText, entity.TypeLongText:
		return aggregateText(question.Type, answers)
	default:
		return aggregateText(entity.TypeUnknown, answers)
	}
}

func aggregateRating(answers []any) entity.QuestionAnalytics {
	counts := make([]int, RatingScale)
	valid := make([]float64, 0, len(answers))

	for _, answer := range answers {
		score, ok := parseRating(answer)
		if !ok || score < 1 || score > RatingScale {
			continue
		}

		counts[score-1]++
		valid = append(valid, float64(score))
	}

	// stats.Mean errors on empty input; the contract is 0, never NaN.
	average := 0.0
	if len(valid) > 0 {
		if mean, err := stats.Mean(valid); err == nil {
			average = mean
		}
	}

	return entity.QuestionAnalytics{
		Type:         entity.TypeRating,
		RatingCounts: counts,
		Average:      average,
		TotalAnswers: len(valid),
	}
}

func aggregateSingleChoice(question *entity.Question, answers []any) entity.QuestionAnalytics {
	options, index := declaredOptions(question)

	for _, answer := range answers {
		selected, ok := singleChoiceValue(answer)
		if !ok {
			continue
		}

		// Answers naming options the question no longer declares are
		// not counted.
		if i, known := index[selected]; known {
			options[i].Count++
		}
	}

	return entity.QuestionAnalytics{
		Type:         question.Type,
		Options:      options,
		TotalAnswers: len(answers),
	}
}

func aggregateCheckbox(question *entity.Question, answers []any) entity.QuestionAnalytics {
	options, index := declaredOptions(question)

	for _, answer := range answers {
		for _, selected := range selectedSet(answer) {
			if i, known := index[selected]; known {
				options[i].Count++
			}
		}
	}

	return entity.QuestionAnalytics{
		Type:         entity.TypeCheckbox,
		Options:      options,
		TotalAnswers: len(answers),
	}
}

func aggregateText(kind entity.QuestionType, answers []any) entity.QuestionAnalytics {
	responses := make([]string, 0, TextDisplayCap)

	for _, answer := range answers {
		if len(responses) == TextDisplayCap {
			break
		}
		if text, ok := answer.(string); ok {
			responses = append(responses, text)
		}
	}

	return entity.QuestionAnalytics{
		Type:         kind,
		Responses:    responses,
		TotalAnswers: len(answers),
	}
}

// declaredOptions builds the zero-initialized counters for every
// declared option in declared order, plus an option->index lookup.
func declaredOptions(question *entity.Question) ([]entity.OptionCount, map[string]int) {
	options := make([]entity.OptionCount, len(question.Options))
	index := make(map[string]int, len(question.Options))

	for i, option := range question.Options {
		options[i] = entity.OptionCount{Option: option}
		if _, seen := index[option]; !seen {
			index[option] = i
		}
	}

	return options, index
}

func parseRating(answer any) (int, bool) {
	switch v := answer.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		score, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return score, true
	default:
		return 0, false
	}
}

// singleChoiceValue extracts the selected option text. Single selects
// from the list-shaped submission path arrive as one-element arrays.
func singleChoiceValue(answer any) (string, bool) {
	switch v := answer.(type) {
	case string:
		return v, true
	case []string:
		if len(v) == 1 {
			return v[0], true
		}
	case []any:
		if len(v) == 1 {
			if s, ok := v[0].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// selectedSet resolves a checkbox answer into its selected options. A
// string answer is first tried as a JSON-encoded array, because some
// transports serialize the multi-select that way; a string that fails
// to decode counts as a single selected value.
func selectedSet(answer any) []string {
	switch v := answer.(type) {
	case []string:
		return v
	case []any:
		selected := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				selected = append(selected, s)
			}
		}
		return selected
	case string:
		var decoded []string
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return decoded
		}
		return []string{v}
	default:
		return nil
	}
}
