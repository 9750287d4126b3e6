// Package analytics turns raw survey responses into per-question
// statistical summaries for the rendering layer.
package analytics

import (
	"encoding/json"
	"strings"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"go.uber.org/zap"
)

// idExtractors resolve a question id from a raw answer entry. They are
// tried in order, first non-empty result wins. The order matters: the
// embedded question object is the newest submission shape, the bare
// string the oldest.
var idExtractors = []func(*entity.RawAnswer) string{
	func(a *entity.RawAnswer) string { return embeddedQuestionID(a.Question) },
	func(a *entity.RawAnswer) string { return a.QuestionID },
	func(a *entity.RawAnswer) string { return a.QuestionIDAlt },
	func(a *entity.RawAnswer) string { return rawQuestionString(a.Question) },
}

// valueExtractors resolve the answer value, again first match wins.
// Absent fields are skipped, not treated as empty values.
var valueExtractors = []func(*entity.RawAnswer) (any, bool){
	func(a *entity.RawAnswer) (any, bool) {
		if a.TextAnswer == nil {
			return nil, false
		}
		return *a.TextAnswer, true
	},
	func(a *entity.RawAnswer) (any, bool) {
		if a.ChoiceAnswers == nil {
			return nil, false
		}
		return a.ChoiceAnswers, true
	},
	func(a *entity.RawAnswer) (any, bool) { return a.Answer, a.Answer != nil },
	func(a *entity.RawAnswer) (any, bool) { return a.Value, a.Value != nil },
}

// Normalize reconciles one raw response, in any of the tolerated
// historical shapes, into the canonical questionId->value mapping.
//
// A record already carrying a flat Responses map passes through
// unchanged. Otherwise each Answers entry is resolved through the
// ranked extractor lists above. Entries that resolve neither an id nor
// a value are dropped: data from several backend generations has to
// coexist, so malformed entries are logged and skipped, never fatal.
func Normalize(raw *entity.RawResponse, log *logger.Logger) entity.AnswerMap {
	if raw == nil {
		return entity.AnswerMap{}
	}

	if raw.Responses != nil {
		return raw.Responses
	}

	out := make(entity.AnswerMap, len(raw.Answers))

	for i := range raw.Answers {
		answer := &raw.Answers[i]

		id := resolveID(answer)
		if id == "" {
			log.Debug("dropping answer without resolvable question id",
				zap.String("response_id", raw.ID),
				zap.Int("answer_index", i))
			continue
		}

		value, ok := resolveValue(answer)
		if !ok {
			log.Debug("dropping answer without resolvable value",
				zap.String("response_id", raw.ID),
				zap.String("question_id", id))
			continue
		}

		out[id] = value
	}

	return out
}

func resolveID(answer *entity.RawAnswer) string {
	for _, extract := range idExtractors {
		if id := extract(answer); id != "" {
			return id
		}
	}
	return ""
}

func resolveValue(answer *entity.RawAnswer) (any, bool) {
	for _, extract := range valueExtractors {
		if value, ok := extract(answer); ok {
			return value, true
		}
	}
	return nil, false
}

// embeddedQuestionID handles the shape where the question field is an
// object carrying its own id.
func embeddedQuestionID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var embedded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &embedded); err != nil {
		return ""
	}

	return embedded.ID
}

// rawQuestionString handles the shape where the question field is the
// id itself as a bare JSON string.
func rawQuestionString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return ""
	}

	return strings.TrimSpace(id)
}
