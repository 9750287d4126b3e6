package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	// RawAnswer is one answer entry as it arrives from any of the
	// historical submission paths. Only a subset of the fields is
	// populated depending on which backend version produced it.
	RawAnswer struct {
		// Question is either a bare id string or an embedded
		// object carrying an "id" field.
		Question      json.RawMessage `json:"question,omitempty"`
		QuestionID    string          `json:"question_id,omitempty"`
		QuestionIDAlt string          `json:"questionId,omitempty"`
		TextAnswer    *string         `json:"text_answer,omitempty"`
		ChoiceAnswers []string        `json:"choice_answers,omitempty"`
		Answer        any             `json:"answer,omitempty"`
		Value         any             `json:"value,omitempty"`
	}

	// RawResponse is one respondent's submission in any tolerated
	// shape: either a canonical flat Responses map keyed by question
	// id, or an Answers array of per-question entries.
	RawResponse struct {
		ID              string         `json:"id,omitempty"`
		SurveyID        string         `json:"survey_id,omitempty"`
		Responses       map[string]any `json:"responses,omitempty"`
		Answers         []RawAnswer    `json:"answers,omitempty"`
		RespondentEmail string         `json:"respondent_email,omitempty"`
		SubmittedAt     time.Time      `json:"submitted_at,omitempty"`
	}

	// ResponseRecord is the persisted form of a submission: answers
	// are stored canonically as a questionId->value JSON column.
	ResponseRecord struct {
		ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
		SurveyID        uuid.UUID `gorm:"type:uuid;index"      json:"survey_id"`
		RespondentEmail string    `json:"respondent_email,omitempty"`
		Answers         AnswerMap `gorm:"type:text"            json:"responses"`
		SubmittedAt     time.Time `json:"submitted_at"`
	}
)

// AnswerMap stores the canonical questionId->value mapping as a JSON
// column. Values keep whatever shape the question type produced
// (string, number or string list).
type AnswerMap map[string]any

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	return string(data), err
}

func (m *AnswerMap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported answer map source type %T", src)
	}
}

func (r *ResponseRecord) Validate() error {
	if r.ID == uuid.Nil {
		return errors.New("response ID can not be nil")
	}
	if r.SurveyID == uuid.Nil {
		return errors.New("survey ID can not be nil")
	}

	return nil
}

// ToRaw converts a persisted record into the canonical raw-response
// shape consumed by the analytics pipeline.
func (r *ResponseRecord) ToRaw() *RawResponse {
	return &RawResponse{
		ID:              r.ID.String(),
		SurveyID:        r.SurveyID.String(),
		Responses:       r.Answers,
		RespondentEmail: r.RespondentEmail,
		SubmittedAt:     r.SubmittedAt,
	}
}
