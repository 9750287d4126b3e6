// Package entity defines the core data structures used throughout the application
package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SurveyStatus describes where a survey sits in its lifecycle
type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusPublished SurveyStatus = "published"
	StatusClosed    SurveyStatus = "closed"
)

// QuestionType enumerates the supported question kinds
type QuestionType string

const (
	TypeShortText      QuestionType = "short-text"
	TypeLongText       QuestionType = "long-text"
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeCheckbox       QuestionType = "checkbox"
	TypeDropdown       QuestionType = "dropdown"
	TypeRating         QuestionType = "rating"

	// TypeUnknown marks analytics for question types this version
	// does not aggregate; they degrade to a raw response list.
	TypeUnknown QuestionType = "unknown"
)

// NeedsOptions reports whether the question type requires a non-empty
// option list to be answerable.
func (t QuestionType) NeedsOptions() bool {
	switch t {
	case TypeMultipleChoice, TypeCheckbox, TypeDropdown:
		return true
	default:
		return false
	}
}

// OptionList stores question options as a JSON column so sqlite and
// mysql share one schema.
type OptionList []string

func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	data, err := json.Marshal(o)
	return string(data), err
}

func (o *OptionList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("unsupported option list source type %T", src)
	}
}

type (
	// Question represents a single question within a survey
	Question struct {
		ID          uuid.UUID    `gorm:"type:uuid;primaryKey"    json:"id"`
		SurveyID    uuid.UUID    `gorm:"type:uuid;index"         json:"-"`
		Type        QuestionType `json:"type"`
		Title       string       `json:"title"`
		Description string       `json:"description,omitempty"`
		Required    bool         `json:"required"`
		Options     OptionList   `gorm:"type:text"               json:"options,omitempty"`
		OrderNumber uint         `json:"order_number"`
	}

	// Survey represents a questionnaire with its publication metadata
	Survey struct {
		ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
		Status      SurveyStatus `json:"status"`
		Creator     string       `json:"creator"`
		Questions   []Question   `gorm:"foreignKey:SurveyID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions"`
		StartDate   *time.Time   `json:"start_date,omitempty"`
		EndDate     *time.Time   `json:"end_date,omitempty"`
		CreatedAt   time.Time    `json:"created_at"`
		UpdatedAt   time.Time    `json:"updated_at"`
	}

	// OutputQuestion is a DTO for question data in API responses and events
	OutputQuestion struct {
		ID          string   `json:"id"`
		Type        string   `json:"type"`
		Title       string   `json:"title"`
		Description string   `json:"description,omitempty"`
		Required    bool     `json:"required"`
		Options     []string `json:"options,omitempty"`
		OrderNumber uint     `json:"order_number"`
	}

	// OutputSurvey is a DTO for survey data in API responses and events
	OutputSurvey struct {
		ID          string           `json:"id"`
		Title       string           `json:"title"`
		Description string           `json:"description"`
		Status      string           `json:"status"`
		Creator     string           `json:"creator"`
		StartDate   string           `json:"start_date,omitempty"`
		EndDate     string           `json:"end_date,omitempty"`
		CreatedAt   string           `json:"created_at"`
		Questions   []OutputQuestion `json:"questions"`
	}
)

func (s *Survey) Validate() error {
	if s.ID == uuid.Nil {
		return errors.New("survey ID can not be nil")
	}
	if s.Creator == "" {
		return errors.New("creator can not be empty")
	}

	for i := range s.Questions {
		if err := s.Questions[i].Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}

	return nil
}

func (q *Question) Validate() error {
	if q.ID == uuid.Nil {
		return errors.New("question ID can not be nil")
	}
	if q.Type.NeedsOptions() && len(q.Options) == 0 {
		return fmt.Errorf("question type %s requires at least one option", q.Type)
	}

	return nil
}

// CanTransition reports whether moving the survey to the target status
// is a legal lifecycle step. Draft surveys publish, published surveys
// close or return to draft, closed surveys reopen as draft.
func (s *Survey) CanTransition(to SurveyStatus) bool {
	switch s.Status {
	case StatusDraft:
		return to == StatusPublished
	case StatusPublished:
		return to == StatusClosed || to == StatusDraft
	case StatusClosed:
		return to == StatusDraft
	default:
		return false
	}
}

// ToOutput converts a Question entity to its DTO representation
func (q *Question) ToOutput() OutputQuestion {
	return OutputQuestion{
		ID:          q.ID.String(),
		Type:        string(q.Type),
		Title:       q.Title,
		Description: q.Description,
		Required:    q.Required,
		Options:     q.Options,
		OrderNumber: q.OrderNumber,
	}
}

// ToOutput converts a Survey entity to its DTO representation
func (s *Survey) ToOutput() OutputSurvey {
	out := OutputSurvey{
		ID:          s.ID.String(),
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		Creator:     s.Creator,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}

	if s.StartDate != nil {
		out.StartDate = s.StartDate.Format(time.RFC3339)
	}
	if s.EndDate != nil {
		out.EndDate = s.EndDate.Format(time.RFC3339)
	}

	return out
}

// ToJson converts a Survey entity to its JSON representation
// including all related questions
func (s *Survey) ToJson() ([]byte, error) {
	survey := s.ToOutput()
	survey.Questions = make([]OutputQuestion, len(s.Questions))

	for i, q := range s.Questions {
		survey.Questions[i] = q.ToOutput()
	}

	return json.Marshal(&survey)
}
