package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"go.uber.org/zap"
)

var (
	ErrSurveyNotOpen    = errors.New("survey is not open for responses")
	ErrNoQuestions      = errors.New("survey has no questions")
	ErrSessionCompleted = errors.New("response session is already completed")
	ErrSubmitInFlight   = errors.New("a submission is already in progress")
	ErrSubmissionFailed = errors.New("submission failed and could not be queued locally")
)

// RequiredMessage is the fixed validation message recorded against a
// required question left unanswered.
const RequiredMessage = "this question is required"

// NotOpenError wraps the gate verdict that rejected session entry so
// the presentation layer can message the start/end boundary.
type NotOpenError struct {
	Result OpenResult
}

func (e *NotOpenError) Error() string {
	return fmt.Sprintf("survey is not open for responses: %s", e.Result.State)
}

func (e *NotOpenError) Unwrap() error {
	return ErrSurveyNotOpen
}

type (
	// Submitter hands a finished answer set to the remote persistence
	// collaborator.
	Submitter interface {
		SubmitResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error
	}

	// FallbackQueue stores the answer set locally when the remote
	// collaborator is unreachable, so a failed submit never silently
	// loses data.
	FallbackQueue interface {
		QueueResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error
	}
)

// StepResult reports what an Advance call did.
type StepResult int

const (
	// StepStayed means validation failed; the session stays on the
	// offending question with an error recorded against it.
	StepStayed StepResult = iota
	// StepAdvanced means the session moved to the next question.
	StepAdvanced
	// StepCompleted means the final answers were accepted, remotely
	// or via the local fallback queue.
	StepCompleted
)

// Session walks one respondent through one survey. All transitions are
// synchronous reactions to discrete calls; the session is owned by a
// single goroutine and holds no locks. At most one submission is in
// flight at a time.
type Session struct {
	survey    *entity.Survey
	submitter Submitter
	fallback  FallbackQueue
	logger    *logger.Logger

	answers    entity.AnswerMap
	errors     map[string]string
	index      int
	submitting bool
	completed  bool
}

// NewSession opens a response session, consulting the availability
// gate first. A survey that is not open rejects entry with a
// *NotOpenError carrying the gate verdict.
func NewSession(
	survey *entity.Survey,
	submitter Submitter,
	fallback FallbackQueue,
	logger *logger.Logger,
	now time.Time,
) (*Session, error) {
	if len(survey.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	if result := CheckOpen(survey, now); !result.IsOpen() {
		return nil, &NotOpenError{Result: result}
	}

	return &Session{
		survey:    survey,
		submitter: submitter,
		fallback:  fallback,
		logger:    logger,
		answers:   make(entity.AnswerMap),
		errors:    make(map[string]string),
	}, nil
}

// Index returns the current question position.
func (s *Session) Index() int {
	return s.index
}

// Current returns the question the session is positioned on.
func (s *Session) Current() *entity.Question {
	return &s.survey.Questions[s.index]
}

// Completed reports whether the session reached its terminal state.
func (s *Session) Completed() bool {
	return s.completed
}

// Answers returns a copy of the collected answers.
func (s *Session) Answers() entity.AnswerMap {
	out := make(entity.AnswerMap, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Errors returns a copy of the per-question validation messages.
func (s *Session) Errors() map[string]string {
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// SetAnswer records or replaces the answer for a question and clears
// any validation error recorded against it. The error is re-evaluated
// on the next validation attempt, not on every edit.
func (s *Session) SetAnswer(questionID string, value any) error {
	if s.completed {
		return ErrSessionCompleted
	}

	s.answers[questionID] = value
	delete(s.errors, questionID)

	return nil
}

// ValidateCurrent checks the question the session is positioned on.
// Optional questions always pass; a required question needs a present,
// meaningful answer. Failure records the fixed message against the
// question without touching other questions' errors.
func (s *Session) ValidateCurrent() bool {
	return s.validate(s.Current())
}

// Advance validates the current question and moves forward. On the
// last question it re-validates every required question: any failure
// jumps the session to the first failing question; full success hands
// the answers to the submission collaborator.
//
// The returned error is non-nil only when both the remote submission
// and the local fallback failed; the session then stays active on the
// last question for a retry.
func (s *Session) Advance(ctx context.Context) (StepResult, error) {
	if s.completed {
		return StepStayed, ErrSessionCompleted
	}

	if !s.ValidateCurrent() {
		return StepStayed, nil
	}

	if s.index < len(s.survey.Questions)-1 {
		s.index++
		return StepAdvanced, nil
	}

	if firstFailing := s.validateAll(); firstFailing >= 0 {
		s.index = firstFailing
		return StepStayed, nil
	}

	return s.submit(ctx)
}

// Retreat moves back one question. Backward navigation is free: it
// never validates and is a no-op at the first question.
func (s *Session) Retreat() {
	if s.completed {
		return
	}
	if s.index > 0 {
		s.index--
	}
}

// Submit validates every required question and, on success, hands the
// answers to the submission collaborator. Usable instead of Advance
// when the caller drives submission explicitly.
func (s *Session) Submit(ctx context.Context) (StepResult, error) {
	if s.completed {
		return StepStayed, ErrSessionCompleted
	}

	if firstFailing := s.validateAll(); firstFailing >= 0 {
		s.index = firstFailing
		return StepStayed, nil
	}

	return s.submit(ctx)
}

func (s *Session) submit(ctx context.Context) (StepResult, error) {
	if s.submitting {
		return StepStayed, ErrSubmitInFlight
	}

	s.submitting = true
	defer func() { s.submitting = false }()

	surveyID := s.survey.ID.String()

	err := s.submitter.SubmitResponse(ctx, surveyID, s.answers)
	if err == nil {
		s.completed = true
		return StepCompleted, nil
	}

	s.logger.Warn("remote submission failed, queuing response locally",
		zap.String("survey_id", surveyID),
		zap.Error(err))

	if queueErr := s.fallback.QueueResponse(ctx, surveyID, s.answers); queueErr != nil {
		s.logger.Error("local queue fallback failed",
			zap.String("survey_id", surveyID),
			zap.Error(queueErr))
		return StepStayed, fmt.Errorf("%w: %v", ErrSubmissionFailed, queueErr)
	}

	s.completed = true
	return StepCompleted, nil
}

func (s *Session) validate(question *entity.Question) bool {
	if !question.Required {
		return true
	}

	id := question.ID.String()
	if hasMeaningfulAnswer(s.answers[id]) {
		return true
	}

	s.errors[id] = RequiredMessage
	return false
}

// validateAll re-validates every required question against the
// collected answers and returns the lowest failing index, or -1.
func (s *Session) validateAll() int {
	firstFailing := -1

	for i := range s.survey.Questions {
		if !s.validate(&s.survey.Questions[i]) && firstFailing < 0 {
			firstFailing = i
		}
	}

	return firstFailing
}

// hasMeaningfulAnswer implements the required-answer rules: non-blank
// for text, non-empty selection for checkbox, nonzero for rating.
func hasMeaningfulAnswer(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	default:
		return true
	}
}
