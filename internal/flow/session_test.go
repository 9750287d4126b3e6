package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockSubmitter is a mock implementation of the Submitter interface
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) SubmitResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error {
	args := m.Called(ctx, surveyID, answers)
	return args.Error(0)
}

// MockQueue is a mock implementation of the FallbackQueue interface
type MockQueue struct {
	mock.Mock
}

func (m *MockQueue) QueueResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error {
	args := m.Called(ctx, surveyID, answers)
	return args.Error(0)
}

func openSurvey(questions ...entity.Question) *entity.Survey {
	return &entity.Survey{
		ID:        uuid.New(),
		Title:     "test survey",
		Status:    entity.StatusPublished,
		Questions: questions,
	}
}

func requiredText(title string) entity.Question {
	return entity.Question{
		ID:       uuid.New(),
		Type:     entity.TypeShortText,
		Title:    title,
		Required: true,
	}
}

func optionalText(title string) entity.Question {
	return entity.Question{
		ID:    uuid.New(),
		Type:  entity.TypeShortText,
		Title: title,
	}
}

func setupSession(t *testing.T, survey *entity.Survey) (*Session, *MockSubmitter, *MockQueue) {
	t.Helper()

	submitter := &MockSubmitter{}
	queue := &MockQueue{}

	session, err := NewSession(survey, submitter, queue, logger.Get(), time.Now())
	assert.NoError(t, err)

	return session, submitter, queue
}

func TestNewSession_RejectsClosedSurvey(t *testing.T) {
	survey := openSurvey(requiredText("q"))
	survey.Status = entity.StatusClosed

	_, err := NewSession(survey, &MockSubmitter{}, &MockQueue{}, logger.Get(), time.Now())

	assert.ErrorIs(t, err, ErrSurveyNotOpen)

	var notOpen *NotOpenError
	assert.ErrorAs(t, err, &notOpen)
	assert.Equal(t, Closed, notOpen.Result.State)
}

func TestNewSession_RejectsDraftSurvey(t *testing.T) {
	survey := openSurvey(requiredText("q"))
	survey.Status = entity.StatusDraft

	_, err := NewSession(survey, &MockSubmitter{}, &MockQueue{}, logger.Get(), time.Now())

	var notOpen *NotOpenError
	assert.ErrorAs(t, err, &notOpen)
	assert.Equal(t, NotYetPublished, notOpen.Result.State)
}

func TestNewSession_RejectsSurveyWithoutQuestions(t *testing.T) {
	_, err := NewSession(openSurvey(), &MockSubmitter{}, &MockQueue{}, logger.Get(), time.Now())

	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestAdvance_RequiredEmptyStaysWithOneError(t *testing.T) {
	question := requiredText("q1")
	session, submitter, _ := setupSession(t, openSurvey(question, requiredText("q2")))

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepStayed, result)
	assert.Equal(t, 0, session.Index())
	assert.Equal(t, map[string]string{question.ID.String(): RequiredMessage}, session.Errors())
	submitter.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_BlankStringFailsRequired(t *testing.T) {
	question := requiredText("q1")
	session, _, _ := setupSession(t, openSurvey(question, requiredText("q2")))

	assert.NoError(t, session.SetAnswer(question.ID.String(), "   "))

	result, _ := session.Advance(context.Background())

	assert.Equal(t, StepStayed, result)
	assert.Equal(t, 0, session.Index())
}

func TestAdvance_ZeroRatingFailsRequired(t *testing.T) {
	question := entity.Question{ID: uuid.New(), Type: entity.TypeRating, Required: true}
	session, _, _ := setupSession(t, openSurvey(question, requiredText("q2")))

	assert.NoError(t, session.SetAnswer(question.ID.String(), 0))

	result, _ := session.Advance(context.Background())

	assert.Equal(t, StepStayed, result)
}

func TestAdvance_MovesForwardOnValidAnswer(t *testing.T) {
	q1 := requiredText("q1")
	session, _, _ := setupSession(t, openSurvey(q1, requiredText("q2")))

	assert.NoError(t, session.SetAnswer(q1.ID.String(), "answered"))

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepAdvanced, result)
	assert.Equal(t, 1, session.Index())
}

func TestSetAnswer_ClearsValidationError(t *testing.T) {
	question := requiredText("q1")
	session, _, _ := setupSession(t, openSurvey(question, requiredText("q2")))

	session.Advance(context.Background())
	assert.NotEmpty(t, session.Errors())

	assert.NoError(t, session.SetAnswer(question.ID.String(), "fixed"))
	assert.Empty(t, session.Errors())
}

func TestRetreat_FreeBackwardNavigation(t *testing.T) {
	q1 := requiredText("q1")
	session, _, _ := setupSession(t, openSurvey(q1, requiredText("q2")))

	session.Retreat()
	assert.Equal(t, 0, session.Index())

	session.SetAnswer(q1.ID.String(), "answered")
	session.Advance(context.Background())
	assert.Equal(t, 1, session.Index())

	session.Retreat()
	assert.Equal(t, 0, session.Index())
}

func TestAdvance_LastQuestionJumpsToFirstFailing(t *testing.T) {
	q1 := requiredText("q1")
	q2 := requiredText("q2")
	session, submitter, _ := setupSession(t, openSurvey(q1, q2))

	session.SetAnswer(q1.ID.String(), "answered")
	session.Advance(context.Background())
	session.SetAnswer(q2.ID.String(), "also answered")

	// Retract the first answer while positioned on the last question.
	session.SetAnswer(q1.ID.String(), "")

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepStayed, result)
	assert.Equal(t, 0, session.Index())
	assert.Contains(t, session.Errors(), q1.ID.String())
	submitter.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_SoleRequiredBlankNeverSubmits(t *testing.T) {
	question := requiredText("the only question")
	session, submitter, queue := setupSession(t, openSurvey(question))

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepStayed, result)
	assert.Equal(t, 0, session.Index())
	assert.Contains(t, session.Errors(), question.ID.String())
	assert.False(t, session.Completed())
	submitter.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "QueueResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvance_LastQuestionSubmits(t *testing.T) {
	question := requiredText("q1")
	survey := openSurvey(question)
	session, submitter, _ := setupSession(t, survey)

	session.SetAnswer(question.ID.String(), "done")

	submitter.On("SubmitResponse", mock.Anything, survey.ID.String(),
		entity.AnswerMap{question.ID.String(): "done"}).Return(nil)

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepCompleted, result)
	assert.True(t, session.Completed())
	submitter.AssertExpectations(t)
}

func TestAdvance_OptionalQuestionsPassUnanswered(t *testing.T) {
	survey := openSurvey(optionalText("q1"), optionalText("q2"))
	session, submitter, _ := setupSession(t, survey)

	submitter.On("SubmitResponse", mock.Anything, survey.ID.String(), entity.AnswerMap{}).
		Return(nil)

	result, err := session.Advance(context.Background())
	assert.Equal(t, StepAdvanced, result)
	assert.NoError(t, err)

	result, err = session.Advance(context.Background())
	assert.Equal(t, StepCompleted, result)
	assert.NoError(t, err)
}

func TestSubmit_FallsBackToLocalQueue(t *testing.T) {
	question := requiredText("q1")
	survey := openSurvey(question)
	session, submitter, queue := setupSession(t, survey)

	session.SetAnswer(question.ID.String(), "done")

	answers := entity.AnswerMap{question.ID.String(): "done"}
	submitter.On("SubmitResponse", mock.Anything, survey.ID.String(), answers).
		Return(errors.New("network down"))
	queue.On("QueueResponse", mock.Anything, survey.ID.String(), answers).
		Return(nil)

	result, err := session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepCompleted, result)
	assert.True(t, session.Completed())
	submitter.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestSubmit_BothPathsFailingStaysActive(t *testing.T) {
	question := requiredText("q1")
	survey := openSurvey(question)
	session, submitter, queue := setupSession(t, survey)

	session.SetAnswer(question.ID.String(), "done")

	answers := entity.AnswerMap{question.ID.String(): "done"}
	submitter.On("SubmitResponse", mock.Anything, survey.ID.String(), answers).
		Return(errors.New("network down")).Once()
	queue.On("QueueResponse", mock.Anything, survey.ID.String(), answers).
		Return(errors.New("disk full")).Once()

	result, err := session.Advance(context.Background())

	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, StepStayed, result)
	assert.False(t, session.Completed())
	assert.Equal(t, 0, session.Index())

	// The respondent can retry once the collaborator recovers.
	submitter.On("SubmitResponse", mock.Anything, survey.ID.String(), answers).
		Return(nil).Once()

	result, err = session.Advance(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepCompleted, result)
	assert.True(t, session.Completed())
}

func TestCompleted_IsTerminal(t *testing.T) {
	question := requiredText("q1")
	survey := openSurvey(question)
	session, submitter, _ := setupSession(t, survey)

	session.SetAnswer(question.ID.String(), "done")
	submitter.On("SubmitResponse", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	session.Advance(context.Background())
	assert.True(t, session.Completed())

	assert.ErrorIs(t, session.SetAnswer(question.ID.String(), "changed"), ErrSessionCompleted)

	_, err := session.Advance(context.Background())
	assert.ErrorIs(t, err, ErrSessionCompleted)

	_, err = session.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSessionCompleted)

	session.Retreat()
	assert.Equal(t, 0, session.Index())
}

func TestSubmit_ExplicitCallValidatesEverything(t *testing.T) {
	q1 := requiredText("q1")
	q2 := requiredText("q2")
	session, submitter, _ := setupSession(t, openSurvey(q1, q2))

	result, err := session.Submit(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, StepStayed, result)
	assert.Equal(t, 0, session.Index())
	assert.Len(t, session.Errors(), 2)
	submitter.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnswers_ReturnsCopy(t *testing.T) {
	question := requiredText("q1")
	session, _, _ := setupSession(t, openSurvey(question))

	session.SetAnswer(question.ID.String(), "original")

	snapshot := session.Answers()
	snapshot[question.ID.String()] = "mutated"

	assert.Equal(t, "original", session.Answers()[question.ID.String()])
}
