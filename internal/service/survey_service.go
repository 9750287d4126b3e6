// Package service orchestrates survey authoring, response intake and
// analytics over the repository, cache and event collaborators.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Koyo-os/survey-service/internal/analytics"
	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/internal/flow"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/Koyo-os/survey-service/pkg/retrier"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNilSurvey         = errors.New("survey is nil")
	ErrInvalidTransition = errors.New("invalid survey status transition")
)

type Service struct {
	casher    Casher
	repo      Repository
	publisher Publisher
	builder   *analytics.Builder
	logger    *logger.Logger

	timeout time.Duration
}

func Init(
	casher Casher,
	repo Repository,
	publisher Publisher,
	logger *logger.Logger,
	timeout time.Duration,
) *Service {
	return &Service{
		casher:    casher,
		repo:      repo,
		publisher: publisher,
		builder:   analytics.Init(logger),
		logger:    logger,
		timeout:   timeout,
	}
}

// CreateSurvey persists a new survey, caches it and publishes the
// creation event. Missing identifiers are assigned, the lifecycle
// starts in draft.
func (s *Service) CreateSurvey(survey *entity.Survey) error {
	if survey == nil {
		return ErrNilSurvey
	}

	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	if survey.Status == "" {
		survey.Status = entity.StatusDraft
	}

	for i := range survey.Questions {
		if survey.Questions[i].ID == uuid.Nil {
			survey.Questions[i].ID = uuid.New()
		}
		survey.Questions[i].SurveyID = survey.ID
		survey.Questions[i].OrderNumber = uint(i)
	}

	if err := survey.Validate(); err != nil {
		return err
	}

	if err := s.repo.CreateSurvey(survey); err != nil {
		return err
	}

	cherr := make(chan error, 1)

	go func() {
		cherr <- s.cacheSurvey(survey)
	}()

	if err := s.publisher.Publish(survey, entity.EventSurveyCreated); err != nil {
		return err
	}

	if err := <-cherr; err != nil {
		return err
	}

	return nil
}

// UpdateSurvey replaces a survey's metadata and question set
func (s *Service) UpdateSurvey(survey *entity.Survey) error {
	if survey == nil {
		return ErrNilSurvey
	}

	for i := range survey.Questions {
		if survey.Questions[i].ID == uuid.Nil {
			survey.Questions[i].ID = uuid.New()
		}
		survey.Questions[i].SurveyID = survey.ID
		survey.Questions[i].OrderNumber = uint(i)
	}

	if err := survey.Validate(); err != nil {
		return err
	}

	if err := s.repo.UpdateSurvey(survey); err != nil {
		return err
	}

	if err := s.cacheSurvey(survey); err != nil {
		return err
	}

	return s.publisher.Publish(survey, entity.EventSurveyUpdated)
}

// UpdateStatus moves a survey along its lifecycle, enforcing the legal
// transitions (draft->published, published->closed/draft, closed->draft).
func (s *Service) UpdateStatus(surveyID string, status entity.SurveyStatus) error {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return err
	}

	survey, err := s.repo.GetSurvey(uid)
	if err != nil {
		return err
	}

	if !survey.CanTransition(status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, survey.Status, status)
	}

	if err = s.repo.UpdateStatus(uid, status); err != nil {
		return err
	}

	survey.Status = status

	if err = s.cacheSurvey(survey); err != nil {
		return err
	}

	return s.publisher.Publish(survey, entity.EventSurveyStatusChanged)
}

// DeleteSurvey removes a survey with its questions and responses
func (s *Service) DeleteSurvey(surveyID string) error {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return err
	}

	if err = s.repo.DeleteSurvey(uid); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err = s.casher.RemoveFromCash(ctx, surveyID); err != nil {
		s.logger.Warn("error remove deleted survey from cache",
			zap.String("survey_id", surveyID),
			zap.Error(err))
	}

	payload := map[string]string{"id": surveyID}

	return s.publisher.Publish(payload, entity.EventSurveyDeleted)
}

// DuplicateSurvey copies a survey and its questions into a fresh draft
func (s *Service) DuplicateSurvey(surveyID string) (*entity.Survey, error) {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return nil, err
	}

	original, err := s.repo.GetSurvey(uid)
	if err != nil {
		return nil, err
	}

	copied := &entity.Survey{
		ID:          uuid.New(),
		Title:       original.Title + " (copy)",
		Description: original.Description,
		Status:      entity.StatusDraft,
		Creator:     original.Creator,
		Questions:   make([]entity.Question, len(original.Questions)),
	}

	for i, question := range original.Questions {
		copied.Questions[i] = entity.Question{
			ID:          uuid.New(),
			SurveyID:    copied.ID,
			Type:        question.Type,
			Title:       question.Title,
			Description: question.Description,
			Required:    question.Required,
			Options:     question.Options,
			OrderNumber: question.OrderNumber,
		}
	}

	if err = s.CreateSurvey(copied); err != nil {
		return nil, err
	}

	return copied, nil
}

// GetSurvey retrieves a survey, falling back to the cache when the
// repository is unreachable.
func (s *Service) GetSurvey(ctx context.Context, surveyID string) (*entity.Survey, error) {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return nil, err
	}

	return s.getSurveyWithFallback(ctx, uid)
}

// GetMySurveys retrieves all surveys owned by the given creator
func (s *Service) GetMySurveys(creator string) ([]entity.Survey, error) {
	return s.repo.GetSurveysByCreator(creator)
}

// GetOpenSurvey retrieves a survey for response-taking. The gate
// verdict is always returned; the survey only when it is Open.
func (s *Service) GetOpenSurvey(
	ctx context.Context,
	surveyID string,
	now time.Time,
) (*entity.Survey, flow.OpenResult, error) {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return nil, flow.OpenResult{}, err
	}

	survey, err := s.getSurveyWithFallback(ctx, uid)
	if err != nil {
		return nil, flow.OpenResult{}, err
	}

	result := flow.CheckOpen(survey, now)
	if !result.IsOpen() {
		return nil, result, nil
	}

	return survey, result, nil
}

// SubmitResponse persists one finished answer set and publishes the
// submission event. It implements flow.Submitter.
func (s *Service) SubmitResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return err
	}

	survey, err := s.getSurveyWithFallback(ctx, uid)
	if err != nil {
		return err
	}

	if result := flow.CheckOpen(survey, time.Now()); !result.IsOpen() {
		return &flow.NotOpenError{Result: result}
	}

	record := &entity.ResponseRecord{
		ID:          uuid.New(),
		SurveyID:    uid,
		Answers:     answers,
		SubmittedAt: time.Now(),
	}

	if err = s.repo.CreateResponse(record); err != nil {
		return err
	}

	return s.publisher.Publish(record, entity.EventResponseSubmitted)
}

// SubmitRaw accepts a submission in any tolerated historical shape:
// the answers are normalized to the canonical mapping and persisted
// together with the respondent metadata the raw record carried.
func (s *Service) SubmitRaw(ctx context.Context, raw *entity.RawResponse) error {
	uid, err := uuid.Parse(raw.SurveyID)
	if err != nil {
		return err
	}

	survey, err := s.getSurveyWithFallback(ctx, uid)
	if err != nil {
		return err
	}

	if result := flow.CheckOpen(survey, time.Now()); !result.IsOpen() {
		return &flow.NotOpenError{Result: result}
	}

	submittedAt := raw.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	record := &entity.ResponseRecord{
		ID:              uuid.New(),
		SurveyID:        uid,
		RespondentEmail: raw.RespondentEmail,
		Answers:         analytics.Normalize(raw, s.logger),
		SubmittedAt:     submittedAt,
	}

	if err = s.repo.CreateResponse(record); err != nil {
		return err
	}

	return s.publisher.Publish(record, entity.EventResponseSubmitted)
}

// QueueResponse appends one answer set to the local fallback queue.
// It implements flow.FallbackQueue.
func (s *Service) QueueResponse(ctx context.Context, surveyID string, answers entity.AnswerMap) error {
	raw := &entity.RawResponse{
		ID:          uuid.New().String(),
		SurveyID:    surveyID,
		Responses:   answers,
		SubmittedAt: time.Now(),
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}

	return s.casher.AppendResponse(ctx, surveyID, data)
}

// GetAnalytics fetches the survey and a point-in-time response
// snapshot, then builds the per-question aggregate. The survey and
// responses load concurrently; either fetch falls back to the local
// cache when the repository is unreachable. A total absence of
// responses is a valid state, not an error.
func (s *Service) GetAnalytics(ctx context.Context, surveyID string) (*entity.SurveyAnalytics, error) {
	uid, err := uuid.Parse(surveyID)
	if err != nil {
		return nil, err
	}

	var (
		survey    *entity.Survey
		responses []*entity.RawResponse
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		loaded, err := s.getSurveyWithFallback(gctx, uid)
		if err != nil {
			return err
		}
		survey = loaded
		return nil
	})

	g.Go(func() error {
		responses = s.getResponsesWithFallback(gctx, uid)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.builder.Build(survey, responses), nil
}

func (s *Service) cacheSurvey(survey *entity.Survey) error {
	data, err := json.Marshal(survey)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return retrier.Do(3, 5, func() error {
		return s.casher.DoCashing(ctx, survey.ID.String(), data)
	})
}

func (s *Service) getSurveyWithFallback(ctx context.Context, id uuid.UUID) (*entity.Survey, error) {
	survey, err := s.repo.GetSurvey(id)
	if err == nil {
		return survey, nil
	}

	s.logger.Warn("repository unavailable, reading survey from cache",
		zap.String("survey_id", id.String()),
		zap.Error(err))

	data, cashErr := s.casher.GetCashFor(ctx, id.String())
	if cashErr != nil {
		return nil, fmt.Errorf("get survey %s: %w", id, err)
	}

	var cached entity.Survey
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("decode cached survey %s: %w", id, err)
	}

	return &cached, nil
}

// getResponsesWithFallback never fails: on repository failure it reads
// the locally queued responses, and a survey with no reachable
// responses simply aggregates to zero.
func (s *Service) getResponsesWithFallback(ctx context.Context, surveyID uuid.UUID) []*entity.RawResponse {
	records, err := s.repo.GetResponses(surveyID)
	if err == nil {
		responses := make([]*entity.RawResponse, len(records))
		for i := range records {
			responses[i] = records[i].ToRaw()
		}
		return responses
	}

	s.logger.Warn("repository unavailable, reading queued responses from cache",
		zap.String("survey_id", surveyID.String()),
		zap.Error(err))

	queued, cashErr := s.casher.GetQueuedResponses(ctx, surveyID.String())
	if cashErr != nil {
		s.logger.Warn("no response source reachable, aggregating empty snapshot",
			zap.String("survey_id", surveyID.String()),
			zap.Error(cashErr))
		return nil
	}

	responses := make([]*entity.RawResponse, 0, len(queued))
	for _, data := range queued {
		var raw entity.RawResponse
		if err := json.Unmarshal(data, &raw); err != nil {
			s.logger.Debug("dropping malformed queued response",
				zap.String("survey_id", surveyID.String()),
				zap.Error(err))
			continue
		}
		responses = append(responses, &raw)
	}

	return responses
}
