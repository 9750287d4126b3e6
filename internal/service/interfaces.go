package service

import (
	"context"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/google/uuid"
)

type (
	Repository interface {
		CreateSurvey(*entity.Survey) error
		GetSurvey(uuid.UUID) (*entity.Survey, error)
		GetSurveysByCreator(string) ([]entity.Survey, error)
		UpdateSurvey(*entity.Survey) error
		UpdateStatus(uuid.UUID, entity.SurveyStatus) error
		DeleteSurvey(uuid.UUID) error
		CreateResponse(*entity.ResponseRecord) error
		GetResponses(uuid.UUID) ([]entity.ResponseRecord, error)
	}

	Publisher interface {
		Publish(any, string) error
	}

	Casher interface {
		DoCashing(ctx context.Context, key string, payload any) error // payload must be raw bytes
		GetCashFor(ctx context.Context, key string) ([]byte, error)
		RemoveFromCash(ctx context.Context, key string) error
		AppendResponse(ctx context.Context, surveyID string, payload any) error
		GetQueuedResponses(ctx context.Context, surveyID string) ([][]byte, error)
	}
)
