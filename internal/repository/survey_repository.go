// Package repository provides data persistence functionality using GORM
package repository

import (
	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository handles database operations using GORM
type Repository struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Init creates and returns a new Repository instance
func Init(db *gorm.DB, logger *logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the schema for all persisted entities
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.Survey{},
		&entity.Question{},
		&entity.ResponseRecord{},
	)
}

// CreateSurvey persists a new survey together with its questions
func (repo *Repository) CreateSurvey(survey *entity.Survey) error {
	res := repo.db.Create(survey)

	if err := res.Error; err != nil {
		repo.logger.Error("error create survey",
			zap.String("survey_id", survey.ID.String()),
			zap.Error(err))
		return err
	}

	return nil
}

// GetSurvey retrieves a survey with its questions in declared order
func (repo *Repository) GetSurvey(id uuid.UUID) (*entity.Survey, error) {
	var survey entity.Survey

	res := repo.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		}).
		Where("id = ?", id).
		First(&survey)
	if err := res.Error; err != nil {
		repo.logger.Error("error get survey",
			zap.String("survey_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return &survey, nil
}

// GetSurveysByCreator retrieves all surveys owned by the given creator
func (repo *Repository) GetSurveysByCreator(creator string) ([]entity.Survey, error) {
	var surveys []entity.Survey

	res := repo.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_number ASC")
		}).
		Where("creator = ?", creator).
		Order("created_at DESC").
		Find(&surveys)
	if err := res.Error; err != nil {
		repo.logger.Error("error get surveys by creator",
			zap.String("creator", creator),
			zap.Error(err),
		)
		return nil, err
	}

	return surveys, nil
}

// UpdateSurvey replaces the survey metadata and its question set in
// one transaction. Questions are owned exclusively by the survey, so
// the stale set is removed rather than diffed.
func (repo *Repository) UpdateSurvey(survey *entity.Survey) error {
	err := repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", survey.ID).
			Delete(&entity.Question{}).Error; err != nil {
			return err
		}

		return tx.Save(survey).Error
	})
	if err != nil {
		repo.logger.Error("error update survey",
			zap.String("survey_id", survey.ID.String()),
			zap.Error(err))
		return err
	}

	return nil
}

// UpdateStatus moves a survey to a new lifecycle status
func (repo *Repository) UpdateStatus(id uuid.UUID, status entity.SurveyStatus) error {
	res := repo.db.Model(&entity.Survey{}).
		Where("id = ?", id).
		Update("status", status)

	if err := res.Error; err != nil {
		repo.logger.Error("error update survey status",
			zap.String("survey_id", id.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// DeleteSurvey removes a survey, its questions and its responses
func (repo *Repository) DeleteSurvey(id uuid.UUID) error {
	err := repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("survey_id = ?", id).
			Delete(&entity.Question{}).Error; err != nil {
			return err
		}

		if err := tx.Where("survey_id = ?", id).
			Delete(&entity.ResponseRecord{}).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Delete(&entity.Survey{}).Error
	})
	if err != nil {
		repo.logger.Error("error delete survey",
			zap.String("survey_id", id.String()),
			zap.Error(err),
		)
		return err
	}

	return nil
}

// CreateResponse persists one submitted response
func (repo *Repository) CreateResponse(record *entity.ResponseRecord) error {
	res := repo.db.Create(record)

	if err := res.Error; err != nil {
		repo.logger.Error("error create response",
			zap.String("survey_id", record.SurveyID.String()),
			zap.Error(err))
		return err
	}

	return nil
}

// GetResponses retrieves the full response snapshot for a survey
func (repo *Repository) GetResponses(surveyID uuid.UUID) ([]entity.ResponseRecord, error) {
	var records []entity.ResponseRecord

	res := repo.db.
		Where("survey_id = ?", surveyID).
		Order("submitted_at ASC").
		Find(&records)
	if err := res.Error; err != nil {
		repo.logger.Error("error get responses",
			zap.String("survey_id", surveyID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	return records, nil
}

// IsHealthy reports whether the underlying database answers a ping
func (repo *Repository) IsHealthy() bool {
	db, err := repo.db.DB()
	if err != nil {
		return false
	}
	return db.Ping() == nil
}
