// Package listener dispatches incoming request events to the service
package listener

import (
	"context"
	"encoding/json"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/Koyo-os/survey-service/internal/service"
	"github.com/Koyo-os/survey-service/pkg/config"
	"github.com/Koyo-os/survey-service/pkg/logger"
	"go.uber.org/zap"
)

type Listener struct {
	inputChan chan entity.Event
	logger    *logger.Logger
	service   *service.Service
	cfg       *config.Config
}

func Init(
	inputChan chan entity.Event,
	logger *logger.Logger,
	cfg *config.Config,
	service *service.Service,
) *Listener {
	return &Listener{
		inputChan: inputChan,
		service:   service,
		logger:    logger,
		cfg:       cfg,
	}
}

// Listen consumes request events until the context is cancelled.
// Malformed payloads and failed operations are logged and skipped, one
// bad request never stops the intake.
func (list *Listener) Listen(ctx context.Context) {
	for {
		select {
		case event := <-list.inputChan:
			list.handle(ctx, event)

		case <-ctx.Done():
			list.logger.Info("stopping listener...")
			return
		}
	}
}

func (list *Listener) handle(ctx context.Context, event entity.Event) {
	switch event.Type {
	case list.cfg.Reqs.CreateRequestType:
		survey := new(entity.Survey)

		if err := json.Unmarshal(event.Payload, survey); err != nil {
			list.logEventError("error unmarshal event payload to survey", event, err)
			return
		}

		if err := list.service.CreateSurvey(survey); err != nil {
			list.logEventError("error create survey", event, err)
		}

	case list.cfg.Reqs.UpdateRequestType:
		survey := new(entity.Survey)

		if err := json.Unmarshal(event.Payload, survey); err != nil {
			list.logEventError("error unmarshal event payload to survey", event, err)
			return
		}

		if err := list.service.UpdateSurvey(survey); err != nil {
			list.logEventError("error update survey", event, err)
		}

	case list.cfg.Reqs.UpdateStatusRequestType:
		var req struct {
			ID     string              `json:"id"`
			Status entity.SurveyStatus `json:"status"`
		}

		if err := json.Unmarshal(event.Payload, &req); err != nil {
			list.logEventError("error unmarshal status request", event, err)
			return
		}

		if err := list.service.UpdateStatus(req.ID, req.Status); err != nil {
			list.logEventError("error update survey status", event, err)
		}

	case list.cfg.Reqs.DeleteSurveyRequestType:
		var req struct {
			ID string `json:"id"`
		}

		if err := json.Unmarshal(event.Payload, &req); err != nil {
			list.logEventError("error unmarshal delete request", event, err)
			return
		}

		if err := list.service.DeleteSurvey(req.ID); err != nil {
			list.logEventError("error delete survey", event, err)
		}

	case list.cfg.Reqs.SubmitResponseRequestType:
		raw := new(entity.RawResponse)

		if err := json.Unmarshal(event.Payload, raw); err != nil {
			list.logEventError("error unmarshal response request", event, err)
			return
		}

		// Submissions arrive in any of the tolerated historical
		// shapes; the service normalizes before persisting.
		if err := list.service.SubmitRaw(ctx, raw); err != nil {
			list.logEventError("error submit response", event, err)
		}
	}
}

func (list *Listener) logEventError(msg string, event entity.Event, err error) {
	list.logger.Error(msg,
		zap.String("event_type", event.Type),
		zap.String("event_id", event.ID),
		zap.Error(err))
}
