package flow

import (
	"testing"
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/stretchr/testify/assert"
)

func timeptr(t time.Time) *time.Time {
	return &t
}

func TestCheckOpen_DraftAlwaysNotYetPublished(t *testing.T) {
	now := time.Now()

	// Dates must not matter for a draft: status gates first.
	survey := &entity.Survey{
		Status:    entity.StatusDraft,
		StartDate: timeptr(now.Add(-time.Hour)),
		EndDate:   timeptr(now.Add(time.Hour)),
	}

	for _, probe := range []time.Time{
		now,
		now.Add(-24 * time.Hour),
		now.Add(24 * time.Hour),
	} {
		result := CheckOpen(survey, probe)
		assert.Equal(t, NotYetPublished, result.State)
		assert.False(t, result.IsOpen())
	}
}

func TestCheckOpen_ClosedBeatsDates(t *testing.T) {
	now := time.Now()
	survey := &entity.Survey{
		Status:    entity.StatusClosed,
		StartDate: timeptr(now.Add(-time.Hour)),
		EndDate:   timeptr(now.Add(time.Hour)),
	}

	assert.Equal(t, Closed, CheckOpen(survey, now).State)
}

func TestCheckOpen_FutureStartNeverOpen(t *testing.T) {
	now := time.Now()
	start := now.Add(time.Hour)
	survey := &entity.Survey{
		Status:    entity.StatusPublished,
		StartDate: timeptr(start),
	}

	result := CheckOpen(survey, now)

	assert.Equal(t, NotYetStarted, result.State)
	assert.Equal(t, start, *result.At)
}

func TestCheckOpen_PastEndIsEnded(t *testing.T) {
	now := time.Now()
	end := now.Add(-time.Hour)
	survey := &entity.Survey{
		Status:  entity.StatusPublished,
		EndDate: timeptr(end),
	}

	result := CheckOpen(survey, now)

	assert.Equal(t, Ended, result.State)
	assert.Equal(t, end, *result.At)
}

func TestCheckOpen_PublishedWithinWindowIsOpen(t *testing.T) {
	now := time.Now()
	survey := &entity.Survey{
		Status:    entity.StatusPublished,
		StartDate: timeptr(now.Add(-time.Hour)),
		EndDate:   timeptr(now.Add(time.Hour)),
	}

	result := CheckOpen(survey, now)

	assert.Equal(t, Open, result.State)
	assert.True(t, result.IsOpen())
	assert.Nil(t, result.At)
}

func TestCheckOpen_PublishedWithoutDatesIsOpen(t *testing.T) {
	survey := &entity.Survey{Status: entity.StatusPublished}

	assert.True(t, CheckOpen(survey, time.Now()).IsOpen())
}

func TestOpenness_String(t *testing.T) {
	assert.Equal(t, "open", Open.String())
	assert.Equal(t, "not_yet_published", NotYetPublished.String())
	assert.Equal(t, "not_yet_started", NotYetStarted.String())
	assert.Equal(t, "ended", Ended.String())
	assert.Equal(t, "closed", Closed.String())
}
