// Package flow drives one respondent through one survey: availability
// gating, question sequencing, validation and submission.
package flow

import (
	"time"

	"github.com/Koyo-os/survey-service/internal/entity"
)

// Openness is the availability gate verdict for a survey at a given
// instant.
type Openness int

const (
	Open Openness = iota
	NotYetPublished
	NotYetStarted
	Ended
	Closed
)

func (o Openness) String() string {
	switch o {
	case Open:
		return "open"
	case NotYetPublished:
		return "not_yet_published"
	case NotYetStarted:
		return "not_yet_started"
	case Ended:
		return "ended"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// OpenResult carries the gate verdict plus the window boundary that
// produced it, for the presentation layer's messaging.
type OpenResult struct {
	State Openness
	At    *time.Time
}

func (r OpenResult) IsOpen() bool {
	return r.State == Open
}

// CheckOpen decides whether the survey accepts responses right now.
// Pure function, first match wins: status gates before the response
// window, so a draft survey is NotYetPublished regardless of dates.
func CheckOpen(survey *entity.Survey, now time.Time) OpenResult {
	if survey.Status == entity.StatusDraft {
		return OpenResult{State: NotYetPublished}
	}

	if survey.Status == entity.StatusClosed {
		return OpenResult{State: Closed}
	}

	if survey.StartDate != nil && now.Before(*survey.StartDate) {
		return OpenResult{State: NotYetStarted, At: survey.StartDate}
	}

	if survey.EndDate != nil && now.After(*survey.EndDate) {
		return OpenResult{State: Ended, At: survey.EndDate}
	}

	return OpenResult{State: Open}
}
