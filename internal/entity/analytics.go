package entity

type (
	// OptionCount is one option's tally. Options keep the survey's
	// declared order, so this is a slice element rather than a map key.
	OptionCount struct {
		Option string `json:"option"`
		Count  int    `json:"count"`
	}

	// QuestionAnalytics is the per-question statistical summary fed to
	// the rendering layer. Which fields are populated depends on Type:
	// rating fills RatingCounts and Average, option-based types fill
	// Options, text types fill Responses (capped for display) with the
	// uncapped count in TotalAnswers.
	QuestionAnalytics struct {
		Type         QuestionType  `json:"type"`
		RatingCounts []int         `json:"rating_counts,omitempty"`
		Average      float64       `json:"average"`
		Options      []OptionCount `json:"options,omitempty"`
		Responses    []string      `json:"responses,omitempty"`
		TotalAnswers int           `json:"total_answers"`
	}

	// SurveyAnalytics is the full aggregate for one survey, built
	// fresh from a point-in-time response snapshot on every view.
	SurveyAnalytics struct {
		SurveyID       string                       `json:"survey_id"`
		TotalResponses int                          `json:"total_responses"`
		CompletionRate float64                      `json:"completion_rate"`
		AverageTime    float64                      `json:"average_time"`
		Responses      map[string]QuestionAnalytics `json:"responses"`
	}
)
