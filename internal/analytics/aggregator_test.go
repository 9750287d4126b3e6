package analytics

import (
	"testing"

	"github.com/Koyo-os/survey-service/internal/entity"
	"github.com/stretchr/testify/assert"
)

func ratingQuestion() *entity.Question {
	return &entity.Question{Type: entity.TypeRating}
}

func choiceQuestion(options ...string) *entity.Question {
	return &entity.Question{Type: entity.TypeMultipleChoice, Options: options}
}

func checkboxQuestion(options ...string) *entity.Question {
	return &entity.Question{Type: entity.TypeCheckbox, Options: options}
}

func TestAggregate_Rating(t *testing.T) {
	got := Aggregate(ratingQuestion(), []any{float64(4), "5"})

	assert.Equal(t, []int{0, 0, 0, 1, 1}, got.RatingCounts)
	assert.Equal(t, 4.5, got.Average)
	assert.Equal(t, 2, got.TotalAnswers)
}

func TestAggregate_RatingDropsInvalidValues(t *testing.T) {
	got := Aggregate(ratingQuestion(), []any{
		float64(0),  // below scale
		float64(6),  // above scale
		"not a num", // unparseable
		float64(3),
	})

	assert.Equal(t, []int{0, 0, 1, 0, 0}, got.RatingCounts)
	assert.Equal(t, 3.0, got.Average)
}

func TestAggregate_RatingEmptyAveragesToZero(t *testing.T) {
	got := Aggregate(ratingQuestion(), nil)

	assert.Equal(t, []int{0, 0, 0, 0, 0}, got.RatingCounts)
	assert.Equal(t, 0.0, got.Average)

	got = Aggregate(ratingQuestion(), []any{"junk", float64(9)})
	assert.Equal(t, 0.0, got.Average)
}

func TestAggregate_MultipleChoice(t *testing.T) {
	got := Aggregate(choiceQuestion("Go", "Rust", "Zig"), []any{
		"Go", "Go", "Rust", "Python", // Python is not a declared option
	})

	assert.Equal(t, []entity.OptionCount{
		{Option: "Go", Count: 2},
		{Option: "Rust", Count: 1},
		{Option: "Zig", Count: 0},
	}, got.Options)
	assert.Equal(t, 4, got.TotalAnswers)
}

func TestAggregate_MultipleChoiceAllOptionsPresentWithoutAnswers(t *testing.T) {
	got := Aggregate(choiceQuestion("A", "B", "C"), nil)

	assert.Len(t, got.Options, 3)
	for _, option := range got.Options {
		assert.Zero(t, option.Count)
	}
}

func TestAggregate_MultipleChoiceSumMatchesDeclaredMatches(t *testing.T) {
	answers := []any{"A", "B", "B", "ghost", "C", "ghost"}
	got := Aggregate(choiceQuestion("A", "B", "C"), answers)

	sum := 0
	for _, option := range got.Options {
		sum += option.Count
	}

	assert.Equal(t, 4, sum)
}

func TestAggregate_MultipleChoiceSingleElementList(t *testing.T) {
	got := Aggregate(choiceQuestion("A", "B"), []any{
		[]string{"A"},
		[]any{"B"},
	})

	assert.Equal(t, []entity.OptionCount{
		{Option: "A", Count: 1},
		{Option: "B", Count: 1},
	}, got.Options)
}

func TestAggregate_Checkbox(t *testing.T) {
	got := Aggregate(checkboxQuestion("A", "B", "C"), []any{
		[]string{"A", "B"},
		[]string{"B"},
	})

	assert.Equal(t, []entity.OptionCount{
		{Option: "A", Count: 1},
		{Option: "B", Count: 2},
		{Option: "C", Count: 0},
	}, got.Options)
}

func TestAggregate_CheckboxDecodesJSONEncodedString(t *testing.T) {
	fromArray := Aggregate(checkboxQuestion("A", "B", "C"), []any{[]string{"A", "B"}})
	fromString := Aggregate(checkboxQuestion("A", "B", "C"), []any{`["A","B"]`})

	assert.Equal(t, fromArray.Options, fromString.Options)
}

func TestAggregate_CheckboxUndecodableStringIsSingleSelection(t *testing.T) {
	got := Aggregate(checkboxQuestion("A", "B"), []any{"A"})

	assert.Equal(t, []entity.OptionCount{
		{Option: "A", Count: 1},
		{Option: "B", Count: 0},
	}, got.Options)
}

func TestAggregate_TextCapsDisplayButKeepsTrueTotal(t *testing.T) {
	answers := make([]any, 14)
	for i := range answers {
		answers[i] = "response"
	}

	got := Aggregate(&entity.Question{Type: entity.TypeShortText}, answers)

	assert.Len(t, got.Responses, TextDisplayCap)
	assert.Equal(t, 14, got.TotalAnswers)
}

func TestAggregate_TextKeepsArrivalOrder(t *testing.T) {
	got := Aggregate(&entity.Question{Type: entity.TypeLongText}, []any{"first", "second", "third"})

	assert.Equal(t, []string{"first", "second", "third"}, got.Responses)
	assert.Equal(t, entity.TypeLongText, got.Type)
}

func TestAggregate_UnknownTypeDegradesGracefully(t *testing.T) {
	got := Aggregate(&entity.Question{Type: "matrix"}, []any{"a", "b"})

	assert.Equal(t, entity.TypeUnknown, got.Type)
	assert.Equal(t, []string{"a", "b"}, got.Responses)
	assert.Equal(t, 2, got.TotalAnswers)
}

func TestAggregate_DropdownCountsLikeSingleChoice(t *testing.T) {
	got := Aggregate(&entity.Question{
		Type:    entity.TypeDropdown,
		Options: entity.OptionList{"small", "large"},
	}, []any{"small", "large", "large"})

	assert.Equal(t, entity.TypeDropdown, got.Type)
	assert.Equal(t, []entity.OptionCount{
		{Option: "small", Count: 1},
		{Option: "large", Count: 2},
	}, got.Options)
}
