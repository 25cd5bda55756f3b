// Package catalog defines the fixed, ordered interview catalog: one
// QuestionSpec per collected field plus the validation dispatch that turns a
// raw patient answer into a canonical stored value.
//
// The catalog is read-only deployment configuration. Order is significant: it
// is the interview sequence, and session cursors index into it.
package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// Kind discriminates the validation rule attached to a question.
type Kind string

const (
	KindNumeric    Kind = "number"
	KindEnumerated Kind = "choice"
)

// NumericRule accepts integers within an inclusive range.
type NumericRule struct {
	Min int
	Max int
}

// EnumeratedRule accepts one of a fixed option set, matched
// case-insensitively. The stored value is the canonically cased option.
type EnumeratedRule struct {
	Options []string
}

// QuestionSpec is one interview question and its validation rule. Exactly one
// of Numeric/Enumerated is set, selected by Kind.
type QuestionSpec struct {
	Field      string
	Prompt     string
	Kind       Kind
	Numeric    NumericRule
	Enumerated EnumeratedRule
}

// Field identifiers, matching the feature names the prediction model was
// trained on.
const (
	FieldAge              = "Age"
	FieldGender           = "Gender"
	FieldLocation         = "Location"
	FieldSocioeconomic    = "Socioeconomic Status"
	FieldWaterSource      = "Water Source Type"
	FieldSanitation       = "Sanitation Facilities"
	FieldHandHygiene      = "Hand Hygiene"
	FieldStreetFood       = "Consumption of Street Food"
	FieldFeverDuration    = "Fever Duration (Days)"
	FieldGISymptoms       = "Gastrointestinal Symptoms"
	FieldNeuroSymptoms    = "Neurological Symptoms"
	FieldSkin             = "Skin Manifestations"
	FieldComplications    = "Complications"
	FieldVaccination      = "Typhoid Vaccination Status"
	FieldPreviousTyphoid  = "Previous History of Typhoid"
	FieldWeather          = "Weather Condition"
	FieldOngoingInfection = "Ongoing Infection in Society"
)

// NoneOption is the sentinel for optional symptom fields; the predictor input
// is default-filled with it when a value is absent.
const NoneOption = "None"

var questions = []QuestionSpec{
	{
		Field:   FieldAge,
		Prompt:  "What is your age?",
		Kind:    KindNumeric,
		Numeric: NumericRule{Min: 1, Max: 120},
	},
	{
		Field:      FieldGender,
		Prompt:     "What is your gender? (Male/Female)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Male", "Female"}},
	},
	{
		Field:      FieldLocation,
		Prompt:     "What type of area do you live in? (Urban/Rural/Endemic)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Urban", "Rural", "Endemic"}},
	},
	{
		Field:      FieldSocioeconomic,
		Prompt:     "What is your socioeconomic status? (Low/Middle/High)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Low", "Middle", "High"}},
	},
	{
		Field:      FieldWaterSource,
		Prompt:     "What is your main source of drinking water? (Tap/Well/River/Untreated Supply)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Tap", "Well", "River", "Untreated Supply"}},
	},
	{
		Field:      FieldSanitation,
		Prompt:     "Do you have proper sanitation facilities? (Proper/Open Defecation)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Proper", "Open Defecation"}},
	},
	{
		Field:      FieldHandHygiene,
		Prompt:     "Do you practice regular hand hygiene? (Yes/No)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Yes", "No"}},
	},
	{
		Field:      FieldStreetFood,
		Prompt:     "Do you regularly consume street food? (Yes/No)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Yes", "No"}},
	},
	{
		Field:   FieldFeverDuration,
		Prompt:  "For how many days have you had fever? (Enter 0 if no fever)",
		Kind:    KindNumeric,
		Numeric: NumericRule{Min: 0, Max: 30},
	},
	{
		Field:      FieldGISymptoms,
		Prompt:     "Do you have any stomach-related symptoms? (None/Diarrhea/Constipation/Abdominal Pain)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"None", "Diarrhea", "Constipation", "Abdominal Pain"}},
	},
	{
		Field:      FieldNeuroSymptoms,
		Prompt:     "Do you have any neurological symptoms? (None/Headache/Confusion/Delirium)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"None", "Headache", "Confusion", "Delirium"}},
	},
	{
		Field:      FieldSkin,
		Prompt:     "Do you have any skin rashes or spots? (Yes/No)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Yes", "No"}},
	},
	{
		Field:      FieldComplications,
		Prompt:     "Have you experienced any severe complications? (None/Meningitis/Sepsis/Intestinal Perforation)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"None", "Meningitis", "Sepsis", "Intestinal Perforation"}},
	},
	{
		Field:      FieldVaccination,
		Prompt:     "Have you received typhoid vaccination? (Received/Not Received)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Received", "Not Received"}},
	},
	{
		Field:      FieldPreviousTyphoid,
		Prompt:     "Have you had typhoid fever before? (Yes/No)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Yes", "No"}},
	},
	{
		Field:      FieldWeather,
		Prompt:     "What is the current weather condition? (Hot & Dry/Cold & Humid/Rainy & Wet/Moderate)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"Hot & Dry", "Cold & Humid", "Rainy & Wet", "Moderate"}},
	},
	{
		Field:      FieldOngoingInfection,
		Prompt:     "Are there any disease outbreaks in your area? (None/Dengue Outbreak/COVID-19 Surge/Seasonal Flu)",
		Kind:       KindEnumerated,
		Enumerated: EnumeratedRule{Options: []string{"None", "Dengue Outbreak", "COVID-19 Surge", "Seasonal Flu"}},
	},
}

var fieldIndex = buildFieldIndex()

func buildFieldIndex() map[string]int {
	idx := make(map[string]int, len(questions))
	for i, q := range questions {
		idx[q.Field] = i
	}
	return idx
}

// Len returns the number of questions in the catalog.
func Len() int {
	return len(questions)
}

// At returns the question at position i in interview order.
func At(i int) QuestionSpec {
	return questions[i]
}

// ByField looks up a question by its field identifier.
func ByField(field string) (QuestionSpec, bool) {
	i, ok := fieldIndex[field]
	if !ok {
		return QuestionSpec{}, false
	}
	return questions[i], true
}

// OptionalSymptomFields are default-filled to NoneOption before the
// prediction call.
var OptionalSymptomFields = []string{
	FieldGISymptoms,
	FieldNeuroSymptoms,
	FieldComplications,
	FieldOngoingInfection,
}

// Validate checks a raw answer against the question's rule and returns the
// canonical value to store: an int for numeric fields, the canonically cased
// option for enumerated ones.
func Validate(q QuestionSpec, raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	switch q.Kind {
	case KindNumeric:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", entity.ErrNotANumber, raw)
		}
		if n < q.Numeric.Min || n > q.Numeric.Max {
			return nil, fmt.Errorf("%w: %d not in [%d, %d]", entity.ErrOutOfRange, n, q.Numeric.Min, q.Numeric.Max)
		}
		return n, nil

	case KindEnumerated:
		for _, opt := range q.Enumerated.Options {
			if strings.EqualFold(raw, opt) {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("%w: %q (expected one of: %s)",
			entity.ErrUnrecognizedOption, raw, strings.Join(q.Enumerated.Options, ", "))

	default:
		return nil, fmt.Errorf("%w: unknown question kind %q", entity.ErrInvalidParameter, q.Kind)
	}
}

// Hint returns the re-prompt hint for a rejected answer; for enumerated
// questions it lists the accepted options.
func Hint(q QuestionSpec) string {
	msg := fmt.Sprintf("I didn't quite understand that. %s", q.Prompt)
	if q.Kind == KindEnumerated {
		msg += "\nPlease choose from: " + strings.Join(q.Enumerated.Options, ", ")
	}
	return msg
}
