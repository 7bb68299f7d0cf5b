package planner

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// MaxSteps bounds how many steps one plan may add.
const MaxSteps = 50

// Plan is a proposed breakdown of a goal.
type Plan struct {
	Parent    string     `json:"parent" validate:"notblank"`
	Summary   string     `json:"summary"`
	Materials []Material `json:"materials" validate:"dive"`
	Steps     []Step     `json:"steps" validate:"required,min=1,max=50,dive"`
}

// Material is something the plan needs.
type Material struct {
	Name  string `json:"name" validate:"notblank"`
	Qty   string `json:"qty,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Step is one proposed child of the goal.
type Step struct {
	Title         string   `json:"title" validate:"notblank,max=200"`
	Description   string   `json:"description"`
	EstHours      float64  `json:"est_hours" validate:"gte=0,lte=1000"`
	Dependencies  []string `json:"dependencies"`
	SuggestedRole string   `json:"suggested_role"`
	DueByDays     *int     `json:"due_by_days,omitempty" validate:"omitempty,gte=0"`
}

// Titles returns the step titles in order.
func (p *Plan) Titles() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Title
	}
	return out
}

// TotalHours sums the step estimates.
func (p *Plan) TotalHours() float64 {
	var h float64
	for _, s := range p.Steps {
		h += s.EstHours
	}
	return h
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the plan's structural rules and returns a readable error
// listing every violation.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Plan.")

	switch e.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
