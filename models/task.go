package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephgoksu/CostWing/types"
)

// Priority represents the priority levels of a task.
// Levels are ordered: low < medium < high < critical.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns the ordinal of the priority. Unknown values rank as medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return 1
	}
}

// Requirement is a demand for a quantity of one resource, named either
// directly or through a skill that the allocator resolves.
type Requirement struct {
	ResourceID string  `json:"resource_id,omitempty" yaml:"resource_id,omitempty" toml:"resource_id,omitempty" validate:"required_without=Skill,excluded_with=Skill"`
	Skill      string  `json:"skill,omitempty" yaml:"skill,omitempty" toml:"skill,omitempty" validate:"required_without=ResourceID"`
	Quantity   float64 `json:"quantity" yaml:"quantity" toml:"quantity" validate:"gt=0"`
}

// Task represents a unit of schedulable work.
type Task struct {
	ID           string        `json:"id" yaml:"id" toml:"id" validate:"required,max=128"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty" validate:"max=255"`
	Duration     float64       `json:"duration" yaml:"duration" toml:"duration" validate:"gt=0"` // hours
	Requirements []Requirement `json:"requirements,omitempty" yaml:"requirements,omitempty" toml:"requirements,omitempty" validate:"dive"`
	Dependencies []string      `json:"dependencies,omitempty" yaml:"dependencies,omitempty" toml:"dependencies,omitempty" validate:"dive,required"`
	Priority     Priority      `json:"priority,omitempty" yaml:"priority,omitempty" toml:"priority,omitempty" validate:"omitempty,oneof=low medium high critical"`
}

// Clone returns a deep copy so that scenario variations never share slices.
func (t Task) Clone() Task {
	c := t
	c.Requirements = append([]Requirement(nil), t.Requirements...)
	c.Dependencies = append([]string(nil), t.Dependencies...)
	return c
}

// QuantityOf sums the quantity the task demands from a resource.
func (t Task) QuantityOf(resourceID string) float64 {
	var q float64
	for _, r := range t.Requirements {
		if r.ResourceID == resourceID {
			q += r.Quantity
		}
	}
	return q
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that has validation tags.
// Failures are returned as an INVALID_INPUT ScheduleError.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewInvalidInputError(err.Error(), nil)
	}
	var errorMessages []string
	fields := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages = append(errorMessages, fmt.Sprintf("validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		fields = append(fields, e.StructNamespace())
	}
	return types.NewInvalidInputError(strings.Join(errorMessages, "; "), map[string]interface{}{"fields": fields})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
