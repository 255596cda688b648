package models

import (
	"slices"
	"time"
)

// Availability restricts when a resource carries capacity.
// Start and End bound the window; DailyHours caps working hours per day,
// counted from the project start.
type Availability struct {
	Start      *time.Time `json:"start,omitempty" yaml:"start,omitempty" toml:"start,omitempty"`
	End        *time.Time `json:"end,omitempty" yaml:"end,omitempty" toml:"end,omitempty"`
	DailyHours float64    `json:"daily_hours,omitempty" yaml:"daily_hours,omitempty" toml:"daily_hours,omitempty" validate:"omitempty,gt=0,lte=24"`
}

// Resource is a pool of capacity (people, machines, licences) that tasks draw on.
type Resource struct {
	ID           string        `json:"id" yaml:"id" toml:"id" validate:"required,max=128"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Type         string        `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Capacity     float64       `json:"capacity" yaml:"capacity" toml:"capacity" validate:"gt=0"`
	CostPerHour  float64       `json:"cost_per_hour" yaml:"cost_per_hour" toml:"cost_per_hour" validate:"gte=0"`
	Skills       []string      `json:"skills,omitempty" yaml:"skills,omitempty" toml:"skills,omitempty"`
	Availability *Availability `json:"availability,omitempty" yaml:"availability,omitempty" toml:"availability,omitempty"`
}

// HasSkill reports whether the resource carries the given skill.
func (r Resource) HasSkill(skill string) bool {
	return slices.Contains(r.Skills, skill)
}

// Clone returns a deep copy.
func (r Resource) Clone() Resource {
	c := r
	c.Skills = append([]string(nil), r.Skills...)
	if r.Availability != nil {
		a := *r.Availability
		c.Availability = &a
	}
	return c
}
