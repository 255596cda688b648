package models

import (
	"fmt"
	"time"

	"github.com/josephgoksu/CostWing/types"
)

// Project is the input of one scheduling run: tasks, resources and a start instant.
type Project struct {
	ID        string     `json:"id" yaml:"id" toml:"id" validate:"required,max=128"`
	Name      string     `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	StartDate time.Time  `json:"start_date" yaml:"start_date" toml:"start_date" validate:"required"`
	Tasks     []Task     `json:"tasks" yaml:"tasks" toml:"tasks" validate:"required,min=1,dive"`
	Resources []Resource `json:"resources" yaml:"resources" toml:"resources" validate:"dive"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	c := p
	c.Tasks = make([]Task, len(p.Tasks))
	for i, t := range p.Tasks {
		c.Tasks[i] = t.Clone()
	}
	c.Resources = make([]Resource, len(p.Resources))
	for i, r := range p.Resources {
		c.Resources[i] = r.Clone()
	}
	return c
}

// ResourceByID returns the resource with the given id.
func (p Project) ResourceByID(id string) (Resource, bool) {
	for _, r := range p.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

// ApplyDefaults fills in optional fields: priority medium, quantity 1.
func (p *Project) ApplyDefaults() {
	for i := range p.Tasks {
		if p.Tasks[i].Priority == "" {
			p.Tasks[i].Priority = PriorityMedium
		}
		for j := range p.Tasks[i].Requirements {
			if p.Tasks[i].Requirements[j].Quantity == 0 {
				p.Tasks[i].Requirements[j].Quantity = 1
			}
		}
	}
}

// Validate checks tags plus the cross-field rules validator tags cannot express:
// unique ids, finite numbers and ordered availability windows.
func (p *Project) Validate() error {
	if err := ValidateStruct(p); err != nil {
		return err
	}

	taskIDs := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, dup := taskIDs[t.ID]; dup {
			return types.NewInvalidInputError(fmt.Sprintf("duplicate task id %q", t.ID), nil)
		}
		taskIDs[t.ID] = struct{}{}
		if !finite(t.Duration) {
			return types.NewInvalidInputError(fmt.Sprintf("task %q has non-finite duration", t.ID), nil)
		}
		for _, req := range t.Requirements {
			if !finite(req.Quantity) {
				return types.NewInvalidInputError(fmt.Sprintf("task %q has non-finite quantity", t.ID), nil)
			}
		}
	}

	resourceIDs := make(map[string]struct{}, len(p.Resources))
	for _, r := range p.Resources {
		if _, dup := resourceIDs[r.ID]; dup {
			return types.NewInvalidInputError(fmt.Sprintf("duplicate resource id %q", r.ID), nil)
		}
		resourceIDs[r.ID] = struct{}{}
		if !finite(r.Capacity) || !finite(r.CostPerHour) {
			return types.NewInvalidInputError(fmt.Sprintf("resource %q has non-finite capacity or cost", r.ID), nil)
		}
		if a := r.Availability; a != nil && a.Start != nil && a.End != nil && !a.End.After(*a.Start) {
			return types.NewInvalidInputError(fmt.Sprintf("resource %q availability ends before it starts", r.ID), nil)
		}
	}
	return nil
}
