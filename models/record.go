package models

import "time"

// RecordKind names the operation that produced a stored result.
type RecordKind string

const (
	KindLevel     RecordKind = "level"
	KindSmooth    RecordKind = "smooth"
	KindOptimize  RecordKind = "optimize"
	KindScenarios RecordKind = "scenarios"
)

// Record is one persisted run result. Payload holds the result as JSON text
// so every backend stores it the same way.
type Record struct {
	ID        string     `json:"id" yaml:"id" toml:"id" validate:"required,uuid4"`
	ProjectID string     `json:"projectId" yaml:"projectId" toml:"projectId" validate:"required,max=128"`
	Kind      RecordKind `json:"kind" yaml:"kind" toml:"kind" validate:"required,oneof=level smooth optimize scenarios"`
	Objective string     `json:"objective,omitempty" yaml:"objective,omitempty" toml:"objective,omitempty"`
	CreatedAt time.Time  `json:"createdAt" yaml:"createdAt" toml:"createdAt" validate:"required"`
	Payload   string     `json:"payload" yaml:"payload" toml:"payload" validate:"required,json"`
}

// RecordList is the on-disk layout of the file result store.
type RecordList struct {
	Records    []Record `json:"records" yaml:"records" toml:"records" validate:"dive"`
	TotalCount int      `json:"totalCount" yaml:"totalCount" toml:"totalCount"`
}
