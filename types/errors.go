/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies scheduling failures.
type ErrorCode string

const (
	CodeInvalidGraph       ErrorCode = "INVALID_GRAPH"
	CodeNoSuitableResource ErrorCode = "NO_SUITABLE_RESOURCE"
	CodeCapacityConflict   ErrorCode = "CAPACITY_CONFLICT"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
)

// Sentinels for errors.Is checks. Every ScheduleError unwraps to one of these.
var (
	ErrInvalidGraph       = errors.New("invalid task graph")
	ErrNoSuitableResource = errors.New("no suitable resource")
	ErrCapacityConflict   = errors.New("capacity conflict")
	ErrInvalidInput       = errors.New("invalid input")
)

// ScheduleError provides structured error information for a rejected or degraded run.
type ScheduleError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	TaskID     string                 `json:"task_id,omitempty"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

func (e *ScheduleError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.TaskID != "" {
		fmt.Fprintf(&sb, " (task %s)", e.TaskID)
	}
	if e.ResourceID != "" {
		fmt.Fprintf(&sb, " (resource %s)", e.ResourceID)
	}
	return sb.String()
}

// Unwrap maps the code to its sentinel.
func (e *ScheduleError) Unwrap() error {
	switch e.Code {
	case CodeInvalidGraph:
		return ErrInvalidGraph
	case CodeNoSuitableResource:
		return ErrNoSuitableResource
	case CodeCapacityConflict:
		return ErrCapacityConflict
	case CodeInvalidInput:
		return ErrInvalidInput
	default:
		return nil
	}
}

// IsFatal reports whether the error must abort a run. Capacity conflicts are
// surfaced as data instead.
func (e *ScheduleError) IsFatal() bool {
	return e.Code != CodeCapacityConflict
}

// NewInvalidGraphError reports a dangling or cyclic dependency.
func NewInvalidGraphError(taskID, message string, details map[string]interface{}) *ScheduleError {
	return &ScheduleError{Code: CodeInvalidGraph, Message: message, TaskID: taskID, Details: details}
}

// NewNoSuitableResourceError reports a requirement that no resource can satisfy.
func NewNoSuitableResourceError(taskID, message string, details map[string]interface{}) *ScheduleError {
	return &ScheduleError{Code: CodeNoSuitableResource, Message: message, TaskID: taskID, Details: details}
}

// NewCapacityConflictError reports an over-committed resource.
func NewCapacityConflictError(taskID, resourceID, message string) *ScheduleError {
	return &ScheduleError{Code: CodeCapacityConflict, Message: message, TaskID: taskID, ResourceID: resourceID}
}

// NewInvalidInputError reports malformed input rejected before computation.
func NewInvalidInputError(message string, details map[string]interface{}) *ScheduleError {
	return &ScheduleError{Code: CodeInvalidInput, Message: message, Details: details}
}

// CodeOf returns the code of a ScheduleError anywhere in the chain, or "".
func CodeOf(err error) ErrorCode {
	var se *ScheduleError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
