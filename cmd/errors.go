package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/josephgoksu/CostWing/types"
)

// PrintError prints an error message without exiting. If the --verbose
// flag is set, it prints the full technical error instead.
func PrintError(userMsg string, technicalErr error) {
	if viper.GetBool("verbose") && technicalErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", technicalErr)
	} else {
		fmt.Fprintln(os.Stderr, userMsg)
	}
}

// LogError logs an error without printing to stderr if verbose mode is off.
func LogError(msg string, err error) {
	if viper.GetBool("verbose") {
		if err != nil {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s: %v\n", msg, err)
		} else {
			fmt.Fprintf(os.Stderr, "[DEBUG] %s\n", msg)
		}
	}
}

// userMessage maps an error to the message shown without --verbose.
func userMessage(err error) string {
	var se *types.ScheduleError
	if !errors.As(err, &se) {
		return "Error: " + err.Error()
	}
	subject := ""
	switch {
	case se.TaskID != "" && se.ResourceID != "":
		subject = fmt.Sprintf(" (task %s, resource %s)", se.TaskID, se.ResourceID)
	case se.TaskID != "":
		subject = fmt.Sprintf(" (task %s)", se.TaskID)
	}
	switch se.Code {
	case types.CodeInvalidGraph:
		return "The task graph is invalid: " + se.Message + subject
	case types.CodeNoSuitableResource:
		return "No suitable resource: " + se.Message + subject
	case types.CodeInvalidInput:
		return "Invalid input: " + se.Message + subject
	case types.CodeCapacityConflict:
		return "Capacity conflict: " + se.Message + subject
	default:
		return "Error: " + se.Message
	}
}
