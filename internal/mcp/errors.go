package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/worklog/internal/domain/assist"
	"github.com/rpggio/worklog/internal/domain/project"
	"github.com/rpggio/worklog/internal/domain/report"
	"github.com/rpggio/worklog/internal/domain/search"
	"github.com/rpggio/worklog/internal/domain/worklog"
	"github.com/rpggio/worklog/internal/llm"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, worklog.ErrEntryNotFound):
		return &APIError{Code: "LOG_NOT_FOUND", Message: "log entry not found", RecoveryHint: "Check the log id with list_logs"}
	case errors.Is(err, project.ErrProjectNotFound):
		return &APIError{Code: "PROJECT_NOT_FOUND", Message: "project not found", RecoveryHint: "Check the project id with list_projects"}
	case errors.Is(err, project.ErrDuplicateCode):
		return &APIError{Code: "DUPLICATE_CODE", Message: "project code already in use", RecoveryHint: "Pick another code"}
	case errors.Is(err, project.ErrTagSequenceExhausted):
		return &APIError{Code: "TAG_SEQUENCE_EXHAUSTED", Message: err.Error(), RecoveryHint: "Reuse an existing tag or log the task on another day"}
	case errors.Is(err, worklog.ErrProjectRequired):
		return &APIError{Code: "PROJECT_REQUIRED", Message: "tasks need a project"}
	case errors.Is(err, worklog.ErrInvalidState):
		return &APIError{Code: "INVALID_STATE", Message: "unknown task state", RecoveryHint: "Use high, medium, low, review, done or empty"}
	case errors.Is(err, assist.ErrUnknownProjectCode):
		return &APIError{Code: "UNKNOWN_PROJECT_CODE", Message: err.Error(), RecoveryHint: "Register the project first or drop the code"}
	case errors.Is(err, assist.ErrEmptyInput), errors.Is(err, search.ErrEmptyQuery):
		return &APIError{Code: "EMPTY_INPUT", Message: err.Error()}
	case errors.Is(err, llm.ErrMalformedResponse), errors.Is(err, llm.ErrEmptyResponse):
		return &APIError{Code: "MODEL_RESPONSE_INVALID", Message: err.Error(), RecoveryHint: "Retry; nothing was written"}
	case errors.Is(err, search.ErrNotConfigured), errors.Is(err, llm.ErrNotConfigured):
		return &APIError{Code: "NOT_CONFIGURED", Message: err.Error(), RecoveryHint: "Configure an LLM provider"}
	case errors.Is(err, report.ErrReportNotFound):
		return &APIError{Code: "REPORT_NOT_FOUND", Message: "report not found", RecoveryHint: "Call generate_report first"}
	case errors.Is(err, report.ErrNoLogs):
		return &APIError{Code: "NO_LOGS", Message: "no logs for this date"}
	case errors.Is(err, worklog.ErrInvalidInput), errors.Is(err, project.ErrInvalidInput), errors.Is(err, report.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

// toolError converts err into the error returned from a tool handler.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
