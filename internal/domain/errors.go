package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }

// Is implementations let errors.Is match the typed errors against the sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Export and print failures
	ErrRenderEngine = errors.New("render engine failed")
	ErrPostProcess  = errors.New("pdf post-processing failed")
	ErrPrintService = errors.New("print service rejected upload")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (document, particle)
	ResourceID   string // ID of the existing/conflicting resource
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// RenderEngineError reports that the headless rendering engine could not be
// launched, crashed, or did not finish in time.
type RenderEngineError struct {
	Op  string // launch, navigate, print, write
	Err error
}

func (e *RenderEngineError) Error() string {
	return fmt.Sprintf("render engine %s: %v", e.Op, e.Err)
}

func (e *RenderEngineError) Unwrap() error { return e.Err }

func (e *RenderEngineError) StatusCode() int { return http.StatusBadGateway }

func (e *RenderEngineError) Is(target error) bool {
	return target == ErrRenderEngine
}

// PostProcessError reports a non-zero exit from the PDF post-processor.
type PostProcessError struct {
	Tool     string
	ExitCode int
	Output   string
	Err      error
}

func (e *PostProcessError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("%s exited with code %d: %s", e.Tool, e.ExitCode, e.Output)
	}
	return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.ExitCode, e.Err)
}

func (e *PostProcessError) Unwrap() error { return e.Err }

func (e *PostProcessError) StatusCode() int { return http.StatusBadGateway }

func (e *PostProcessError) Is(target error) bool {
	return target == ErrPostProcess
}

// PrintServiceError carries the remote status and body for operator diagnosis.
type PrintServiceError struct {
	RemoteStatus int
	Body         string
}

func (e *PrintServiceError) Error() string {
	return fmt.Sprintf("print service returned status %d: %s", e.RemoteStatus, e.Body)
}

// StatusCode maps every remote rejection to a gateway error for our own callers.
func (e *PrintServiceError) StatusCode() int { return http.StatusBadGateway }

func (e *PrintServiceError) Is(target error) bool {
	return target == ErrPrintService
}
