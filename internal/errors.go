package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidID        ErrorCode = "INVALID_ID"
	ErrCodeInternalError    ErrorCode = "INTERNAL_ERROR"

	ErrCodeAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	ErrCodeInvalidCredentials     ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive           ErrorCode = "USER_INACTIVE"
	ErrCodeUserNotFound           ErrorCode = "USER_NOT_FOUND"
	ErrCodeInvalidToken           ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired           ErrorCode = "TOKEN_EXPIRED"

	ErrCodeOrganizationRequired ErrorCode = "ORGANIZATION_REQUIRED"
	ErrCodeOrganizationNotFound ErrorCode = "ORGANIZATION_NOT_FOUND"
	ErrCodeOrganizationAccess   ErrorCode = "ORGANIZATION_ACCESS_DENIED"
	ErrCodeMembershipRequired   ErrorCode = "MEMBERSHIP_REQUIRED"
	ErrCodeManagerRequired      ErrorCode = "MANAGER_REQUIRED"
	ErrCodeInsufficientAccess   ErrorCode = "INSUFFICIENT_PERMISSIONS"

	ErrCodeOrgRoleNotFound ErrorCode = "ORG_ROLE_NOT_FOUND"
	ErrCodeOrgRoleExists   ErrorCode = "ORG_ROLE_EXISTS"
	ErrCodeMemberNotFound  ErrorCode = "MEMBER_NOT_FOUND"
	ErrCodeMemberExists    ErrorCode = "MEMBER_EXISTS"

	ErrCodeLegislationNotFound    ErrorCode = "LEGISLATION_NOT_FOUND"
	ErrCodeInvalidLegislationStep ErrorCode = "INVALID_LEGISLATION_STATUS"
)

// Requirement names the capability a forbidden request was missing.
type Requirement struct {
	Tool   string `json:"tool"`
	Action string `json:"action"`
}

type AppError struct {
	Type       ErrorType    `json:"type"`
	Code       ErrorCode    `json:"code"`
	Message    string       `json:"message"`
	Details    interface{}  `json:"details,omitempty"`
	Required   *Requirement `json:"required,omitempty"`
	StatusCode int          `json:"-"`
	Cause      error        `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			messages := make([]string, len(validationErrors.Errors))
			for i, err := range validationErrors.Errors {
				messages[i] = err.Message
			}
			return strings.Join(messages, "; ")
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches app errors by code so sentinel values work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

// WithCause returns a copy carrying cause; sentinels stay untouched.
func (e *AppError) WithCause(cause error) *AppError {
	cp := *e
	cp.Cause = cause
	return &cp
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func (e *AppError) WithRequired(tool, action string) *AppError {
	cp := *e
	cp.Required = &Requirement{Tool: tool, Action: action}
	return &cp
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternalError,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

var (
	ErrAuthenticationRequired = NewUnauthorizedError("Authentication required", ErrCodeAuthenticationRequired)
	ErrInvalidCredentials     = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive           = NewForbiddenError("Account is inactive", ErrCodeUserInactive)
	ErrUserNotFound           = NewUnauthorizedError("User not found", ErrCodeUserNotFound)
	ErrInvalidToken           = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired           = NewUnauthorizedError("Token expired", ErrCodeTokenExpired)

	ErrOrganizationRequired   = NewValidationError("organizationId is required", ErrCodeOrganizationRequired)
	ErrOrganizationNotFound   = NewNotFoundError("Organization not found", ErrCodeOrganizationNotFound)
	ErrOrganizationAccess     = NewForbiddenError("User does not have access to this organization", ErrCodeOrganizationAccess)
	ErrMembershipRequired     = NewForbiddenError("Organization membership is required", ErrCodeMembershipRequired)
	ErrManagerRequired        = NewForbiddenError("Organization management edit permission is required for this action", ErrCodeManagerRequired)
	ErrInsufficientAccess     = NewForbiddenError("Insufficient permissions", ErrCodeInsufficientAccess)
	ErrOrgRoleNotFound        = NewNotFoundError("Organization role not found", ErrCodeOrgRoleNotFound)
	ErrOrgRoleExists          = NewConflictError("A role with this name already exists", ErrCodeOrgRoleExists)
	ErrMemberNotFound         = NewNotFoundError("Member not found", ErrCodeMemberNotFound)
	ErrMemberExists           = NewConflictError("User is already a member of this organization", ErrCodeMemberExists)
	ErrLegislationNotFound    = NewNotFoundError("Legislation not found", ErrCodeLegislationNotFound)
	ErrLegislationNotEditable = NewValidationError("Published legislation cannot be modified", ErrCodeInvalidLegislationStep)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
