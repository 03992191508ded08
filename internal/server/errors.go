package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/cabledesk/internal/authorization"
	subscriberdomain "github.com/smallbiznis/cabledesk/internal/subscriber/domain"
	"github.com/smallbiznis/cabledesk/internal/subscriber/validation"
	"github.com/smallbiznis/cabledesk/internal/subscriber/view"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// importFailure keeps the skipped-row report of an import that produced
// nothing insertable.
type importFailure struct {
	err     error
	skipped []subscriberdomain.SkippedRow
}

func (e *importFailure) Error() string { return e.err.Error() }

func (e *importFailure) Unwrap() error { return e.err }

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var fieldErr *validation.Error
	if errors.As(err, &fieldErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: validationErrorMessage(fieldErr.Err.Error()),
			Errors:  fieldErrors(fieldErr),
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var storeErr *subscriberdomain.StoreError
	if errors.As(err, &storeErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "store_error",
			Message: storeErr.Error(),
		}
	}

	var importErr *subscriberdomain.ImportError
	if errors.As(err, &importErr) {
		payload := errorPayload{
			Type:    "import_error",
			Message: importErr.Reason,
		}
		var failure *importFailure
		if errors.As(err, &failure) {
			for _, row := range failure.skipped {
				payload.Errors = append(payload.Errors, ValidationError{
					Field:   fmt.Sprintf("row_%d", row.Row),
					Code:    "row_skipped",
					Message: row.Reason,
				})
			}
		}
		return http.StatusUnprocessableEntity, payload
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, subscriberdomain.ErrConfirmationMissing):
		return http.StatusBadRequest, errorPayload{
			Type:    "confirmation_required",
			Message: "deleting a subscriber requires confirm=true",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func fieldErrors(err *validation.Error) []ValidationError {
	code := err.Err.Error()
	fields := err.Fields
	if len(fields) == 0 {
		fields = []string{validationErrorField(code)}
	}
	out := make([]ValidationError, 0, len(fields))
	for _, field := range fields {
		out = append(out, ValidationError{
			Field:   field,
			Code:    code,
			Message: validationErrorMessage(code),
		})
	}
	return out
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, subscriberdomain.ErrInvalidID),
		errors.Is(err, view.ErrInvalidFeeRange):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, subscriberdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, subscriberdomain.ErrInvalidID):
		return subscriberdomain.ErrInvalidID.Error()
	case errors.Is(err, view.ErrInvalidFeeRange):
		return view.ErrInvalidFeeRange.Error()
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if code == "missing_fields" {
		return "form"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_fields":
		return "please fill all required fields"
	case "invalid_phone":
		return "phone number must be exactly 10 digits"
	case "reserved_area":
		return "area cannot be \"all\""
	case "invalid_provider":
		return "unknown service provider"
	case "invalid_status":
		return "status must be active, inactive or suspended"
	case "invalid_fee":
		return "monthly fee must be a non-negative number"
	case "invalid_connection_date":
		return "connection date must be YYYY-MM-DD"
	case "invalid_fee_range":
		return "fee range must be all, low, medium or high"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog returns the error type and code written to request logs.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}
