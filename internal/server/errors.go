package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authdomain "github.com/orbitcrm/orbitcrm/internal/auth/domain"
	chatdomain "github.com/orbitcrm/orbitcrm/internal/chat/domain"
	contactdomain "github.com/orbitcrm/orbitcrm/internal/contact/domain"
	invoicedomain "github.com/orbitcrm/orbitcrm/internal/invoice/domain"
	notificationdomain "github.com/orbitcrm/orbitcrm/internal/notification/domain"
	orgdomain "github.com/orbitcrm/orbitcrm/internal/organization/domain"
	portaldomain "github.com/orbitcrm/orbitcrm/internal/portal/domain"
	portalsession "github.com/orbitcrm/orbitcrm/internal/portal/session"
	projectdomain "github.com/orbitcrm/orbitcrm/internal/project/domain"
	taskdomain "github.com/orbitcrm/orbitcrm/internal/task/domain"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// ErrorHandlingMiddleware maps the last handler error to a typed JSON
// payload. Handlers report failures with AbortWithError and never write
// error bodies themselves.
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

		var rle *chatdomain.RateLimitError
		if errors.As(lastErr.Err, &rle) {
			retryAfter := int(rle.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
				Type:    "rate_limited",
				Message: "rate limit exceeded",
			}})
			return
		}

		status, payload := mapError(lastErr.Err)
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

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   strings.TrimPrefix(code, "invalid_"),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, chatdomain.ErrModelNotAvailable):
		return http.StatusForbidden, errorPayload{
			Type:    "model_not_available",
			Message: "model not available on current plan",
		}
	case errors.Is(err, orgdomain.ErrInsufficientTokens):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_tokens",
			Message: "token balance exhausted",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, contactdomain.ErrInvalidOrganization),
		errors.Is(err, projectdomain.ErrInvalidOrganization),
		errors.Is(err, taskdomain.ErrInvalidOrganization),
		errors.Is(err, invoicedomain.ErrInvalidOrganization),
		errors.Is(err, notificationdomain.ErrInvalidOrganization),
		errors.Is(err, portaldomain.ErrInvalidOrganization):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, portaldomain.ErrPortalDisabled):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable), errors.Is(err, chatdomain.ErrLimiterUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
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

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, orgdomain.ErrInvalidName),
		errors.Is(err, orgdomain.ErrInvalidSlug),
		errors.Is(err, orgdomain.ErrInvalidTier),
		errors.Is(err, orgdomain.ErrInvalidAmount),
		errors.Is(err, contactdomain.ErrInvalidName),
		errors.Is(err, contactdomain.ErrInvalidEmail),
		errors.Is(err, contactdomain.ErrInvalidID),
		errors.Is(err, projectdomain.ErrInvalidName),
		errors.Is(err, projectdomain.ErrInvalidID),
		errors.Is(err, projectdomain.ErrInvalidStatus),
		errors.Is(err, taskdomain.ErrInvalidTitle),
		errors.Is(err, taskdomain.ErrInvalidID),
		errors.Is(err, taskdomain.ErrInvalidStatus),
		errors.Is(err, taskdomain.ErrInvalidPriority),
		errors.Is(err, invoicedomain.ErrInvalidContact),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidItems),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrNotDraft),
		errors.Is(err, notificationdomain.ErrInvalidTitle),
		errors.Is(err, notificationdomain.ErrInvalidID),
		errors.Is(err, portaldomain.ErrInvalidContact),
		errors.Is(err, chatdomain.ErrEmptyMessages):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrSessionNotFound),
		errors.Is(err, portaldomain.ErrInvalidToken),
		errors.Is(err, portalsession.ErrInvalidCookie),
		errors.Is(err, portalsession.ErrExpired):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orgdomain.ErrNotFound),
		errors.Is(err, orgdomain.ErrMemberNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrMilestoneNotFound),
		errors.Is(err, taskdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
