package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo is a parsed error: a stable code, a user-facing message, and
// the HTTP status the code implies. Status is zero when the error could
// not be classified.
type ErrorInfo struct {
	Code    string
	Message string
	Status  int
}

// ParseError converts database and infrastructure errors into a code and a
// message safe to show users. context is a short description of the failed
// operation ("create store", "register user", ...).
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
			Status:  http.StatusInternalServerError,
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: notFoundMessage(context),
			Status:  http.StatusNotFound,
		}
	}

	// Postgres errors carry SQLSTATE codes when running against lib/pq;
	// against other drivers (tests run on SQLite) fall back to text matching.
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return parseDuplicateKeyError(pqErr.Error(), context)
		case "23503": // foreign_key_violation
			return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record does not exist", Status: http.StatusNotFound}
		case "23502": // not_null_violation
			return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing", Status: http.StatusBadRequest}
		}
	}

	errStr := err.Error()
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errStr, context)
	}
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{Code: ResourceNotFound, Message: "Referenced record does not exist", Status: http.StatusNotFound}
	}
	if strings.Contains(errLower, "not null constraint") ||
		(strings.Contains(errLower, "null value") && strings.Contains(errLower, "not-null")) {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing", Status: http.StatusBadRequest}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "A backing service is unavailable. Please try again later",
			Status:  http.StatusServiceUnavailable,
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

func parseDuplicateKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "slug") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A store with this name already exists",
			Status:  http.StatusConflict,
		}
	}
	if strings.Contains(errLower, "email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "That email is already registered",
			Status:  http.StatusConflict,
		}
	}
	if strings.Contains(errLower, "hearts") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Store is already in your favorites",
			Status:  http.StatusConflict,
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "That record already exists",
		Status:  http.StatusConflict,
	}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "store"):
		return "Store not found"
	case strings.Contains(contextLower, "user"), strings.Contains(contextLower, "account"):
		return "User not found"
	case strings.Contains(contextLower, "review"):
		return "Review not found"
	}
	return "Requested record not found"
}

// ParseAndRespond parses err and writes the standard error response. The
// parsed status wins when the error classified into one; statusCode covers
// the rest.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	info := ParseError(err, context)
	if info.Status != 0 {
		statusCode = info.Status
	}
	c.JSON(statusCode, ErrorResponse{
		Error:   info.Code,
		Message: info.Message,
	})
}
