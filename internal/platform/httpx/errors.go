package httpx

import (
	"errors"
	"net/http"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// statusByCode maps domain error codes to HTTP status codes.
var statusByCode = map[shared.ErrorCode]int{
	shared.CodeValidation:         http.StatusBadRequest,
	shared.CodeInvalidCredentials: http.StatusUnauthorized,
	shared.CodeUserNotFound:       http.StatusNotFound,
	shared.CodeAccountInactive:    http.StatusForbidden,
	shared.CodeEmailExists:        http.StatusConflict,
	shared.CodeRateLimited:        http.StatusTooManyRequests,
	shared.CodeNetworkFailure:     http.StatusBadGateway,
	shared.CodeSenderIdentity:     http.StatusBadGateway,
	shared.CodeTokenInvalid:       http.StatusBadRequest,
	shared.CodeTokenExpired:       http.StatusGone,
	shared.CodeNotFound:           http.StatusNotFound,
	shared.CodeUnauthorized:       http.StatusUnauthorized,
	shared.CodeConflict:           http.StatusConflict,
	shared.CodeInternal:           http.StatusInternalServerError,
}

var titleByStatus = map[int]string{
	http.StatusBadRequest:          "Validation Failed",
	http.StatusUnauthorized:        "Unauthorized",
	http.StatusForbidden:           "Forbidden",
	http.StatusNotFound:            "Not Found",
	http.StatusConflict:            "Conflict",
	http.StatusGone:                "Expired",
	http.StatusTooManyRequests:     "Rate Limited",
	http.StatusBadGateway:          "Upstream Failure",
	http.StatusInternalServerError: "Internal Error",
}

// RespondError maps domain errors to HTTP responses using RFC7807. Unknown
// errors are reported as a generic internal error; their message never
// reaches the client.
func RespondError(w http.ResponseWriter, err error) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		Problem(w, http.StatusInternalServerError, titleByStatus[http.StatusInternalServerError], "")
		return
	}
	status, ok := statusByCode[de.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	detail := de.Message
	if status == http.StatusInternalServerError {
		detail = ""
	}
	JSON(w, status, ProblemDetail{
		Title:  titleByStatus[status],
		Status: status,
		Detail: detail,
		Code:   string(de.Code),
		Field:  de.Field,
	})
}
