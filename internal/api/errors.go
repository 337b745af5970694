package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/authbridge"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/i18n"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/project"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeFieldError(w, statusCode, code, message, nil)
}

func writeFieldError(w http.ResponseWriter, statusCode int, code, message string, fields map[string]string) {
	writeJSON(w, statusCode, errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
			Fields:  fields,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit.
func readJSON(r *http.Request, v interface{}) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	return json.NewDecoder(lr).Decode(v)
}

func writeInvalidBody(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, "invalid_body", localizer(r).T("error.invalidBody"))
}

var statusForCode = map[identity.Code]int{
	identity.CodeInvalidEmail:      http.StatusUnprocessableEntity,
	identity.CodeWeakPassword:      http.StatusUnprocessableEntity,
	identity.CodeEmailInUse:        http.StatusConflict,
	identity.CodeInvalidCredential: http.StatusUnauthorized,
	identity.CodeUserNotFound:      http.StatusUnauthorized,
	identity.CodeSessionExpired:    http.StatusUnauthorized,
	identity.CodeTooManyRequests:   http.StatusTooManyRequests,
	identity.CodeAccountLocked:     http.StatusForbidden,
	identity.CodeInvalidActionCode: http.StatusBadRequest,
}

var keyForCode = map[identity.Code]string{
	identity.CodeUserNotFound:   "authentication.error.invalidCredential",
	identity.CodeSessionExpired: "authentication.error.sessionExpired",
}

// writeServiceError classifies err from a service call and writes the
// localized error envelope. Unclassified errors are logged and answered with
// 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, scope string) {
	l := localizer(r)

	var fe account.FieldErrors
	if errors.As(err, &fe) {
		fields := make(map[string]string, len(fe))
		for field, key := range fe {
			fields[field] = l.T(key)
		}
		writeFieldError(w, http.StatusUnprocessableEntity, "validation_error", l.T("error.invalidInput", "detail", fe.Error()), fields)
		return
	}

	if code, ok := identity.CodeOf(err); ok {
		fields := authbridge.Fields{}
		message := ""
		if authbridge.MapError(l, err, fields, true) {
			for _, m := range fields {
				message = m
			}
		} else if key, ok := keyForCode[code]; ok {
			message = l.T(key)
		} else {
			message = err.Error()
		}
		status, ok := statusForCode[code]
		if !ok {
			status = http.StatusBadRequest
		}
		if len(fields) == 0 {
			fields = nil
		}
		writeFieldError(w, status, string(code), message, fields)
		return
	}

	switch {
	case errors.Is(err, document.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", l.T("error.notFound", "scope", scope))
	case errors.Is(err, project.ErrInvalidDefinition):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", l.T("error.invalidInput", "detail", err.Error()))
	case errors.Is(err, account.ErrInvalidLanguage):
		writeFieldError(w, http.StatusUnprocessableEntity, "validation_error", l.T("error.invalidInput", "detail", err.Error()),
			map[string]string{"language": l.T(account.MsgInvalidOption)})
	case errors.Is(err, identity.ErrNotSignedIn):
		writeError(w, http.StatusUnauthorized, "unauthorized", l.T("error.unauthorized"))
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal_error", l.T("dialog.unexpectedError.message"))
	}
}

// localizer returns the request's localizer, defaulting to en-US.
func localizer(r *http.Request) *i18n.Localizer {
	if l, ok := r.Context().Value(localizerKey).(*i18n.Localizer); ok {
		return l
	}
	return i18n.New("")
}
