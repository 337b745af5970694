package api

import (
	"log/slog"
	"net/http"

	"github.com/clouddwh/architect/internal/ratelimit"
)

// auditLog emits a structured audit log entry for a mutating action.
func auditLog(r *http.Request, action string, resourceType string, resourceID string, detail ...any) {
	attrs := []any{
		"action", action,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ratelimit.ClientIP(r),
		"request_id", RequestIDFromContext(r.Context()),
	}

	if sess := sessionFrom(r.Context()); sess != nil {
		attrs = append(attrs, "uid", sess.UID(), "account_name", sess.State.AccountName())
	}

	attrs = append(attrs, detail...)
	slog.Info("audit", attrs...)
}
