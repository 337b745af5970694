// Package task runs user-initiated actions behind a busy indicator and
// routes failures either to a caller-supplied handler or to the
// unexpected-error dialog.
package task

import (
	"context"
	"log/slog"

	"github.com/clouddwh/architect/internal/i18n"
)

// Indicator shows progress while a task runs.
type Indicator interface {
	Show()
	Hide()
}

// Reporter presents errors nobody claimed.
type Reporter interface {
	ReportError(title, message, detail string)
}

// Runner bundles the collaborators of Run.
type Runner struct {
	Indicator Indicator
	Reporter  Reporter
	Localizer *i18n.Localizer
	Logger    *slog.Logger
}

// Run executes fn with the indicator shown. On failure the error is logged
// and offered to handler; if handler is nil or returns false the
// unexpected-error dialog is reported with the raw error message. ok is
// false whenever fn failed.
func Run[R any](ctx context.Context, r Runner, fn func(context.Context) (R, error), handler func(error) bool) (result R, ok bool) {
	if r.Indicator != nil {
		r.Indicator.Show()
		defer r.Indicator.Hide()
	}

	res, err := fn(ctx)
	if err == nil {
		return res, true
	}

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.ErrorContext(ctx, "task failed", "error", err)

	if handler != nil && handler(err) {
		return result, false
	}
	if r.Reporter != nil {
		l := r.Localizer
		if l == nil {
			l = i18n.New("")
		}
		r.Reporter.ReportError(
			l.T("dialog.unexpectedError.title"),
			l.T("dialog.unexpectedError.message"),
			err.Error(),
		)
	}
	return result, false
}
