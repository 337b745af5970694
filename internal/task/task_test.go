package task

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/clouddwh/architect/internal/i18n"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	events  []string
	reports [][3]string
}

func (r *recorder) Show() { r.events = append(r.events, "show") }
func (r *recorder) Hide() { r.events = append(r.events, "hide") }
func (r *recorder) ReportError(title, message, detail string) {
	r.reports = append(r.reports, [3]string{title, message, detail})
}

func newRunner(rec *recorder, buf *bytes.Buffer) Runner {
	return Runner{
		Indicator: rec,
		Reporter:  rec,
		Localizer: i18n.New("de-DE"),
		Logger:    slog.New(slog.NewTextHandler(buf, nil)),
	}
}

func TestRunSuccess(t *testing.T) {
	rec := &recorder{}
	var buf bytes.Buffer

	got, ok := Run(context.Background(), newRunner(rec, &buf), func(context.Context) (int, error) {
		rec.events = append(rec.events, "run")
		return 42, nil
	}, nil)

	assert.True(t, ok)
	assert.Equal(t, 42, got)
	assert.Equal(t, []string{"show", "run", "hide"}, rec.events)
	assert.Empty(t, rec.reports)
	assert.Empty(t, buf.String())
}

func TestRunUnhandledErrorIsReported(t *testing.T) {
	rec := &recorder{}
	var buf bytes.Buffer

	got, ok := Run(context.Background(), newRunner(rec, &buf), func(context.Context) (string, error) {
		return "partial", errors.New("connection reset")
	}, func(error) bool { return false })

	assert.False(t, ok)
	assert.Equal(t, "", got)
	assert.Equal(t, []string{"show", "hide"}, rec.events)
	if assert.Len(t, rec.reports, 1) {
		assert.Equal(t, "Unerwarteter Fehler", rec.reports[0][0])
		assert.Equal(t, "connection reset", rec.reports[0][2])
	}
	assert.Contains(t, buf.String(), "connection reset")
}

func TestRunHandledErrorIsNotReported(t *testing.T) {
	rec := &recorder{}
	var buf bytes.Buffer
	sentinel := errors.New("weak password")

	var claimed error
	_, ok := Run(context.Background(), newRunner(rec, &buf), func(context.Context) (struct{}, error) {
		return struct{}{}, sentinel
	}, func(err error) bool { claimed = err; return true })

	assert.False(t, ok)
	assert.ErrorIs(t, claimed, sentinel)
	assert.Empty(t, rec.reports)
	assert.Contains(t, buf.String(), "weak password")
}

func TestRunWithoutCollaborators(t *testing.T) {
	_, ok := Run(context.Background(), Runner{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))},
		func(context.Context) (int, error) { return 0, errors.New("boom") }, nil)
	assert.False(t, ok)
}
