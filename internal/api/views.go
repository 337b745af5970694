package api

import (
	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/project"
)

// documentView is the wire shape of a stored document.
type documentView[T any] struct {
	ID   string        `json:"id"`
	Type document.Type `json:"type"`
	Data T             `json:"data"`
}

func viewOf[T any](doc *document.Document[T]) *documentView[T] {
	if doc == nil {
		return nil
	}
	return &documentView[T]{ID: doc.ID, Type: doc.Type, Data: doc.Data}
}

func projectViews(projects []*project.Project) []*documentView[project.Data] {
	views := make([]*documentView[project.Data], len(projects))
	for i, p := range projects {
		views[i] = viewOf(p)
	}
	return views
}

func accountViews(accounts []*account.Account) []*documentView[account.Data] {
	views := make([]*documentView[account.Data], len(accounts))
	for i, a := range accounts {
		views[i] = viewOf(a)
	}
	return views
}
