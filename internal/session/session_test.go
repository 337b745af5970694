package session

import (
	"testing"
	"time"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proj(id, name string) *project.Project {
	p := &project.Project{Path: project.Collection, ID: id, Type: document.TypeProject}
	p.Data.Common.Name = name
	return p
}

func names(ps []*project.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Data.Common.Name
	}
	return out
}

func acct(name string, lang account.Language) *account.Account {
	a := &account.Account{Path: account.Collection, ID: "u1", Type: document.TypeAccount}
	a.Data.Common.Name = name
	a.Data.Preferences.Language = lang
	return a
}

func TestSetProjectListSortsLocaleAware(t *testing.T) {
	s := New()
	s.SetAccount(acct("Ada Lovelace", account.LanguageDeDE))
	s.SetProjectList([]*project.Project{
		proj("1", "Zebra"), proj("2", "Äpfel"), proj("3", "Beta"), proj("4", "alpha"), proj("5", "Apfel"),
	})
	assert.Equal(t, []string{"alpha", "Apfel", "Äpfel", "Beta", "Zebra"}, names(s.Projects()))
}

func TestAddProjectKeepsOrder(t *testing.T) {
	s := New()
	s.SetProjectList([]*project.Project{proj("a", "Alpha"), proj("c", "Gamma")})

	s.AddProject(proj("b", "Beta"))
	assert.Equal(t, []string{"Alpha", "Beta", "Gamma"}, names(s.Projects()))

	// Same id replaces the existing entry and moves it.
	s.AddProject(proj("a", "Omega"))
	assert.Equal(t, []string{"Beta", "Gamma", "Omega"}, names(s.Projects()))
	assert.Len(t, s.Projects(), 3)
}

func TestRemoveProject(t *testing.T) {
	s := New()
	s.SetProjectList([]*project.Project{proj("a", "Alpha"), proj("b", "Beta")})

	assert.False(t, s.RemoveProject("missing"))
	assert.Equal(t, []string{"Alpha", "Beta"}, names(s.Projects()))

	assert.True(t, s.RemoveProject("a"))
	assert.Equal(t, []string{"Beta"}, names(s.Projects()))
	assert.Nil(t, s.Project("a"))
	require.NotNil(t, s.Project("b"))
	assert.Equal(t, "Beta", s.Project("b").Data.Common.Name)
}

func TestAccountNameAndClear(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.AccountName())
	assert.Nil(t, s.Account())

	s.SetAccount(acct("Ada Lovelace", account.LanguageEnUS))
	s.SetProjectList([]*project.Project{proj("a", "Alpha")})
	s.OpenEditor(document.TypeProject, ModeEdit, "a", nil)
	assert.Equal(t, "Ada Lovelace", s.AccountName())

	s.Clear()
	assert.Nil(t, s.Account())
	assert.Empty(t, s.Projects())
	assert.False(t, s.EditorLocked())
	assert.Equal(t, Route{}, s.CurrentRoute())
}

func TestOpenAndReleaseEditor(t *testing.T) {
	s := New()

	var got any
	r := s.OpenEditor(document.TypeProject, ModeCreate, "new", func(result any) { got = result })
	assert.Equal(t, Route{Name: "projectEditor", Path: "/project/create/new", Mode: ModeCreate, ID: "new"}, r)
	assert.True(t, s.EditorLocked())
	assert.Equal(t, r, s.CurrentRoute())

	s.ReleaseEditor("saved")
	assert.False(t, s.EditorLocked())
	assert.Equal(t, "saved", got)

	// The handler is used once.
	got = nil
	s.ReleaseEditor("again")
	assert.Nil(t, got)
}

func TestRouteToDiscardGate(t *testing.T) {
	s := New()
	editor := s.OpenEditor(document.TypeProject, ModeEdit, "p1", nil)

	asked := 0
	decline := func() bool { asked++; return false }
	accept := func() bool { asked++; return true }

	r, ok := s.RouteTo("/projects", true, decline)
	assert.False(t, ok)
	assert.Equal(t, editor, r)
	assert.True(t, s.EditorLocked())

	_, ok = s.RouteTo("/projects", true, nil)
	assert.False(t, ok)

	r, ok = s.RouteTo("/projects", true, accept)
	assert.True(t, ok)
	assert.Equal(t, "/projects", r.Path)
	assert.False(t, s.EditorLocked())
	assert.Equal(t, 2, asked)

	// Unlocked navigation never asks.
	_, ok = s.RouteTo("/account", true, decline)
	assert.True(t, ok)
	assert.Equal(t, 2, asked)

	// checkLock=false bypasses the gate but leaves the lock alone.
	s.OpenEditor(document.TypeProject, ModeView, "p1", nil)
	_, ok = s.RouteTo("/help", false, decline)
	assert.True(t, ok)
	assert.True(t, s.EditorLocked())
	assert.Equal(t, 2, asked)
}

func TestSubscribe(t *testing.T) {
	s := New()
	events, cancel := s.Subscribe(4)

	s.SetAccount(acct("Ada", account.LanguageEnUS))
	s.AddProject(proj("p1", "Alpha"))

	assert.Equal(t, Event{Kind: EventAccount}, <-events)
	assert.Equal(t, Event{Kind: EventProjects, ProjectID: "p1"}, <-events)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)

	// Publishing after cancel must not panic.
	s.RemoveProject("p1")
}

func TestSubscribeDropsWhenFull(t *testing.T) {
	s := New()
	events, cancel := s.Subscribe(1)
	defer cancel()

	s.AddProject(proj("a", "A"))
	s.AddProject(proj("b", "B"))
	s.AddProject(proj("c", "C"))

	assert.Equal(t, "a", (<-events).ProjectID)
	select {
	case ev := <-events:
		t.Fatalf("expected dropped events, got %+v", ev)
	default:
	}
}

type fakeGauge struct{ value float64 }

func (g *fakeGauge) Set(v float64) { g.value = v }

func TestRegistry(t *testing.T) {
	g := &fakeGauge{}
	r := NewRegistry(g)
	provider := identity.NewMemoryProvider(0)

	closed := 0
	s1 := r.Open("t1", identity.NewAuth(provider), New())
	s1.OnClose(func() { closed++ })
	r.Open("t2", identity.NewAuth(provider), New())
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, 2.0, g.value)

	got, ok := r.Get("t1")
	require.True(t, ok)
	assert.Same(t, s1, got)

	r.Close("t1")
	r.Close("t1")
	assert.Equal(t, 1, closed)
	_, ok = r.Get("t1")
	assert.False(t, ok)
	assert.Equal(t, 1.0, g.value)
}

func TestRegistryReplaceClosesPrevious(t *testing.T) {
	r := NewRegistry(nil)
	provider := identity.NewMemoryProvider(0)

	closed := false
	r.Open("t", identity.NewAuth(provider), New()).OnClose(func() { closed = true })
	r.Open("t", identity.NewAuth(provider), New())
	assert.True(t, closed)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryExpireAndCloseUser(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewRegistry(nil)
	r.now = func() time.Time { return now }

	provider := identity.NewMemoryProvider(0)
	auth := identity.NewAuth(provider)
	_, err := auth.CreateUser(t.Context(), "a@x.com", "abcdef")
	require.NoError(t, err)
	uid := auth.CurrentUser().UID

	r.Open("signed-in", auth, New())
	r.Open("anonymous", identity.NewAuth(provider), New())

	now = now.Add(10 * time.Minute)
	r.Get("signed-in")
	now = now.Add(25 * time.Minute)

	assert.Equal(t, 1, r.Expire(30*time.Minute))
	_, ok := r.Get("anonymous")
	assert.False(t, ok)

	assert.Equal(t, 1, r.CloseUser(uid))
	assert.Equal(t, 0, r.Len())
}
