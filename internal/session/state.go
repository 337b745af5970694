// Package session holds the per-client application context: the signed-in
// account, the projects visible to it, and the editor/navigation flags the
// client shell consults before leaving an editor.
package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/project"
	"golang.org/x/text/collate"
)

// EditorMode is the mode an editor is opened in.
type EditorMode string

const (
	ModeCreate EditorMode = "create"
	ModeEdit   EditorMode = "edit"
	ModeView   EditorMode = "view"
)

func (m EditorMode) Valid() bool {
	return m == ModeCreate || m == ModeEdit || m == ModeView
}

// Route is a navigation target.
type Route struct {
	Name string     `json:"name,omitempty"`
	Path string     `json:"path"`
	Mode EditorMode `json:"mode,omitempty"`
	ID   string     `json:"id,omitempty"`
}

// EditorRoute returns the route of the editor for scope in mode.
func EditorRoute(scope document.Type, mode EditorMode, id string) Route {
	return Route{
		Name: scope.String() + "Editor",
		Path: fmt.Sprintf("/%s/%s/%s", scope, mode, id),
		Mode: mode,
		ID:   id,
	}
}

// EventKind names what changed in a State.
type EventKind string

const (
	EventAccount  EventKind = "account"
	EventProjects EventKind = "projects"
	EventEditor   EventKind = "editor"
	EventRoute    EventKind = "route"
	EventCleared  EventKind = "cleared"
)

// Event is published to subscribers after a change.
type Event struct {
	Kind      EventKind `json:"kind"`
	ProjectID string    `json:"project_id,omitempty"`
}

// State is the application context of one client session. It is safe for
// concurrent use.
type State struct {
	mu       sync.Mutex
	account  *account.Account
	projects []*project.Project
	collator *collate.Collator

	route         Route
	editorLocked  bool
	resultHandler func(result any)

	subs   map[int]chan Event
	nextID int
}

// New returns an empty State.
func New() *State {
	return &State{
		collator: collate.New(account.DefaultLanguage.Tag()),
		subs:     make(map[int]chan Event),
	}
}

// SetAccount replaces the current account; nil clears it. The project list
// is re-sorted for the account's language.
func (s *State) SetAccount(acc *account.Account) {
	s.mu.Lock()
	s.account = acc
	lang := account.DefaultLanguage
	if acc != nil {
		lang = acc.Data.Preferences.Language
	}
	s.collator = collate.New(lang.Tag())
	s.sortLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: EventAccount})
}

// Account returns the current account, or nil.
func (s *State) Account() *account.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// AccountName returns the current account's name, or "".
func (s *State) AccountName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return ""
	}
	return s.account.Data.Common.Name
}

// SetProjectList replaces the visible projects and sorts them by name.
func (s *State) SetProjectList(projects []*project.Project) {
	s.mu.Lock()
	s.projects = slices.Clone(projects)
	s.sortLocked()
	s.mu.Unlock()

	s.publish(Event{Kind: EventProjects})
}

// AddProject inserts p at its sorted position, replacing any project with
// the same id.
func (s *State) AddProject(p *project.Project) {
	s.mu.Lock()
	s.removeLocked(p.ID)
	i, _ := slices.BinarySearchFunc(s.projects, p, s.compare)
	s.projects = slices.Insert(s.projects, i, p)
	s.mu.Unlock()

	s.publish(Event{Kind: EventProjects, ProjectID: p.ID})
}

// RemoveProject drops the project with id. It reports whether one was
// present; removing an absent id changes nothing.
func (s *State) RemoveProject(id string) bool {
	s.mu.Lock()
	removed := s.removeLocked(id)
	s.mu.Unlock()

	if removed {
		s.publish(Event{Kind: EventProjects, ProjectID: id})
	}
	return removed
}

// Project returns the visible project with id, or nil.
func (s *State) Project(id string) *project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Projects returns the visible projects in name order.
func (s *State) Projects() []*project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.projects)
}

// Clear tears the state down on logout. Subscriptions stay open.
func (s *State) Clear() {
	s.mu.Lock()
	s.account = nil
	s.projects = nil
	s.collator = collate.New(account.DefaultLanguage.Tag())
	s.route = Route{}
	s.editorLocked = false
	s.resultHandler = nil
	s.mu.Unlock()

	s.publish(Event{Kind: EventCleared})
}

// OpenEditor locks the editor, remembers resultHandler and navigates to the
// editor route.
func (s *State) OpenEditor(scope document.Type, mode EditorMode, id string, resultHandler func(result any)) Route {
	r := EditorRoute(scope, mode, id)

	s.mu.Lock()
	s.resultHandler = resultHandler
	s.editorLocked = true
	s.route = r
	s.mu.Unlock()

	s.publish(Event{Kind: EventEditor})
	return r
}

// EditorLocked reports whether an editor with possibly unsaved changes is open.
func (s *State) EditorLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editorLocked
}

// ReleaseEditor unlocks the editor and hands result to the handler given to
// OpenEditor, if any.
func (s *State) ReleaseEditor(result any) {
	s.mu.Lock()
	handler := s.resultHandler
	s.resultHandler = nil
	s.editorLocked = false
	s.mu.Unlock()

	s.publish(Event{Kind: EventEditor})
	if handler != nil {
		handler(result)
	}
}

// RouteTo navigates to path. When checkLock is set and the editor is
// locked, confirm is asked whether to discard unsaved changes; declining
// (or a nil confirm) leaves the current route in place and returns false.
func (s *State) RouteTo(path string, checkLock bool, confirm func() bool) (Route, bool) {
	s.mu.Lock()
	locked := s.editorLocked
	current := s.route
	s.mu.Unlock()

	if checkLock && locked {
		if confirm == nil || !confirm() {
			return current, false
		}
	}

	r := Route{Path: path}
	s.mu.Lock()
	if checkLock && locked {
		s.editorLocked = false
		s.resultHandler = nil
	}
	s.route = r
	s.mu.Unlock()

	s.publish(Event{Kind: EventRoute})
	return r, true
}

// CurrentRoute returns the last navigation target.
func (s *State) CurrentRoute() Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// Subscribe returns a channel of change events and a function that cancels
// the subscription. Events are dropped for a subscriber whose buffer is full.
func (s *State) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *State) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// compare orders projects by name under the current collator, then by id.
// Must be called with s.mu held.
func (s *State) compare(a, b *project.Project) int {
	if c := s.collator.CompareString(a.Data.Common.Name, b.Data.Common.Name); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func (s *State) sortLocked() {
	slices.SortStableFunc(s.projects, s.compare)
}

func (s *State) removeLocked(id string) bool {
	for i, p := range s.projects {
		if p.ID == id {
			s.projects = slices.Delete(s.projects, i, i+1)
			return true
		}
	}
	return false
}
