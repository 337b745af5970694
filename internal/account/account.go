// Package account holds the Account entity: the profile, preferences and
// lock state stored for every registered identity.
package account

import (
	"time"

	"github.com/clouddwh/architect/internal/document"
	"golang.org/x/text/language"
)

// Collection is the document collection accounts live in.
const Collection = "account"

// Language is a supported interface language.
type Language string

const (
	LanguageEnUS Language = "en-US"
	LanguageDeDE Language = "de-DE"
)

// DefaultLanguage is used when none is chosen.
const DefaultLanguage = LanguageEnUS

// Languages lists the supported languages in display order.
func Languages() []Language {
	return []Language{LanguageEnUS, LanguageDeDE}
}

func (l Language) Valid() bool {
	return l == LanguageEnUS || l == LanguageDeDE
}

// Tag returns the BCP 47 tag for l, falling back to DefaultLanguage.
func (l Language) Tag() language.Tag {
	if !l.Valid() {
		l = DefaultLanguage
	}
	return language.MustParse(string(l))
}

type Profile struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type Preferences struct {
	Language Language `json:"language"`
	Dark     bool     `json:"dark"`
}

type State struct {
	Locked          bool       `json:"locked"`
	LastLogin       *time.Time `json:"lastLogin"`
	ActiveProjectID *string    `json:"activeProjectId"`
}

// Data is the stored payload of an account document.
type Data struct {
	document.Header
	Profile     Profile     `json:"profile"`
	Preferences Preferences `json:"preferences"`
	State       State       `json:"state"`
}

// Clone returns a copy of d that shares no pointers with it.
func (d Data) Clone() Data {
	d.Header = d.Header.Clone()
	if d.State.LastLogin != nil {
		at := *d.State.LastLogin
		d.State.LastLogin = &at
	}
	if d.State.ActiveProjectID != nil {
		id := *d.State.ActiveProjectID
		d.State.ActiveProjectID = &id
	}
	return d
}

// Account is an account document keyed by the identity's uid.
type Account = document.Document[Data]

// FullName joins first and last name the way display names are built.
func FullName(first, last string) string {
	return first + " " + last
}
