// Package project holds the Project entity: an ordered member list with
// roles, the derived access list used for queries, and typed custom
// attributes.
package project

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/clouddwh/architect/internal/document"
)

// Collection is the document collection projects live in.
const Collection = "project"

// ErrInvariant signals a stored project that violates the membership rules.
// It indicates a bug, not a recoverable condition.
var ErrInvariant = errors.New("project membership invariant violated")

// Role is a member's role within a project.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleManager    Role = "manager"
	RoleMaintainer Role = "maintainer"
	RoleDeployer   Role = "deployer"
	RoleDeveloper  Role = "developer"
	RoleVisitor    Role = "visitor"
)

// Roles lists every role.
func Roles() []Role {
	return []Role{RoleOwner, RoleManager, RoleMaintainer, RoleDeployer, RoleDeveloper, RoleVisitor}
}

// MemberRoles lists the roles assignable to regular members.
func MemberRoles() []Role {
	return []Role{RoleMaintainer, RoleDeployer, RoleDeveloper, RoleVisitor}
}

func (r Role) Valid() bool { return slices.Contains(Roles(), r) }

// Regular reports whether r is assignable to a regular member.
func (r Role) Regular() bool { return slices.Contains(MemberRoles(), r) }

// Member is a project member.
type Member struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// AttributeType is the datatype of a custom attribute.
type AttributeType string

const (
	AttributeString  AttributeType = "string"
	AttributeNumber  AttributeType = "number"
	AttributeBoolean AttributeType = "boolean"
)

// AttributeTypes lists the attribute types in display order.
func AttributeTypes() []AttributeType {
	return []AttributeType{AttributeString, AttributeNumber, AttributeBoolean}
}

func (t AttributeType) Valid() bool { return slices.Contains(AttributeTypes(), t) }

// Attribute is a typed key/value pair attached to a project.
type Attribute struct {
	Key   string        `json:"key" validate:"required"`
	Type  AttributeType `json:"type" validate:"oneof=string number boolean"`
	Value any           `json:"value"`
}

// Normalized returns a with Value coerced to its declared type: a string, a
// float64 (or nil when not numeric) or a bool.
func (a Attribute) Normalized() Attribute {
	switch a.Type {
	case AttributeNumber:
		if n, ok := ToNumber(a.Value); ok {
			a.Value = n
		} else {
			a.Value = nil
		}
	case AttributeBoolean:
		a.Value = ToBoolean(a.Value)
	default:
		if a.Value == nil {
			a.Value = ""
		} else if _, ok := a.Value.(string); !ok {
			a.Value = fmt.Sprint(a.Value)
		}
	}
	return a
}

// ToNumber converts v to a finite float64. Strings are parsed after
// trimming.
func ToNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ToBoolean converts v to a bool: "true" and "1" (any case) are true,
// positive numbers are true, anything else is false.
func ToBoolean(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		return s == "true" || s == "1"
	default:
		if n, ok := ToNumber(v); ok {
			return n > 0
		}
		return false
	}
}

// Data is the stored payload of a project document.
type Data struct {
	document.Header
	Access     []string    `json:"access"`
	Members    []Member    `json:"members"`
	Attributes []Attribute `json:"attributes"`
}

// Project is a project document.
type Project = document.Document[Data]

// Owner returns the member with the owner role.
func (d *Data) Owner() (Member, error) {
	for _, m := range d.Members {
		if m.Role == RoleOwner {
			return m, nil
		}
	}
	return Member{}, fmt.Errorf("%w: no owner", ErrInvariant)
}

// Manager returns the member with the manager role, if there is one.
func (d *Data) Manager() (Member, bool) {
	for _, m := range d.Members {
		if m.Role == RoleManager {
			return m, true
		}
	}
	return Member{}, false
}

// UserRole returns uid's role, or false when uid is not a member.
func (d *Data) UserRole(uid string) (Role, bool) {
	for _, m := range d.Members {
		if m.ID == uid {
			return m.Role, true
		}
	}
	return "", false
}

// HasRole reports whether uid is a member holding one of roles.
func (d *Data) HasRole(uid string, roles ...Role) bool {
	for _, m := range d.Members {
		if m.ID == uid && slices.Contains(roles, m.Role) {
			return true
		}
	}
	return false
}

// RegularMembers returns the members other than owner and manager.
func (d *Data) RegularMembers() []Member {
	out := make([]Member, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Role.Regular() {
			out = append(out, m)
		}
	}
	return out
}

// AccessList returns the de-duplicated member ids in member order.
func AccessList(members []Member) []string {
	seen := make(map[string]struct{}, len(members))
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	return ids
}
