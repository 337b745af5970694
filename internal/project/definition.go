package project

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidDefinition wraps every Definition validation failure.
var ErrInvalidDefinition = errors.New("invalid project definition")

// Definition is the caller-supplied content of a project.
type Definition struct {
	Name        string      `json:"name" validate:"required"`
	Description *string     `json:"description"`
	Owner       Member      `json:"owner"`
	Manager     *Member     `json:"manager"`
	Members     []Member    `json:"members" validate:"dive"`
	Attributes  []Attribute `json:"attributes" validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the definition against the membership rules: the owner
// and manager slots carry their roles, regular members carry a regular role
// and never repeat the owner, the manager or each other, and attribute keys
// are non-empty and unique.
func (def Definition) Validate() error {
	def = def.normalized()
	if err := validate.Struct(def); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidDefinition, fe.Namespace(), fe.Tag())
		}
		return err
	}

	special := map[string]Role{def.Owner.ID: RoleOwner}
	if def.Manager != nil {
		if _, ok := special[def.Manager.ID]; !ok {
			special[def.Manager.ID] = RoleManager
		}
	}
	seen := make(map[string]struct{}, len(def.Members))
	for _, m := range def.Members {
		if !m.Role.Regular() {
			return fmt.Errorf("%w: member %q has role %q", ErrInvalidDefinition, m.ID, m.Role)
		}
		if role, ok := special[m.ID]; ok {
			return fmt.Errorf("%w: member %q is already the %s", ErrInvalidDefinition, m.ID, role)
		}
		if _, ok := seen[m.ID]; ok {
			return fmt.Errorf("%w: member %q listed twice", ErrInvalidDefinition, m.ID)
		}
		seen[m.ID] = struct{}{}
	}

	keys := make(map[string]struct{}, len(def.Attributes))
	for _, a := range def.Attributes {
		if _, ok := keys[a.Key]; ok {
			return fmt.Errorf("%w: attribute %q defined twice", ErrInvalidDefinition, a.Key)
		}
		keys[a.Key] = struct{}{}
	}
	return nil
}

// normalized forces the owner and manager roles, trims names and keys, and
// coerces attribute values to their types.
func (def Definition) normalized() Definition {
	def.Name = strings.TrimSpace(def.Name)
	def.Owner.Role = RoleOwner
	if def.Manager != nil {
		m := *def.Manager
		m.Role = RoleManager
		def.Manager = &m
	}
	attrs := make([]Attribute, len(def.Attributes))
	for i, a := range def.Attributes {
		a.Key = strings.TrimSpace(a.Key)
		attrs[i] = a.Normalized()
	}
	def.Attributes = attrs
	return def
}

// MemberList builds [owner, manager?, ...members].
func (def Definition) MemberList() []Member {
	def = def.normalized()
	members := make([]Member, 0, len(def.Members)+2)
	members = append(members, def.Owner)
	if def.Manager != nil {
		members = append(members, *def.Manager)
	}
	return append(members, def.Members...)
}

// apply writes the definition onto d, deriving the member and access lists.
func (def Definition) apply(d *Data) {
	members := def.MemberList()
	norm := def.normalized()
	d.Common.Name = norm.Name
	d.Common.Description = norm.Description
	d.Members = members
	d.Access = AccessList(members)
	d.Attributes = norm.Attributes
}

// DefinitionOf reconstructs the definition of a stored project.
func DefinitionOf(d *Data) Definition {
	def := Definition{
		Name:        d.Common.Name,
		Description: d.Common.Description,
		Members:     d.RegularMembers(),
		Attributes:  append([]Attribute(nil), d.Attributes...),
	}
	if owner, err := d.Owner(); err == nil {
		def.Owner = owner
	}
	if m, ok := d.Manager(); ok {
		def.Manager = &m
	}
	return def
}
