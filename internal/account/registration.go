package account

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Message keys for field validation failures.
const (
	MsgRequired         = "validation.required"
	MsgInvalidEmail     = "validation.invalidEmail"
	MsgPasswordMismatch = "validation.passwordMismatch"
	MsgInvalidOption    = "validation.invalidOption"
)

// FieldErrors maps a field's JSON name to a message key. It is returned for
// input rejected before any backend call.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + fe[f]
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Registration is the input to Service.Create.
type Registration struct {
	FirstName       string   `json:"first_name" validate:"required"`
	LastName        string   `json:"last_name" validate:"required"`
	Email           string   `json:"email" validate:"required,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Dark            bool     `json:"dark"`
	Language        Language `json:"language" validate:"omitempty,oneof=en-US de-DE"`
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

// Normalized returns reg with surrounding whitespace removed from the names
// and the email address, and the language defaulted.
func (reg Registration) Normalized() Registration {
	reg.FirstName = strings.TrimSpace(reg.FirstName)
	reg.LastName = strings.TrimSpace(reg.LastName)
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Language == "" {
		reg.Language = DefaultLanguage
	}
	return reg
}

// Validate checks required fields, email syntax and the password
// confirmation. Password strength is left to the identity provider.
func (reg Registration) Validate() error {
	return fieldErrors(validate.Struct(reg))
}

func fieldErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		out[fe.Field()] = messageFor(fe.Tag())
	}
	return out
}

func messageFor(tag string) string {
	switch tag {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordMismatch
	default:
		return MsgInvalidOption
	}
}
