package organization

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report errors under the json name, which is also the wire field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Catalogs carries the enumerated sets a registration is checked against.
// States must already be scoped to the selected country.
type Catalogs struct {
	Industries []string
	Types      []string
	Countries  []string
	States     []string
}

// Validate checks the registration's schema constraints and returns one
// message per failing field, keyed by wire field name. A nil map means
// the registration is valid.
func (r Registration) Validate() map[string]string {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"name": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = messageFor(fe)
	}
	return fields
}

// ValidateAgainst runs schema validation plus catalog membership checks.
// Membership errors never overwrite schema errors for the same field.
func (r Registration) ValidateAgainst(cat Catalogs) map[string]string {
	fields := r.Validate()

	member := func(field, value string, set []string, what string) {
		if value == "" || len(set) == 0 {
			return
		}
		if _, exists := fields[field]; exists {
			return
		}
		if !slices.Contains(set, value) {
			fields = ensure(fields)
			fields[field] = fmt.Sprintf("is not a recognized %s", what)
		}
	}

	member("industry", r.Industry, cat.Industries, "industry")
	member("type", r.Type, cat.Types, "organization type")
	member("country", r.Country, cat.Countries, "country")
	member("state", r.State, cat.States, "state for the selected country")

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func ensure(m map[string]string) map[string]string {
	if m == nil {
		return make(map[string]string)
	}
	return m
}

// messageFor translates a validator tag failure into a user-facing message.
func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
