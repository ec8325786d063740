// Package validate runs the synchronous field checks that gate a commit.
package validate

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/stockflow/product-service/internal/model"
)

// Violation is a single field-scoped rule failure, surfaced inline next to
// the offending field.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report violations under the wire name of the field, not the Go name.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return val
}

// Fields checks the flat field set against the form rules: non-blank name,
// non-negative quantities and prices, tax rate between 0 and 100. Returns nil
// when everything passes.
func Fields(f model.FormValues) []Violation {
	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Field: "", Message: err.Error()}}
	}

	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Violation{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "Product name is mandatory."
	case "gte":
		if fe.Field() == "tax_rate" {
			return "Tax rate must be between 0 and 100."
		}
		return "Must be 0 or more."
	case "lte":
		return "Tax rate must be between 0 and 100."
	default:
		return "Invalid value."
	}
}
