package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/KunalPandey-675/oceanResQ/pkg/e"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	RegisterCustomValidations(validate)
}

// ValidateStruct returns *e.ValidationError naming every failed field by its
// JSON path (e.g. "location.lat").
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return e.Wrap("validator.ValidateStruct", err)
	}

	out := e.NewValidationError()
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), fe.Tag())
	}
	return out
}

func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
