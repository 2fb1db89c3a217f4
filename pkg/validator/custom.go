package validator

import "github.com/go-playground/validator/v10"

// Enum is implemented by the closed string sets of the domain
// (hazard type, severity, status, source).
type Enum interface {
	Valid() bool
}

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("lat", validateLat)
	validate.RegisterValidation("lng", validateLng)
	validate.RegisterValidation("enum", validateEnum)
}

func validateLat(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLng(fl validator.FieldLevel) bool {
	lng := fl.Field().Float()
	return lng >= -180.0 && lng <= 180.0
}

func validateEnum(fl validator.FieldLevel) bool {
	v, ok := fl.Field().Interface().(Enum)
	if !ok {
		return false
	}
	return v.Valid()
}
