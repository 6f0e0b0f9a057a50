package validation

import (
	"reflect"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/farellandr/donatrack/internal/models"
)

// New returns a validator that understands decimal amounts and the
// donation_type and role tags.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// decimals are compared as floats so gt/min tags work on amounts
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	_ = v.RegisterValidation("donation_type", func(fl validatorv10.FieldLevel) bool {
		return models.DonationType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("role", func(fl validatorv10.FieldLevel) bool {
		return models.Role(fl.Field().String()).Valid()
	})

	return v
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}
