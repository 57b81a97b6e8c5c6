package models

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/rogerio-castellano/stockroom/internal/apperrors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Validate checks the input constraints and returns a VALIDATION_ERROR listing
// every failing field, or nil.
func (in ProductInput) Validate() error {
	return ValidateStruct(in.Normalize())
}

// ValidateStruct runs the struct's validate tags and reports failures the same
// way as ProductInput.Validate. Field names come from the json tags.
func ValidateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(apperrors.CodeValidation, err, "validation failed")
	}

	details := make([]apperrors.FieldError, 0, len(errs))
	for _, fe := range errs {
		details = append(details, apperrors.FieldError{
			Field:       fe.Field(),
			Description: validationMessage(fe),
		})
	}
	return apperrors.New(apperrors.CodeValidation, summarize(details)).WithDetails(details)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	}
	return "is invalid"
}

func summarize(details []apperrors.FieldError) string {
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = d.Field + " " + d.Description
	}
	return strings.Join(parts, "; ")
}
