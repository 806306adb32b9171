package models

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/SigNoz/storefront-go-client/internal/apperrors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
	return validate
}

// ValidateResponse checks a decoded server payload. Slices are validated
// element by element.
func ValidateResponse(v interface{}) error {
	if err := validateValue(v); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidResponse, err)
	}
	return nil
}

// ValidateRequest checks caller input before it is sent.
func ValidateRequest(v interface{}) error {
	if err := validateValue(v); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err)
	}
	return nil
}

func validateValue(v interface{}) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return fmt.Errorf("empty payload")
		}
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Slice {
		for i := 0; i < rv.Len(); i++ {
			if err := validateValue(rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	err := validatorInstance().Struct(rv.Interface())
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		return describe(verrs)
	}
	return err
}

func describe(verrs validator.ValidationErrors) error {
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be an email address", fe.Field()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%s", strings.Join(parts, ", "))
}
