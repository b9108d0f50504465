package model

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report json names so field lists match request bodies
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldErrors validates a request and splits the failing json fields into
// missing (required) and invalid ones.
func FieldErrors(req any) (missing, invalid []string, err error) {
	err = validate.Struct(req)
	var fieldErrs validator.ValidationErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		return nil, nil, err
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	// a zero amount is as good as none
	if zeroAmount(req) {
		missing = append(missing, "amount")
	}
	return missing, invalid, nil
}

// HasErrors reports whether FieldErrors found anything.
func HasErrors(missing, invalid []string) bool {
	return len(missing) > 0 || len(invalid) > 0
}

func zeroAmount(req any) bool {
	switch r := req.(type) {
	case PaymentCreateRequest:
		return r.Amount != nil && r.Amount.IsZero()
	case *PaymentCreateRequest:
		return r != nil && r.Amount != nil && r.Amount.IsZero()
	}
	return false
}
