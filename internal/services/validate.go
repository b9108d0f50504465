package services

import (
	"strings"

	"github.com/nimasrn/hacienda/internal/model"
)

// check validates req. required is the full list of mandatory fields in the
// order the message reports them.
func check(req any, required ...string) error {
	missing, invalid, err := model.FieldErrors(req)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &ValidationError{Message: requiredFields(required...), Fields: missing}
	}
	if len(invalid) > 0 {
		return &ValidationError{Message: "Campos inválidos: " + strings.Join(invalid, ", "), Fields: invalid}
	}
	return nil
}
