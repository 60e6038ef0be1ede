package note

import (
	"github.com/go-playground/validator/v10"

	"github.com/iatic/ecole/core"
)

// Notes are graded out of 20.
const (
	MinValue = 0
	MaxValue = 20
)

var (
	noteValueTag  = "notevalue"
	noteValueText = "La note doit être comprise entre 0 et 20"
)

// InitValidators registers the note validators and their translations.
func InitValidators(v *core.Validator) {
	v.RegisterValidation(noteValueTag, noteValueText, noteValueValidation)
}

func noteValueValidation(fl validator.FieldLevel) bool {
	val := fl.Field().Float()
	return val >= MinValue && val <= MaxValue
}
