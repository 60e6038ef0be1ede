package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"
	"github.com/pkg/errors"
)

// DateLayouts are the accepted layouts of date fields, most precise first.
var DateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

var (
	// custom validation tags & texts
	requiredTag  = "required"
	requiredText = "{0} est obligatoire"

	notBlankTag  = "notblank"
	notBlankText = "{0} ne peut pas être vide"

	classTag  = "class"
	classText = "Classe invalide"

	dateTag  = "date"
	dateText = "{0} doit être une date valide (AAAA-MM-JJ)"
)

// Validator validates request structs and translates failures to French.
type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewValidator() *Validator {
	_fr := fr.New()
	uni := ut.New(_fr, _fr)
	translator, _ := uni.GetTranslator("fr")

	v := &Validator{
		validate:   validator.New(),
		translator: translator,
	}
	_ = fr_translations.RegisterDefaultTranslations(v.validate, v.translator)

	// Use JSON tag names for errors instead of Go struct names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation(notBlankTag, notBlankText, validators.NotBlank)
	v.RegisterValidation(classTag, classText, classValidation)
	v.RegisterValidation(dateTag, dateText, dateValidation)
	v.RegisterTranslation(requiredTag, requiredText, true)
	return v
}

// RegisterValidation registers a custom validation function along with its translation.
func (v *Validator) RegisterValidation(tag, text string, fn validator.Func) {
	_ = v.validate.RegisterValidation(tag, fn)
	v.RegisterTranslation(tag, text)
}

// RegisterStructValidation registers a struct level validation for the given types.
func (v *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	v.validate.RegisterStructValidation(fn, types...)
}

// RegisterTranslation registers a translation for the specified validation tag.
func (v *Validator) RegisterTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = v.validate.RegisterTranslation(
		tag, v.translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s and returns a *ValidationError describing every failing field.
// The error message is MsgMissingFields when a required field is missing, the first field error otherwise.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validating struct")
	}

	var missing bool
	flds := make([]FieldError, 0, len(vErrs))
	for _, fe := range vErrs {
		if fe.Tag() == requiredTag {
			missing = true
		}
		flds = append(flds, FieldError{Field: fe.Field(), Error: fe.Translate(v.translator)})
	}
	msg := flds[0].Error
	if missing {
		msg = MsgMissingFields
	}
	return NewValidationError(errors.New(msg), flds...)
}

// ParseDate parses s with the first matching layout of DateLayouts.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range DateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

// Custom Global Validators

// classValidation only allows one of Classes.
func classValidation(fl validator.FieldLevel) bool {
	return IsValidClass(fl.Field().String())
}

// dateValidation only allows strings ParseDate understands.
func dateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
