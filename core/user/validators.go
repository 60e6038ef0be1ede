package user

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/iatic/ecole/core"
	"github.com/iatic/ecole/core/access"
)

var (
	roleTag  = "role"
	roleText = "{0} doit être student, teacher ou admin"

	studentClassTag  = "studentclass"
	studentClassText = "Un étudiant doit appartenir à une classe valide"

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("Le mot de passe doit contenir au moins %d caractères", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "Le mot de passe est trop similaire à l'email ou au prénom"
)

// InitValidators registers the user validators and their translations.
func InitValidators(v *core.Validator) {
	v.RegisterValidation(roleTag, roleText, roleValidation)

	v.RegisterStructValidation(userStructValidation, NewUser{}, newPassword{})
	v.RegisterTranslation(studentClassTag, studentClassText)
	v.RegisterTranslation(pwdMinLenTag, pwdMinLenText)
	v.RegisterTranslation(pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// roleValidation checks that the role is one of access.Roles
func roleValidation(fl validator.FieldLevel) bool {
	return access.IsValidRole(fl.Field().String())
}

// userStructValidation does struct level validation on NewUser and newPassword structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Role == access.RoleStudent && !core.IsValidClass(usr.Class) {
			sl.ReportError(usr.Class, "class", "Class", studentClassTag, "")
		}
		if usr.Password != "" {
			validatePassword(usr.Password, "password", sl, usr.Firstname, usr.Email)
		}
	case newPassword:
		validatePassword(usr.Password, "newPassword", sl, usr.Firstname, usr.Email)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 6
// - no user attrs similarity
func validatePassword(pwd, field string, sl validator.StructLevel, usrAttrs ...string) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, field, field, tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range usrAttrs {
		if similarity(lpwd, strings.ToLower(attr)) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
		// also compare to the local part of emails
		if i := strings.Index(attr, "@"); i > 0 {
			if similarity(lpwd, strings.ToLower(attr[:i])) >= pwdMaxSim {
				reportErr(pwdAttrSimTag)
				return
			}
		}
	}
}

func similarity(pwd, usrAttr string) float64 {
	if usrAttr == "" {
		return 0
	}
	return difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(usrAttr, "")).Ratio()
}
