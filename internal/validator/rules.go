package validator

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Accepted after normalization: a local Rwandan mobile number.
var rwPhonePattern = regexp.MustCompile(`^07\d{8}$`)

// NormalizePhone strips spaces and converts the +250 / 250 prefix to the
// local 07XXXXXXXX form. Returns the input unchanged when it does not
// match any known shape.
func NormalizePhone(phone string) string {
	p := strings.ReplaceAll(phone, " ", "")
	p = strings.ReplaceAll(p, "-", "")

	switch {
	case strings.HasPrefix(p, "+250"):
		p = "0" + p[4:]
	case strings.HasPrefix(p, "250") && len(p) == 12:
		p = "0" + p[3:]
	}

	return p
}

// IsValidRwandanPhone reports whether the number, after normalization,
// is a valid Rwandan mobile number.
func IsValidRwandanPhone(phone string) bool {
	return rwPhonePattern.MatchString(NormalizePhone(phone))
}

// registerCustomRules wires the domain rules into the validator.
func registerCustomRules(v *validator.Validate) error {
	return v.RegisterValidation("rwphone", func(fl validator.FieldLevel) bool {
		return IsValidRwandanPhone(fl.Field().String())
	})
}
