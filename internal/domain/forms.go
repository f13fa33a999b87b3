package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// FieldKind selects the format check applied to a non-empty value.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindEmail    FieldKind = "email"
	KindPhone    FieldKind = "phone"
	KindPostcode FieldKind = "postcode"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern    = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{10,}$`)
	postcodePattern = regexp.MustCompile(`^[0-9A-Za-z\s\-]{3,10}$`)
)

// Validation messages shared by the checkout, auth and dashboard forms.
const (
	MsgInvalidEmail    = "Please enter a valid email address"
	MsgInvalidPhone    = "Please enter a valid phone number"
	MsgInvalidPostcode = "Please enter a valid postcode"
)

// FieldSpec declares one form field.
type FieldSpec struct {
	Name     string
	Label    string
	Required bool
	Kind     FieldKind
}

// FormFieldState is a field's current value and validation outcome.
type FormFieldState struct {
	Value        string `json:"value"`
	Valid        bool   `json:"valid"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Validate returns the error message for value, or "" when it passes.
// Values are trimmed before checking.
func (s FieldSpec) Validate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		if s.Required {
			return s.Label + " is required"
		}
		return ""
	}
	switch s.Kind {
	case KindEmail:
		if !IsValidEmail(value) {
			return MsgInvalidEmail
		}
	case KindPhone:
		if !phonePattern.MatchString(value) {
			return MsgInvalidPhone
		}
	case KindPostcode:
		if !postcodePattern.MatchString(value) {
			return MsgInvalidPostcode
		}
	}
	return ""
}

// IsValidEmail applies the storefront's permissive email pattern.
func IsValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

// FormatPhone keeps digits only and groups them 3-3-4, dropping anything past ten digits.
func FormatPhone(raw string) string {
	digits := make([]rune, 0, 10)
	for _, r := range raw {
		if unicode.IsDigit(r) && r <= '9' {
			digits = append(digits, r)
		}
	}
	switch {
	case len(digits) <= 3:
		return string(digits)
	case len(digits) <= 6:
		return string(digits[:3]) + "-" + string(digits[3:])
	default:
		if len(digits) > 10 {
			digits = digits[:10]
		}
		return string(digits[:3]) + "-" + string(digits[3:6]) + "-" + string(digits[6:])
	}
}

// FormatPostcode upper-cases a postcode as it is typed.
func FormatPostcode(raw string) string {
	return strings.ToUpper(raw)
}
