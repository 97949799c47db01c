package utils

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,19}$`)
	lowerPattern    = regexp.MustCompile(`[a-z]`)
	upperPattern    = regexp.MustCompile(`[A-Z]`)
	digitPattern    = regexp.MustCompile(`[0-9]`)
)

// FieldError is one entry of the errors array in a 400 response
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RegisterValidators installs the custom rules used in request binding tags
// and makes field errors report json names.
func RegisterValidators(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"username":          func(fl validator.FieldLevel) bool { return usernamePattern.MatchString(fl.Field().String()) },
		"phone":             func(fl validator.FieldLevel) bool { return phonePattern.MatchString(fl.Field().String()) },
		"password_strength": func(fl validator.FieldLevel) bool { return IsStrongPassword(fl.Field().String()) },
		"password_bytes":    func(fl validator.FieldLevel) bool { return len(fl.Field().String()) <= MaxPasswordBytes },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// IsStrongPassword reports whether password has a lowercase letter, an uppercase letter and a digit.
func IsStrongPassword(password string) bool {
	return lowerPattern.MatchString(password) &&
		upperPattern.MatchString(password) &&
		digitPattern.MatchString(password)
}

// ValidationErrors converts validator output into response field errors.
// It returns nil when err is not a validation failure.
func ValidationErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := fieldLabels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "username":
		return label + " can only contain letters, numbers, and underscores"
	case "password_strength":
		return label + " must contain at least one uppercase letter, one lowercase letter, and one number"
	case "password_bytes":
		return fmt.Sprintf("%s must be at most %d bytes", label, MaxPasswordBytes)
	case "phone":
		return "Please provide a valid phone number"
	case "datetime":
		return fmt.Sprintf("%s must be a date in %s format", label, "YYYY-MM-DD")
	default:
		return label + " is invalid"
	}
}

var fieldLabels = map[string]string{
	"username":      "Username",
	"password":      "Password",
	"firstName":     "First name",
	"lastName":      "Last name",
	"role":          "Role",
	"gender":        "Gender",
	"date_of_birth": "Date of birth",
	"address":       "Address",
	"zipCode":       "Zip code",
	"city":          "City",
	"phoneNumber":   "Phone number",
	"cinemaId":      "Cinema id",
	"refreshToken":  "Refresh token",
}
