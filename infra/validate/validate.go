package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Validator wraps validator/v10 with card payment rules registered
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom rules registered
func New() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("cardnumber", validateCardNumber)
	_ = v.RegisterValidation("expmonth", validateExpMonth)
	_ = v.RegisterValidation("expyear", validateExpYear)
	_ = v.RegisterValidation("cvv", validateCVV)

	return &Validator{validate: v}
}

// ValidateStruct validates a struct and returns per-field error messages
func (v *Validator) ValidateStruct(s any) map[string]string {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fieldName(fe)] = message(fe)
	}
	return fields
}

// Var validates a single value against a tag expression
func (v *Validator) Var(value any, tag string) error {
	return v.validate.Var(value, tag)
}

func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if name == "" {
		return fe.StructField()
	}
	// JSON-style lower camel case
	return strings.ToLower(name[:1]) + name[1:]
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "cardnumber":
		return "is not a valid card number"
	case "expmonth":
		return "must be a month between 1 and 12"
	case "expyear":
		return "must be a valid expiry year"
	case "cvv":
		return "must be 3 or 4 digits"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// validateCardNumber accepts 12-19 digits passing the Luhn check
func validateCardNumber(fl validator.FieldLevel) bool {
	number := fl.Field().String()
	if len(number) < 12 || len(number) > 19 {
		return false
	}
	for _, c := range number {
		if c < '0' || c > '9' {
			return false
		}
	}
	return luhnValid(number)
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validateExpMonth accepts "1".."12", with or without a leading zero
func validateExpMonth(fl validator.FieldLevel) bool {
	m, err := strconv.Atoi(fl.Field().String())
	if err != nil {
		return false
	}
	return m >= 1 && m <= 12
}

// validateExpYear accepts two or four digit years not in the past
func validateExpYear(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	y, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	switch len(s) {
	case 2:
		y += 2000
	case 4:
	default:
		return false
	}
	return y >= time.Now().Year() && y <= time.Now().Year()+20
}

func validateCVV(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 3 && len(s) != 4 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
