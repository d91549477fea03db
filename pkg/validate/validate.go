// Package validate checks request DTOs and turns failures into
// domain.ValidationError values.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/ShiraazMoollatjie/goluhn"
	"github.com/go-playground/validator/v10"

	"github.com/divinecia/Househelp-sub000/internal/domain"
)

// Rwandan mobile numbers: 07[2389]XXXXXXX, optionally with the 250 prefix.
var rwPhone = regexp.MustCompile(`^(\+?250|0)7[2389]\d{7}$`)

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "rwphone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsRwandanPhone(s)
	})
	mustRegister(v, "luhn", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || IsLuhn(s)
	})
	return &Validator{validate: v}
}

// Struct validates s. Missing required fields are reported together in one
// message; otherwise the first failing rule is reported.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}

	var missing, invalid []string
	for _, fe := range vErrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
		} else {
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return domain.MissingFields(missing...)
	}
	fe := vErrs[0]
	return domain.NewValidationError(message(fe), invalid...)
}

func IsLuhn(s string) bool {
	return goluhn.Validate(strings.ReplaceAll(s, " ", "")) == nil
}

func IsRwandanPhone(s string) bool {
	return rwPhone.MatchString(strings.ReplaceAll(s, " ", ""))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "Invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "rwphone":
		return "Invalid phone number"
	case "luhn":
		return "Invalid card number"
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	}
	return "invalid value for " + fe.Field()
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}
