package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bytesmax bounds the encoded length of a string; bcrypt reads at most
	// 72 bytes of a password.
	_ = v.RegisterValidation("bytesmax", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= n
	})
	return v
}

// check runs the struct tags of s. overrides replaces the generic message
// of a single rule, keyed "field.tag".
func check(s any, overrides map[string]string) *ValidationError {
	verr := &ValidationError{}
	var ves validator.ValidationErrors
	if err := validate.Struct(s); errors.As(err, &ves) {
		for _, fe := range ves {
			msg, ok := overrides[fe.Field()+"."+fe.Tag()]
			if !ok {
				msg = message(fe)
			}
			verr.Add(fe.Field(), msg)
		}
	}
	return verr
}

func message(fe validator.FieldError) string {
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64:
		numeric = true
	}
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		if numeric {
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		if numeric {
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "bytesmax":
		return fmt.Sprintf("Ensure this field has no more than %s bytes.", fe.Param())
	case "url":
		return "Enter a valid URL."
	case "email":
		return "Enter a valid email address."
	case "excludesall":
		return "Enter a valid value."
	}
	return "Invalid value."
}

var (
	maxPrice      = decimal.New(1, 8) // NUMERIC(10,2)
	priceMessages = struct{ negative, places, digits string }{
		negative: "Price must be a non-negative number.",
		places:   "Ensure that there are no more than 2 decimal places.",
		digits:   "Ensure that there are no more than 8 digits before the decimal point.",
	}
)

func checkPrice(verr *ValidationError, price *decimal.Decimal) {
	switch {
	case price == nil, price.IsNegative():
		verr.Add("price", priceMessages.negative)
	case !price.Equal(price.Round(2)):
		verr.Add("price", priceMessages.places)
	case price.GreaterThanOrEqual(maxPrice):
		verr.Add("price", priceMessages.digits)
	}
}
