package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/profile-service/internal/utils"
)

var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names in messages
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt counts bytes; max= counts runes
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= utils.MaxPasswordBytes
	})
	return v
}

// decodeAndValidate reads exactly one JSON object from body into dst and runs
// the struct's validate tags. The returned error is client-facing.
func decodeAndValidate(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid JSON body")
	}

	if err := requestValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			field := first.Field()
			switch first.Tag() {
			case "required":
				return fmt.Errorf("%s is required", field)
			case "email":
				return fmt.Errorf("invalid email format")
			case "len":
				return fmt.Errorf("invalid %s length", field)
			case "numeric":
				return fmt.Errorf("%s must contain only digits", field)
			case "min":
				return fmt.Errorf("%s is too short", field)
			case "max":
				return fmt.Errorf("%s is too long", field)
			case "oneof":
				return fmt.Errorf("%s must be one of %s", field, strings.ReplaceAll(first.Param(), " ", ", "))
			case "pwbytes":
				return fmt.Errorf("%s must be at most %d bytes", field, utils.MaxPasswordBytes)
			case "url", "http_url":
				return fmt.Errorf("%s must be a valid URL", field)
			default:
				return fmt.Errorf("invalid %s", field)
			}
		}
		return fmt.Errorf("invalid request payload")
	}
	return nil
}
