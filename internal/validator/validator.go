package validator

import (
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var loginIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]{4,32}$`)

// Echo compatible validator with proper tag semantics
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// Exposes the underlying validator so translations can be registered against it
func (cv *CustomValidator) Engine() *validator.Validate {
	return cv.validator
}

func Create() CustomValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		for _, tag := range []string{"param", "query", "form"} {
			name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
			if name != "" {
				return name
			}
		}

		jsonName := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if jsonName == "-" {
			return ""
		}
		if jsonName == "-," {
			return "-"
		}
		return jsonName
	})

	// errors are only possible for empty tags or nil funcs
	_ = validate.RegisterValidation("ctf_flag", validateFlag)
	_ = validate.RegisterValidation("login_id", validateLoginID)

	return CustomValidator{validator: validate}
}

// flags are compared byte for byte so surrounding whitespace is almost always a copy/paste mistake
func validateFlag(fl validator.FieldLevel) bool {
	flag := fl.Field().String()
	if flag == "" || len(flag) > MaxFlagLength {
		return false
	}

	if strings.TrimSpace(flag) != flag {
		return false
	}

	for _, r := range flag {
		if !unicode.IsPrint(r) {
			return false
		}
	}

	return true
}

func validateLoginID(fl validator.FieldLevel) bool {
	return loginIDPattern.MatchString(fl.Field().String())
}
