package dto

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	accountIDRe   = regexp.MustCompile(`^[0-9]{14}$`)
	phoneNumberRe = regexp.MustCompile(`^[0-9]{11}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("account_id", validateAccountID)
		_ = v.RegisterValidation("phone_number", validatePhoneNumber)
	}
}

// validateAccountID enforces the 14-digit account identifier format.
func validateAccountID(fl validator.FieldLevel) bool {
	return accountIDRe.MatchString(fl.Field().String())
}

// validatePhoneNumber enforces the 11-digit phone number format.
func validatePhoneNumber(fl validator.FieldLevel) bool {
	return phoneNumberRe.MatchString(fl.Field().String())
}

// SanitizeStruct trims whitespace on every exported string field (including
// *string) of a struct pointer. Cell values go to a shared store that other
// tooling reads; stray padding would break exact-match lookups there.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(strings.TrimSpace(elem.String()))
			}
		}
	}
}
