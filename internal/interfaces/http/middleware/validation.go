package middleware

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tyrefleet/backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator makes binding errors report JSON field names and registers the
// tire_size tag. It must run before any request binds a body; repeated calls are no-ops.
func SetupValidator() {
	setupOnce.Do(setupValidator)
}

func setupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("tire_size", validTireSize)
}

// validTireSize accepts size designations like 295/80R22.5 or 11R22.5: a
// construction letter between a numeric section and a numeric rim
func validTireSize(fl validator.FieldLevel) bool {
	s := strings.ToUpper(strings.TrimSpace(fl.Field().String()))
	i := strings.IndexAny(s, "RDB")
	if i <= 0 || i == len(s)-1 {
		return false
	}
	section, rim := s[:i], s[i+1:]
	return strings.Trim(section, "0123456789./-") == "" && strings.Trim(rim, "0123456789.") == ""
}

// ValidationDetails turns binding errors into per-field details. Errors that are
// not validator errors (malformed JSON) give nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gt":
		return "Must be greater than " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "tire_size":
		return "Invalid tire size"
	default:
		return "Invalid value"
	}
}
