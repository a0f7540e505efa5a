package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidRating reports whether r lies in [0.5, 5] on the half-point grid.
func ValidRating(r float64) bool {
	if math.IsNaN(r) || r < 0.5 || r > 5 {
		return false
	}
	scaled := r * 10
	return scaled == math.Trunc(scaled) && int(scaled)%5 == 0
}

// registerReviewValidations installs the review tags and reports fields by their JSON names.
func registerReviewValidations(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("rating_step", func(fl validator.FieldLevel) bool {
		switch fl.Field().Kind() {
		case reflect.Float32, reflect.Float64:
			return ValidRating(fl.Field().Float())
		default:
			return false
		}
	})
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// validationMessage renders the first failing field as a client-facing sentence.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid payload"
	}
	fe := verrs[0]
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "required_without":
		return fmt.Sprintf("%s requires a course_id or course_name", parentField(field))
	case "rating_step":
		return fmt.Sprintf("%s must be between 0.5 and 5 in steps of 0.5", field)
	case "nonblank":
		return fmt.Sprintf("%s must not be empty", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func parentField(field string) string {
	if idx := strings.LastIndex(field, "."); idx >= 0 {
		return field[:idx]
	}
	return field
}
