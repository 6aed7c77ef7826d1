package film

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	// MinRating and MaxRating bound the accepted rating scale.
	MinRating = 0
	MaxRating = 10
)

// ValidationError reports one field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code identifies the error kind in logs.
func (e *ValidationError) Code() string { return "validation_error" }

// decimalRating admits plain decimals only, so NaN, Inf, exponents and hex
// floats never reach strconv.
var decimalRating = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("rating", func(fl validator.FieldLevel) bool {
			_, err := ParseRating(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("poster", func(fl validator.FieldLevel) bool {
			return checkPosterURL(fl.Field().String()) == nil
		})
		validate = v
	})
	return validate
}

// Validate checks a complete record before it is stored.
func Validate(f Film) error {
	err := validatorInstance().Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &ValidationError{Field: fe.Field(), Reason: reasonFor(fe.Tag())}
}

func reasonFor(tag string) string {
	switch tag {
	case "rating":
		return fmt.Sprintf("must be a number from %d to %d", MinRating, MaxRating)
	case "poster":
		return "must be an http or https link"
	case "min":
		return "must list at least one actor"
	}
	return "must not be empty"
}

// ValidateField checks a single dialogue reply for the given field.
func ValidateField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Reason: "must not be empty"}
	}
	switch field {
	case FieldRating:
		if _, err := ParseRating(value); err != nil {
			return &ValidationError{Field: field, Reason: reasonFor("rating")}
		}
	case FieldPoster:
		if checkPosterURL(value) != nil {
			return &ValidationError{Field: field, Reason: reasonFor("poster")}
		}
	}
	return nil
}

// ParseRating reads a rating such as "9", "7.5" or "7,5" and checks the range.
func ParseRating(s string) (float64, error) {
	norm := strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if !decimalRating.MatchString(norm) {
		return 0, fmt.Errorf("rating %q is not a number", s)
	}
	r, err := strconv.ParseFloat(norm, 64)
	if err != nil || math.IsNaN(r) {
		return 0, fmt.Errorf("rating %q is not a number", s)
	}
	if r < MinRating || r > MaxRating {
		return 0, fmt.Errorf("rating %v out of range", r)
	}
	return r, nil
}

func checkPosterURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("poster %q is not an absolute http(s) URL", s)
	}
	return nil
}
