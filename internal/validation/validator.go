// Package validation validates request payloads with go-playground/validator.
// The validator is a process-wide singleton with the catalog's custom tags
// registered:
//
//	releasedate  "2006-01-02" date strictly after model.ReleaseDateFloor
//	pastdate     "2006-01-02" date not after today (UTC)
//	nospace      string without whitespace
//	notblank     string with at least one non-space character
//
// Field names in errors are the json names of the struct fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/film-catalog/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Error is returned by Struct when one or more fields fail validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Get returns the singleton validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "releasedate", releaseDate)
		mustRegister(v, "pastdate", pastDate)
		mustRegister(v, "nospace", noSpace)
		mustRegister(v, "notblank", notBlank)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}}}
	}
	out := &Error{Fields: make([]FieldError, len(verrs))}
	for i, fe := range verrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: translate(fe)}
	}
	return out
}

func translate(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "notblank":
		return f + " must not be blank"
	case "nospace":
		return f + " must not contain spaces"
	case "email":
		return f + " must be a valid email address"
	case "releasedate":
		return f + " must be a date after " + model.ReleaseDateFloor.Format(model.DateLayout)
	case "pastdate":
		return f + " must not be in the future"
	case "datetime":
		return f + " must be a date in " + fe.Param() + " format"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", f, fe.Tag())
}

func parseDate(fl validator.FieldLevel) (time.Time, bool) {
	if fl.Field().Kind() != reflect.String {
		return time.Time{}, false
	}
	t, err := time.Parse(model.DateLayout, fl.Field().String())
	return t, err == nil
}

func releaseDate(fl validator.FieldLevel) bool {
	t, ok := parseDate(fl)
	return ok && t.After(model.ReleaseDateFloor)
}

func pastDate(fl validator.FieldLevel) bool {
	t, ok := parseDate(fl)
	return ok && !t.After(time.Now().UTC())
}

func noSpace(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsSpace)
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
