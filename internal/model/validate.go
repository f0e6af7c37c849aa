package model

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"docvault/internal/apperr"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateDocument checks field constraints, including that an attachment is
// either absent or complete. The first violation is returned as an
// apperr validation error.
func ValidateDocument(v *validator.Validate, doc *Document) error {
	if doc == nil {
		return apperr.Validation("document is required")
	}
	if strings.TrimSpace(doc.Title) == "" {
		return apperr.Validation("title: required")
	}
	// JSON cannot encode non-finite floats; such a price would be stored but never readable.
	if doc.Price != nil && (math.IsInf(*doc.Price, 0) || math.IsNaN(*doc.Price)) {
		return apperr.Validation("price: must be a finite number")
	}
	if err := v.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperr.Validation("%s", describe(verrs[0]))
		}
		return apperr.Wrap(apperr.ErrValidation, err)
	}
	for _, tag := range doc.Tags {
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return apperr.Validation("tags: %q exceeds %d characters", tag, MaxTagLength)
		}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + ": required"
	case "max":
		return fmt.Sprintf("%s: max %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: must be >= %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
