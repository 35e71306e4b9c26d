package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	tagNamePattern     = regexp.MustCompile(`^[A-Za-z0-9+.#-]+$`)
	usernamePattern    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	displayNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	hasLetter          = regexp.MustCompile(`[A-Za-z]`)
	hasDigit           = regexp.MustCompile(`[0-9]`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		return tagNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("displayname", func(fl validator.FieldLevel) bool {
		return displayNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		p := fl.Field().String()
		return hasLetter.MatchString(p) && hasDigit.MatchString(p)
	})
	return v
}

// validateStruct runs the struct's validate tags and folds failures into ErrValidation.
func validateStruct(s interface{}) error {
	return wrapValidation(validate.Struct(s))
}

func validateVar(field string, v interface{}, tag string) error {
	err := validate.Var(v, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, describe(field, verrs[0]))
	}
	return fmt.Errorf("%w: %s", ErrValidation, err.Error())
}

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(strings.ToLower(fe.Field()), fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "tagname":
		return field + " may only contain letters, digits and + . # -"
	case "username":
		return field + " may only contain letters, digits, _ and -"
	case "displayname":
		return field + " may only contain letters, digits and _"
	case "password":
		return field + " must contain a letter and a digit"
	case "url":
		return field + " must be a URL"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
