package common

import (
	"mime"
	"strings"

	"github.com/go-playground/validator"
)

// Validator wraps go-playground/validator with the tags this service needs:
//
//	imagemime  the field holds a parseable media type of the image/* family
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	if err := v.RegisterValidation("imagemime", isImageMIME); err != nil {
		panic(err)
	}
	return &Validator{validate: v}
}

// Struct validates i and returns validator.ValidationErrors on failure.
func (gv *Validator) Struct(i interface{}) error {
	return gv.validate.Struct(i)
}

// FailedFields returns the struct field names that failed validation, in
// declaration order. A nil or non-validation error yields nil.
func FailedFields(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, fe.Field())
	}
	return fields
}

func isImageMIME(fl validator.FieldLevel) bool {
	mediaType, _, err := mime.ParseMediaType(fl.Field().String())
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
