package common

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validate mirrors gin's binding validator so services can re-check DTOs
// that did not come through an HTTP binding.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

// ConfigureBindingValidator makes gin report JSON field names in validation errors.
func ConfigureBindingValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// ValidateStruct validates obj against its binding tags and returns a
// VALIDATION_ERROR APIError on failure.
func ValidateStruct(obj interface{}) error {
	if err := validate.Struct(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			return NewValidationAPIError(FormatValidationErrors(ve))
		}
		return ErrBadRequest.WithDetails(err.Error())
	}
	return nil
}

// BindingError converts an error returned by gin's ShouldBind* into an APIError.
func BindingError(err error) *APIError {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return NewValidationAPIError(FormatValidationErrors(ve))
	}
	return ErrBadRequest.WithDetails(err.Error())
}
