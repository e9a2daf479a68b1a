// Package validation registers the custom binding tags used by request
// structs.
package validation

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"husaride/internal/models"
	"husaride/internal/phone"
)

var once sync.Once

// Register adds the "phone" and "vehicletype" tags to gin's validator. It
// is safe to call more than once.
func Register() error {
	var err error
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phone.IsValid(fl.Field().String())
		}); err != nil {
			return
		}
		err = v.RegisterValidation("vehicletype", func(fl validator.FieldLevel) bool {
			return models.VehicleType(fl.Field().String()).Valid()
		})
	})
	return err
}

// Message turns a binding error into a single human readable line and the
// name of the first failing field.
func Message(err error) (field, msg string) {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "", "Invalid request body"
	}
	fe := verrs[0]
	field = fe.Field()
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = "Please provide a valid email address"
	case "phone":
		msg = "Please provide a valid phone number"
	case "vehicletype":
		msg = "Unknown vehicle type"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return field, msg
}
