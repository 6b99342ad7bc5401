package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/clinicore/clinic-api/internal/model"
)

// RegisterCustomValidations installs domain validations on gin's binding
// engine. Call once at startup, before routes are served.
func RegisterCustomValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("modality", func(fl validator.FieldLevel) bool {
		switch model.Modality(fl.Field().String()) {
		case model.ModalityInPerson, model.ModalityVirtual:
			return true
		default:
			return false
		}
	})
}
