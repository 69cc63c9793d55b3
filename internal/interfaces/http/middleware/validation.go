package middleware

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"paybridge.backend/internal/domain/entities"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request inputs.
// It is safe to call more than once.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		err = v.RegisterValidation("chain", validateChain)
	})
	return err
}

func validateChain(fl validator.FieldLevel) bool {
	_, err := entities.ParseChainID(fl.Field().String())
	return err == nil
}
