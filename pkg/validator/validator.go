package validator

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the domain rules registered.
type Validator struct {
	v *validator.Validate
}

var paymentMethods = map[string]bool{
	"cash":      true,
	"bkash":     true,
	"bank_card": true,
	"offline":   true,
	"online":    true,
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Always registers cleanly, the rule name is static.
	_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
		return paymentMethods[fl.Field().String()]
	})

	return &Validator{v: v}
}

// RegisterBindingRules adds the domain rules to gin's binding validator so
// request structs can use them in binding tags.
func RegisterBindingRules() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("paymentmethod", func(fl validator.FieldLevel) bool {
			return paymentMethods[fl.Field().String()]
		})
	}
}

func (val *Validator) Validate(obj interface{}) error {
	if err := val.v.Struct(obj); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("field %s failed on rule %q", first.Field(), first.Tag())
		}
		return err
	}
	return nil
}
