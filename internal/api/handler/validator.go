package handler

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/webauth/authd/internal/core/domain"
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
func NewValidator() *echoValidator {
	return &echoValidator{v: validator.New()}
}

// Validate satisfies the echo.Validator interface. Request DTOs only carry
// presence checks; format rules live in the domain, so any failure here is
// reported with the generic empty-fields message for the first field.
func (ev *echoValidator) Validate(i any) error {
	err := ev.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return domain.NewValidationError(strings.ToLower(ve[0].Field()), domain.MsgEmptyFields)
	}
	return err
}
