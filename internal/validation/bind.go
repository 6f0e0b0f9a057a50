package validation

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/farellandr/donatrack/internal/helpers"
)

// BindAndValidate binds the JSON body into out and runs validation. On
// failure it writes a 400 response and returns the error so the handler can
// stop.
func BindAndValidate(c *gin.Context, out interface{}, v *validatorv10.Validate) error {
	if err := c.ShouldBindJSON(out); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return err
	}

	if err := v.Struct(out); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, Message(err))
		return err
	}
	return nil
}

// Message turns validation errors into one readable sentence.
func Message(err error) string {
	var ve validatorv10.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validatorv10.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "donation_type":
		return fmt.Sprintf("%s must be one of one-time, monthly, campaign", field)
	case "role":
		return fmt.Sprintf("%s must be one of super_admin, content_manager, finance_admin", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len", "alpha":
		return fmt.Sprintf("%s must be a 3-letter currency code", field)
	}
	return fmt.Sprintf("%s is invalid", field)
}
