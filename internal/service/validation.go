package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/target/authify-client/internal/errors"
)

// looseEmailPattern accepts anything with a local part, an @ and a dotted domain.
var looseEmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Field names reported on validation errors.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldOTP             = "otp"
	FieldNewPassword     = "newPassword"
	FieldConfirmPassword = "confirmPassword"
)

type ruleKey struct {
	field string
	tag   string
}

var fieldMessages = map[ruleKey]string{
	{FieldName, "required"}:            "Name is required",
	{FieldEmail, "required"}:           "Email is required",
	{FieldEmail, "loose_email"}:        "Email is invalid",
	{FieldPassword, "required"}:        "Password is required",
	{FieldPassword, "min"}:             "Password must be at least 6 characters",
	{FieldOTP, "required"}:             "OTP is required",
	{FieldNewPassword, "required"}:     "New password is required",
	{FieldNewPassword, "min"}:          "Password must be at least 6 characters",
	{FieldConfirmPassword, "required"}: "Please confirm your password",
	{FieldConfirmPassword, "eqfield"}:  "Passwords do not match",
}

type registerForm struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,loose_email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginForm struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type resetEmailForm struct {
	Email string `json:"email" validate:"required,loose_email"`
}

// Fields are declared in the order they are checked; only the first failure is reported.
type completeResetForm struct {
	OTP             string `json:"otp"             validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

type otpForm struct {
	OTP string `json:"otp" validate:"required"`
}

type confirmEmailForm struct {
	Email string `json:"email" validate:"required,loose_email"`
	OTP   string `json:"otp"   validate:"required"`
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		return looseEmailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validateForm runs struct validation and converts the first failure into a
// field-scoped validation error.
func validateForm(form any) error {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "validate input")
	}

	fe := verrs[0]
	msg, ok := fieldMessages[ruleKey{fe.Field(), fe.Tag()}]
	if !ok {
		msg = fe.Field() + " is invalid"
	}
	return apperrors.ValidationField(fe.Field(), msg)
}
