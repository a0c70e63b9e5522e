package handlers

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Each input form is a typed schema validated as a whole; validation
// failures become a field -> message map rendered inline next to the field.

// RegisterForm is the registration input schema.
type RegisterForm struct {
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is the login input schema.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Remember bool   `form:"remember"`
	Next     string `form:"next"`
}

// UpdateAccountForm is the profile update schema; the avatar file rides
// alongside as multipart and is not part of the validated struct.
type UpdateAccountForm struct {
	Username string `form:"username" validate:"required,min=2,max=20"`
	Email    string `form:"email" validate:"required,email"`
}

// PostForm is the schema for creating and editing posts.
type PostForm struct {
	Title   string `form:"title" validate:"required,max=100"`
	Content string `form:"content" validate:"required"`
}

// RequestResetForm asks for the account email to send a reset link to.
type RequestResetForm struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetPasswordForm sets the new password after token verification.
type ResetPasswordForm struct {
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// validateForm runs the validator over a form struct and flattens failures
// into a field -> message map; nil means the form is valid.
func validateForm(validate *validator.Validate, form interface{}) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	validationErrors := err.(validator.ValidationErrors)
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return errorMessages
}
