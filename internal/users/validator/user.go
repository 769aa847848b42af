package validator

import (
	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"
)

type UserValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewUserValidator(log *logger.Logger) *UserValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize user validator", "error", err)
	}

	return &UserValidator{
		validate: v,
		logger:   log,
	}
}

func (v *UserValidator) ValidateRegister(req *model.RegisterRequest) error {
	return v.validate.Struct(req)
}

func (v *UserValidator) ValidateLogin(req *model.LoginRequest) error {
	return v.validate.Struct(req)
}

func (v *UserValidator) ValidateRoleUpdate(req *model.RoleUpdate) error {
	return v.validate.Struct(req)
}
