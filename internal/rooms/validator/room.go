package validator

import (
	"math"

	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"
)

type RoomValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize room validator", "error", err)
	}

	return &RoomValidator{
		validate: v,
		logger:   log,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		return err
	}
	return v.validateBusinessRules(room)
}

func (v *RoomValidator) ValidateUpdate(updates *model.RoomUpdate) error {
	return v.validate.Struct(updates)
}

func (v *RoomValidator) validateBusinessRules(room *model.Room) error {
	if math.IsNaN(room.Price) || math.IsInf(room.Price, 0) {
		return validation.Field("price", "must be a finite number")
	}
	return nil
}
