package contract

import "errors"

var (
	ErrConfiguration   = errors.New("configuration invalid")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrModelAuth       = errors.New("model credential rejected")
	ErrTurnTimeout     = errors.New("turn timed out")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrValidation      = errors.New("validation failed")
)
