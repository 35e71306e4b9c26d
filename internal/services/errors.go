package services

import (
	"errors"
	"fmt"

	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

// Error kinds shared by every service. Callers match them with errors.Is;
// the message after the colon is safe to show to clients.
var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("authentication required")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidReference = errors.New("invalid reference")
	ErrValidation       = errors.New("validation failed")
)

// requireActor rejects anonymous and disabled users.
func requireActor(actor *models.User) error {
	if actor == nil || actor.ID == 0 {
		return ErrUnauthorized
	}
	if !actor.IsActive {
		return fmt.Errorf("%w: account is disabled", ErrForbidden)
	}
	return nil
}

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
