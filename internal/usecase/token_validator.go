package usecase

import (
	"github.com/google/uuid"

	"shop-automation/internal/domain/user"
)

// TokenValidator is the narrow surface the auth middleware depends on.
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, user.Role, error)
}

func NewTokenValidator(authUseCase AuthUseCase) TokenValidator {
	return authUseCase
}
