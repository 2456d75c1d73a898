package middlewarectx

import (
	"github.com/magabrotheeeer/skincare-planner/internal/lib/jwt"
)

// TokenParser проверяет подпись и срок действия токена и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}
