package serverutils

import (
	"errors"
	"time"

	"design-companion-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	LocalClientID = "client_id"
	LocalRole     = "role"
)

// Claims identify a client workspace and the role it selected.
type Claims struct {
	ClientID string          `json:"client_id"`
	Role     entity.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) Issue(clientID string, role entity.UserRole) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		ClientID: clientID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return signed, exp, err
}

func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.ClientID == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}
	return authHeader[7:]
}

// JwtMiddleware resolves the client workspace from the bearer token.
func (m *TokenManager) JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := BearerToken(ctx)
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing token"))
	}

	claims, err := m.Parse(tokenStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
	}

	ctx.Locals(LocalClientID, claims.ClientID)
	ctx.Locals(LocalRole, claims.Role)
	return ctx.Next()
}

// OptionalClaims returns the claims of a valid bearer token, if any.
func (m *TokenManager) OptionalClaims(ctx *fiber.Ctx) *Claims {
	tokenStr := BearerToken(ctx)
	if tokenStr == "" {
		return nil
	}
	claims, err := m.Parse(tokenStr)
	if err != nil {
		return nil
	}
	return claims
}

func ClientID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(LocalClientID).(string)
	return id
}

func Role(ctx *fiber.Ctx) entity.UserRole {
	role, _ := ctx.Locals(LocalRole).(entity.UserRole)
	return role
}

// RequireRole must run after JwtMiddleware.
func RequireRole(roles ...entity.UserRole) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		current := Role(ctx)
		for _, r := range roles {
			if r == current {
				return ctx.Next()
			}
		}
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Insufficient role"))
	}
}

// RequireCredential answers 412 while the analysis service key is missing.
func RequireCredential(hasKey func() bool, message string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if !hasKey() {
			return ctx.Status(fiber.StatusPreconditionFailed).JSON(ErrorResponse(fiber.StatusPreconditionFailed, message))
		}
		return ctx.Next()
	}
}
