package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"healthcare-chat/config/common"
	"healthcare-chat/dto/res"
	"healthcare-chat/security"
)

type Middleware struct {
	*common.Config
	Log *logrus.Logger

	jwtHandler fiber.Handler
}

func NewMiddleware(config *common.Config, logger *logrus.Logger) *Middleware {
	middleware := &Middleware{Config: config, Log: logger}
	middleware.jwtHandler = jwtware.New(jwtware.Config{
		SigningKey:  jwtware.SigningKey{JWTAlg: jwtware.HS512, Key: config.GetJwtConfig()},
		ContextKey:  "jwt",
		TokenLookup: "header:Authorization,query:token",
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			middleware.Log.WithError(err).Warn("Failed to validate JWT")
			return unauthorized(ctx, "Token is not valid")
		},
	})
	return middleware
}

func (middleware *Middleware) JWTProtected(c *fiber.Ctx) error {
	return middleware.jwtHandler(c)
}

// ExtractUserID runs after JWTProtected and exposes the caller as
// c.Locals("user_id") (int64).
func (middleware *Middleware) ExtractUserID(c *fiber.Ctx) error {
	token, ok := c.Locals("jwt").(*jwt.Token)
	if !ok {
		return unauthorized(c, "Missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthorized(c, "Invalid token claims")
	}

	userID, err := security.UserIDFromClaims(claims)
	if err != nil {
		middleware.Log.WithError(err).Error("Failed to extract user ID from token")
		return unauthorized(c, "Failed to extract user ID from token")
	}

	c.Locals("user_id", userID)
	return c.Next()
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(res.ErrorResponse{
		Status:     fiber.ErrUnauthorized.Message,
		StatusCode: fiber.StatusUnauthorized,
		Code:       "auth",
		Error:      message,
	})
}
