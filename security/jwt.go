package security

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"healthcare-chat/config/common"
	"healthcare-chat/entity"
)

const (
	ClaimUserID   = "user_id"
	ClaimUsername = "username"
	ClaimUserType = "user_type"
	Audience      = "healthcare-chat"
)

type JWT struct {
	config *common.Config
}

func NewJWT(config *common.Config) *JWT {
	return &JWT{config: config}
}

func (j *JWT) GenerateToken(user *entity.User) (string, error) {
	secretKey := j.config.GetJwtConfig()
	ttl := j.config.GetJwtTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}

	claims := jwt.MapClaims{
		ClaimUserID:   strconv.FormatInt(user.ID, 10),
		ClaimUsername: user.Username,
		ClaimUserType: string(user.Type),
		"aud":         Audience,
		"iss":         Audience,
		"iat":         time.Now().Unix(),
		"exp":         time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(secretKey)
}

func (j *JWT) VerifyJwtToken(token string) (jwt.MapClaims, error) {
	secretKey := j.config.GetJwtConfig()

	tokenParse, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secretKey, nil
	}, jwt.WithAudience(Audience))

	if err != nil {
		return nil, err
	}

	if claims, ok := tokenParse.Claims.(jwt.MapClaims); ok && tokenParse.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

func (j *JWT) GetUserIdFromToken(token string) (int64, error) {
	claims, err := j.VerifyJwtToken(token)
	if err != nil {
		return 0, err
	}
	return UserIDFromClaims(claims)
}

// UserIDFromClaims reads the user_id claim written by GenerateToken.
func UserIDFromClaims(claims jwt.MapClaims) (int64, error) {
	raw, ok := claims[ClaimUserID].(string)
	if !ok {
		return 0, jwt.ErrTokenInvalidClaims
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, jwt.ErrTokenInvalidClaims
	}
	return userID, nil
}
