package utils

import (
	"datahub/config"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Claims struct {
	UserId      uint64 `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	OrgId       uint64 `json:"org_id"`
	DataCommons string `json:"data_commons,omitempty"`
	Studies     string `json:"studies,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a JWT carrying the user's authorization scope.
func GenerateToken(userId uint64, username, role string, orgId uint64, dataCommons, studies string) (string, error) {
	claims := Claims{
		UserId:      userId,
		Username:    username,
		Role:        role,
		OrgId:       orgId,
		DataCommons: dataCommons,
		Studies:     studies,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		log.Println("Error signing token:", err)
		return "", err
	}
	return tokenString, nil
}

// VerifyToken parses and validates a JWT.
func VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
