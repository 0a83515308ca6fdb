package security

import (
	"errors"
	"time"

	"olimpiada_backend/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

func GenerateToken(personID, name, role string) (string, error) {
	claims := jwt.MapClaims{
		"id":   personID,
		"name": name,
		"rol":  role,
		"exp":  time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":  time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

// Helper functions to extract claims, can be used in middleware or services
func GetPersonIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["id"].(string)
	if !ok {
		return "", errors.New("id claim is missing or not a string")
	}
	return id, nil
}

func GetRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["rol"].(string)
	if !ok {
		return "", errors.New("rol claim is missing or not a string")
	}
	return role, nil
}
