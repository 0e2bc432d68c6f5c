package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wheels/config"
	"wheels/models"
)

// Claims carries the identity provider's user fields.
type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"` // driver | rider
	jwt.RegisteredClaims
}

type JWTService struct {
	secret []byte
	expiry time.Duration
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		expiry: time.Duration(cfg.ExpiryMinutes) * time.Minute,
	}
}

// GenerateToken signs a token for the given user.
func (s *JWTService) GenerateToken(userID, name string, role models.Role) (string, error) {
	if userID == "" || !role.Valid() {
		return "", errors.New("user id and a valid role are required")
	}
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Name:   name,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "wheels",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken checks the signature and expiry and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Session turns a token into the acting party.
func (s *JWTService) Session(tokenString string) (models.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return models.Session{}, err
	}
	role := models.Role(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return models.Session{}, errors.New("token without user or role")
	}
	return models.Session{UserID: claims.UserID, Role: role, Name: claims.Name}, nil
}
