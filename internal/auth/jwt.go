package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

// Token kinds carried in the "typ" claim. The refresh endpoint only
// accepts refresh tokens, everything else only accepts access tokens.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Token lifetimes
const (
	AccessTokenTTL  = 60 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// JWTClaims represents the JWT token claims
type JWTClaims struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	IsSuperuser bool   `json:"is_superuser"`
	TokenType   string `json:"typ"`
	jwt.RegisteredClaims
}

// InitializeJWT sets the JWT secret key
func InitializeJWT(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateTokenPair creates an access/refresh token pair for a user
func GenerateTokenPair(userID, username, role string, isSuperuser bool) (access, refresh string, err error) {
	access, err = generateToken(userID, username, role, isSuperuser, TokenTypeAccess, AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = generateToken(userID, username, role, isSuperuser, TokenTypeRefresh, RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func generateToken(userID, username, role string, isSuperuser bool, tokenType string, ttl time.Duration) (string, error) {
	if len(jwtSecret) == 0 {
		return "", fmt.Errorf("JWT secret not initialized")
	}

	now := time.Now()
	claims := JWTClaims{
		UserID:      userID,
		Username:    username,
		Role:        role,
		IsSuperuser: isSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*JWTClaims, error) {
	if len(jwtSecret) == 0 {
		return nil, fmt.Errorf("JWT secret not initialized")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// ValidateAccessToken validates a token and rejects anything but an access token
func ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	// Tokens issued before the "typ" claim existed have it empty; treat them as access tokens
	if claims.TokenType != "" && claims.TokenType != TokenTypeAccess {
		return nil, fmt.Errorf("token is not an access token")
	}
	return claims, nil
}

// ValidateRefreshToken validates a token and rejects anything but a refresh token
func ValidateRefreshToken(tokenString string) (*JWTClaims, error) {
	claims, err := ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("token is not a refresh token")
	}
	return claims, nil
}
