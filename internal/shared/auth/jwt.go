package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultTTL is the lifetime of tokens signed without an explicit expiry.
const DefaultTTL = 12 * time.Hour

const minProductionSecretLen = 32

// Claims represents the identity contained in an access token.
type Claims struct {
	Sub   string `json:"sub"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
	Iat   int64  `json:"iat,omitempty"`
}

var (
	errMissingSecret = errors.New("jwt secret not configured")

	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is an ErrInvalidToken whose signature was fine but whose exp has passed.
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
)

type header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

// SignJWT signs the given claims with HS256 using the configured secret.
func SignJWT(claims Claims) (string, error) {
	secret, err := secretKey()
	if err != nil {
		return "", err
	}
	if claims.Sub == "" {
		return "", errors.New("sub is required")
	}

	now := time.Now().UTC().Unix()
	if claims.Iat == 0 {
		claims.Iat = now
	}
	if claims.Exp == 0 {
		claims.Exp = claims.Iat + int64(DefaultTTL/time.Second)
	}

	headerJSON, err := json.Marshal(header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	signingInput := base64.RawURLEncoding.EncodeToString(headerJSON) + "." +
		base64.RawURLEncoding.EncodeToString(payloadJSON)
	return signingInput + "." + sign(signingInput, secret), nil
}

// VerifyJWT checks the HS256 signature and expiry of a token and returns its claims.
func VerifyJWT(token string) (Claims, error) {
	secret, err := secretKey()
	if err != nil {
		return Claims{}, err
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, ErrInvalidToken
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var h header
	if err := json.Unmarshal(headerBytes, &h); err != nil || h.Alg != "HS256" {
		return Claims{}, ErrInvalidToken
	}

	expectedSig := sign(parts[0]+"."+parts[1], secret)
	if !hmac.Equal([]byte(parts[2]), []byte(expectedSig)) {
		return Claims{}, ErrInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil || claims.Sub == "" {
		return Claims{}, ErrInvalidToken
	}
	if claims.Exp > 0 && time.Now().UTC().Unix() > claims.Exp {
		return Claims{}, ErrExpiredToken
	}
	return claims, nil
}

func sign(input string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// secretKey reads JWT_SECRET. Outside production an unset secret falls back to
// a fixed development value so the dev backend and BFF agree without setup.
func secretKey() ([]byte, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	env := strings.ToLower(strings.TrimSpace(os.Getenv("ENV")))
	if env == "production" || env == "prod" {
		if len(secret) < minProductionSecretLen {
			return nil, fmt.Errorf("%w: JWT_SECRET of at least %d bytes required in production", errMissingSecret, minProductionSecretLen)
		}
		return []byte(secret), nil
	}
	if secret == "" {
		secret = "dev-secret"
	}
	return []byte(secret), nil
}
