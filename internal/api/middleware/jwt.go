package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// ErrJWTSigningKeyMissing is returned when no verification key is configured.
var ErrJWTSigningKeyMissing = errors.New("jwt signing key is not configured")

// JWTClaims are the ledger's bearer token claims. The subject is the caller identity.
type JWTClaims struct {
	jwt.RegisteredClaims
}

// Identity returns the caller identity carried by the token.
func (c *JWTClaims) Identity() domain.Identity {
	return domain.Identity(c.Subject)
}

// JWTConfig holds JWT signing configuration.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	ExpiresIn  time.Duration
}

// GenerateToken creates a signed HS256 token whose subject is identity.
func GenerateToken(cfg JWTConfig, identity domain.Identity) (string, time.Time, error) {
	if identity.IsAnonymous() {
		return "", time.Time{}, errors.New("token subject must not be empty")
	}
	now := time.Now()
	expiresAt := now.Add(cfg.ExpiresIn)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    cfg.Issuer,
			Subject:   identity.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken parses and verifies tokenString.
func (cfg JWTConfig) ValidateToken(_ context.Context, tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if len(cfg.SigningKey) == 0 {
			return nil, ErrJWTSigningKeyMissing
		}
		return cfg.SigningKey, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: empty subject", jwt.ErrTokenInvalidClaims)
	}
	return claims, nil
}

// JWTAuth validates Bearer tokens and stores the caller identity in the request context.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "invalid authorization header format")
			return
		}

		claims, err := cfg.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, apperrors.CodeTokenExpired, "token expired")
				return
			}
			abortUnauthorized(c, apperrors.CodeTokenInvalid, "invalid token")
			return
		}

		identity := claims.Identity()
		c.Set(string(ctxKeyIdentity), identity)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, code, message string) {
	_ = c.Error(apperrors.Unauthorized(code, message))
	c.Abort()
}
