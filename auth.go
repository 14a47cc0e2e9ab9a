package main

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const bearerScheme = "Bearer\x20"

// verifyBearerToken accepts either the configured secret itself or a
// bcrypt hash of agentSecret+routerUuid, so operator tooling never has to
// put the plain secret on the wire.
func verifyBearerToken(authHeader, secret, routerUUID string) bool {
	if !strings.HasPrefix(authHeader, bearerScheme) {
		return false
	}

	tokenStr := authHeader[len(bearerScheme):]

	if subtle.ConstantTimeCompare([]byte(tokenStr), []byte(secret)) == 1 {
		return true
	}

	err := bcrypt.CompareHashAndPassword([]byte(tokenStr), []byte(secret+routerUUID))
	return err == nil
}

// authRequired guards the API group with bearer authentication. An empty
// agent secret leaves the API open (diagnostic tool default).
func authRequired(cfg *config) fiber.Handler {
	return func(c fiber.Ctx) error {
		if cfg.Auth.AgentSecret == "" {
			return c.Next()
		}
		if !verifyBearerToken(c.Get("Authorization"), cfg.Auth.AgentSecret, cfg.Auth.RouterUUID) {
			return c.Status(fiber.StatusUnauthorized).JSON(AgentApiResponse{
				Code:    fiber.StatusUnauthorized,
				Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}

// decodePassthrough verifies and decodes an HMAC-signed config passthrough
// token carrying ASN and remote port overrides.
func decodePassthrough(tokenStr, secret string) (*PassthroughData, error) {
	if secret == "" {
		return nil, fmt.Errorf("no passthrough JWT secret configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decode passthrough token: %v", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid passthrough token")
	}

	data := &PassthroughData{}
	if v, ok := claims["asn"].(float64); ok {
		data.ASN = uint16(v)
	}
	if v, ok := claims["port"].(float64); ok {
		data.Port = int(v)
	}
	return data, nil
}
