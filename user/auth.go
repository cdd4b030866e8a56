package user

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/log"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenCookie = "authtoken"
	tokenTTL    = 72 * time.Hour
)

// Guard verifies admin tokens. Tokens are HS256-signed with the service
// secret, or checked against a JWKS endpoint when one is configured.
type Guard struct {
	secret []byte
	jwks   *keyfunc.JWKS
}

func NewGuard(secret, jwksURL string) (*Guard, error) {
	g := &Guard{secret: []byte(secret)}
	if jwksURL == "" {
		return g, nil
	}

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Warnf("refresh JWKS from %s: %v", jwksURL, err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load JWKS: %w", err)
	}
	g.jwks = jwks
	return g, nil
}

func (g *Guard) Close() {
	if g.jwks != nil {
		g.jwks.EndBackground()
	}
}

func (g *Guard) keyfunc(t *jwt.Token) (any, error) {
	if g.jwks != nil {
		return g.jwks.Keyfunc(t)
	}
	if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
	}
	return g.secret, nil
}

// Sign issues a token for u.
func (g *Guard) Sign(u User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  u.ID,
		"is_admin": u.IsAdmin,
		"role":     u.Role,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

func (g *Guard) Parse(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, g.keyfunc)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearer(c fiber.Ctx) string {
	if h := c.Get(fiber.HeaderAuthorization); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	return c.Cookies(tokenCookie)
}

// RequireAdmin rejects requests without a valid admin token.
func (g *Guard) RequireAdmin(c fiber.Ctx) error {
	raw := bearer(c)
	if raw == "" {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
	}
	claims, err := g.Parse(raw)
	if err != nil {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
	}
	if isAdmin, _ := claims["is_admin"].(bool); !isAdmin {
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "only admins are permitted"})
	}
	c.Locals("claims", claims)
	return c.Next()
}

func userID(c fiber.Ctx) (uint, bool) {
	claims, ok := c.Locals("claims").(jwt.MapClaims)
	if !ok {
		return 0, false
	}
	id, ok := claims["user_id"].(float64)
	if !ok || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
