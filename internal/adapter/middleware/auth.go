package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	RoleCoordinator = "coordinator"
	RoleAdmin       = "admin"

	actorKey = "actor"
)

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token has expired")
	ErrRoleNotAllowed = errors.New("role is not allowed to manage compliance")
)

// Claims are the access token claims issued to fleet coordinators.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier signs and checks HS256 coordinator tokens.
type TokenVerifier struct {
	signingKey []byte
	issuer     string
}

func NewTokenVerifier(secret, issuer string) *TokenVerifier {
	return &TokenVerifier{signingKey: []byte(secret), issuer: issuer}
}

func (v *TokenVerifier) Issue(subject, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(v.signingKey)
}

func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrTokenInvalid
	}
	if claims.Role != RoleCoordinator && claims.Role != RoleAdmin {
		return nil, ErrRoleNotAllowed
	}
	return claims, nil
}

// RequireCoordinator rejects requests without a valid bearer token and
// stores the token subject as the request actor.
func RequireCoordinator(v *TokenVerifier, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				log.Warn("unauthorized access - missing token", zap.String("path", c.Path()))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing or invalid Authorization header", "code": "auth"})
			}
			claims, err := v.Verify(strings.TrimSpace(raw))
			if err != nil {
				log.Warn("unauthorized access - invalid token", zap.String("path", c.Path()), zap.Error(err))
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": err.Error(), "code": "auth"})
			}
			c.Set(actorKey, claims.Subject)
			return next(c)
		}
	}
}

// Actor is the authenticated subject of the request, empty on public routes.
func Actor(c echo.Context) string {
	s, _ := c.Get(actorKey).(string)
	return s
}
