package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupAuthEcho(v *TokenVerifier) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.GET("/holds", func(c echo.Context) error {
		return c.String(http.StatusOK, Actor(c))
	}, RequireCoordinator(v, zap.NewNop()))
	return e
}

func authReq(e *echo.Echo, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/holds", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireCoordinator(t *testing.T) {
	v := NewTokenVerifier("secret", "fleet-admin")
	e := setupAuthEcho(v)

	good, err := v.Issue("coord-42", RoleCoordinator, time.Hour)
	require.NoError(t, err)
	expired, err := v.Issue("coord-42", RoleCoordinator, -time.Minute)
	require.NoError(t, err)
	driver, err := v.Issue("drv-1", "driver", time.Hour)
	require.NoError(t, err)
	foreign, err := NewTokenVerifier("secret", "someone-else").Issue("coord-42", RoleCoordinator, time.Hour)
	require.NoError(t, err)
	wrongKey, err := NewTokenVerifier("other", "fleet-admin").Issue("coord-42", RoleCoordinator, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"valid", "Bearer " + good, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong role", "Bearer " + driver, http.StatusUnauthorized},
		{"wrong issuer", "Bearer " + foreign, http.StatusUnauthorized},
		{"wrong key", "Bearer " + wrongKey, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := authReq(e, tt.header)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "coord-42", rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"code":"auth"`)
			}
		})
	}
}

func TestVerify_Errors(t *testing.T) {
	v := NewTokenVerifier("secret", "fleet-admin")

	expired, err := v.Issue("coord-42", RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: RoleAdmin})
	raw, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = v.Verify(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	admin, err := v.Issue("root", RoleAdmin, time.Hour)
	require.NoError(t, err)
	claims, err := v.Verify(admin)
	require.NoError(t, err)
	assert.Equal(t, "root", claims.Subject)
}
