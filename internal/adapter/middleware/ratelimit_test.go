package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupRateEcho(rdb *redis.Client, perMin int) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.POST("/public/uploads", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, RateLimit(rdb, perMin, zap.NewNop()))
	return e
}

func rateReq(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/public/uploads", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_PerClientWindow(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := setupRateEcho(rdb, 2)

	assert.Equal(t, http.StatusNoContent, rateReq(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, rateReq(e, "10.0.0.1").Code)

	rec := rateReq(e, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other clients keep their own budget.
	assert.Equal(t, http.StatusNoContent, rateReq(e, "10.0.0.2").Code)

	for _, k := range mr.Keys() {
		assert.True(t, mr.TTL(k) > 0, "window key %s should expire", k)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := setupRateEcho(rdb, 1)

	assert.Equal(t, http.StatusNoContent, rateReq(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, rateReq(e, "10.0.0.1").Code)
}
