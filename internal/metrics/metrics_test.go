package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"resto/internal/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	app.Get("/orders/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/orders/:id", "404"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/orders/42", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/orders/:id", "404"))
	assert.Equal(t, before+1, after)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "restaurant_http_requests_total")
}

func TestMiddlewareCountsErrorStatus(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if errors.Is(err, apperrors.ErrAuth) {
			code = fiber.StatusUnauthorized
		}
		return c.Status(code).JSON(fiber.Map{"error": err.Error()})
	}})
	app.Use(Middleware())
	app.Get("/me/orders", func(c *fiber.Ctx) error {
		return fmt.Errorf("missing bearer token: %w", apperrors.ErrAuth)
	})

	unauthorized := httpRequests.WithLabelValues("GET", "/me/orders", "401")
	ok := httpRequests.WithLabelValues("GET", "/me/orders", "200")
	beforeUnauthorized := testutil.ToFloat64(unauthorized)
	beforeOK := testutil.ToFloat64(ok)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me/orders", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"error":"missing bearer token: authentication failed"}`, string(body))

	assert.Equal(t, beforeUnauthorized+1, testutil.ToFloat64(unauthorized))
	assert.Equal(t, beforeOK, testutil.ToFloat64(ok))
}

func TestRecordOrderCreated(t *testing.T) {
	before := testutil.ToFloat64(ordersCreated)
	RecordOrderCreated(7.5)
	assert.Equal(t, before+1, testutil.ToFloat64(ordersCreated))
}
