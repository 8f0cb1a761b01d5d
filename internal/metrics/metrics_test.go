package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.Created("text")
	m.Created("text")
	m.Created("png")
	m.Deleted()
	m.Downloaded()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.created.WithLabelValues("text")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.created.WithLabelValues("png")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.downloads))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/download/:id", func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(fiber.StatusNotFound)
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	for _, id := range []string{"a", "b", "c"} {
		resp, err := app.Test(httptest.NewRequest("GET", "/download/"+id, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/download/:id", "404")))

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `simpleshare_http_requests_total{method="GET",route="/download/:id",status="404"} 3`)
}
