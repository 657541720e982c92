package response

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/ok", func(c fiber.Ctx) error {
		return Success(c, fiber.StatusCreated, "", map[string]int{"n": 1})
	})
	app.Get("/bad-status", func(c fiber.Ctx) error {
		return Error(c, 42, "", nil)
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/ok", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env SemanticResponse
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, MessageCreated, env.Message)
	assert.Equal(t, map[string]any{"n": float64(1)}, env.Data)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/bad-status", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
