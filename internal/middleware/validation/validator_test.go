package validation

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Post("/prediksi", Answers(Config{MaxAnswerLength: 8}), func(c *fiber.Ctx) error {
		return c.JSON(FromContext(c))
	})
	return app
}

func post(t *testing.T, app *fiber.App, contentType, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/prediksi", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return resp.StatusCode, out
}

func TestAnswersAccepted(t *testing.T) {
	status, out := post(t, newApp(), "application/json; charset=utf-8", `{"age":"45","polyuria":"Ya"}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "45", out["age"])
	assert.Equal(t, "Ya", out["polyuria"])
}

func TestAnswersRejected(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		status      int
	}{
		{"form body", "application/x-www-form-urlencoded", "age=45", fiber.StatusUnsupportedMediaType},
		{"no content type", "", `{"age":45}`, fiber.StatusUnsupportedMediaType},
		{"malformed", "application/json", `{"age":`, fiber.StatusBadRequest},
		{"array", "application/json", `["Ya"]`, fiber.StatusBadRequest},
		{"string", "application/json", `"Ya"`, fiber.StatusBadRequest},
		{"empty", "application/json", ``, fiber.StatusBadRequest},
		{"trailing", "application/json", `{} {}`, fiber.StatusBadRequest},
		{"long answer", "application/json", `{"gender":"Perempuan!!"}`, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out := post(t, newApp(), tt.contentType, tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestNumbersKeptAsNumbers(t *testing.T) {
	answers, err := decode([]byte(`{"age":45}`), Config{MaxFields: 4, MaxAnswerLength: 8})
	require.NoError(t, err)

	n, ok := answers["age"].(json.Number)
	require.True(t, ok)
	assert.Equal(t, "45", n.String())
}
