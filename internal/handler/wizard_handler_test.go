package handler

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits-web/internal/draft"
	"benefits-web/internal/service"
	"benefits-web/internal/undo"
)

func newWizardTestApp(t *testing.T, autosaveDelay time.Duration) *fiber.App {
	t.Helper()
	svc := service.NewWizardService(nil, nil, nil, draft.NewMemoryStore(), undo.NewMemoryStore(0))
	h := NewWizardHandler(svc, autosaveDelay)
	app := fiber.New()
	app.Get("/wizard/steps", h.GetSteps)
	return app
}

type wizardStepsPayload struct {
	Data struct {
		Steps           []string `json:"steps"`
		AutosaveDelayMS int64    `json:"autosave_delay_ms"`
	} `json:"data"`
}

func TestGetStepsExposesAutosaveDelay(t *testing.T) {
	app := newWizardTestApp(t, 1500*time.Millisecond)

	resp, err := app.Test(httptest.NewRequest("GET", "/wizard/steps", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload wizardStepsPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, int64(1500), payload.Data.AutosaveDelayMS)
	assert.Equal(t, []string{"empresas", "usuarios", "perfis", "roles"}, payload.Data.Steps)
}

func TestGetStepsAutosaveDelayDefault(t *testing.T) {
	app := newWizardTestApp(t, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/wizard/steps", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload wizardStepsPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, int64(1000), payload.Data.AutosaveDelayMS)
}
