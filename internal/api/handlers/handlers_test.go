package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"italian-cge/internal/api/models"
	"italian-cge/internal/calibration"
	"italian-cge/internal/registry"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	defs := registry.NewDefinitions()
	par, err := calibration.Synthetic(defs, calibration.Targets{
		BaseYear: 2021, GDPBillion: 1782.0, PopulationMillion: 59.13,
	})
	require.NoError(t, err)

	sim := NewSimulationHandler(defs, par, slog.Default())
	reg := NewRegistryHandler(defs)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/simulate", sim.RunSimulation)
	api.GET("/sectors", reg.ListSectors)
	api.GET("/regions", reg.ListRegions)
	api.GET("/scenarios", reg.ListScenarios)
	api.GET("/policies", reg.ListPolicies)
	return r
}

func TestListSectors(t *testing.T) {
	r := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sectors", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Sectors []struct {
			Code   string `json:"code"`
			Energy bool   `json:"energy"`
		} `json:"sectors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Sectors, 11)
}

func TestListPolicies(t *testing.T) {
	r := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/policies", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ETS1")
}

func TestRunSimulationRejectsBadRequests(t *testing.T) {
	r := testRouter(t)

	cases := map[string]string{
		"missing last_year": `{}`,
		"horizon too early": `{"last_year": 1990}`,
		"bad scenario":      `{"last_year": 2021, "scenarios": [{"name": "x", "ets2": true}]}`,
	}
	for name, body := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestRunSimulationBaseYear(t *testing.T) {
	if testing.Short() {
		t.Skip("full-system solve")
	}
	r := testRouter(t)

	body := `{"last_year": 2021, "scenarios": [{"name": "BAU"}], "options": {"include_regions": true}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/simulate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.SimulationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Scenarios, 1)
	require.Len(t, resp.Scenarios[0].Years, 1)
	assert.Equal(t, 2021, resp.Scenarios[0].Years[0].Year)
	assert.True(t, resp.Scenarios[0].Years[0].Validated)
	assert.Len(t, resp.Scenarios[0].Regions, 5)
	assert.Empty(t, resp.Scenarios[0].Sectors)
}
