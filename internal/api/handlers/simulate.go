package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"italian-cge/internal/api/models"
	"italian-cge/internal/calibration"
	"italian-cge/internal/dynamics"
	"italian-cge/internal/registry"
	"italian-cge/internal/solver"
)

const (
	maxHorizonYear = 2100
	defaultTimeout = 5 * time.Minute
)

// SimulationHandler runs scenario simulations against the server's
// calibrated parameter set.
type SimulationHandler struct {
	defs *registry.Definitions
	par  *calibration.Parameters
	log  *slog.Logger
}

// NewSimulationHandler creates a new simulation handler.
func NewSimulationHandler(defs *registry.Definitions, par *calibration.Parameters, log *slog.Logger) *SimulationHandler {
	return &SimulationHandler{defs: defs, par: par, log: log}
}

// RunSimulation handles POST /api/v1/simulate
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}
	if req.LastYear < h.par.BaseYear || req.LastYear > maxHorizonYear {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_HORIZON", Message: "last_year outside the supported range"},
		})
		return
	}

	scenarios := dynamics.DefaultScenarios()
	if len(req.Scenarios) > 0 {
		scenarios = scenarios[:0]
		for _, spec := range req.Scenarios {
			scenarios = append(scenarios, dynamics.Scenario{
				Name:             spec.Name,
				Description:      spec.Description,
				ETS1Enabled:      spec.ETS1,
				ETS2Enabled:      spec.ETS2,
				CarbonPriceScale: spec.CarbonPriceScale,
				RenewableGrowth:  spec.RenewableGrowth,
			})
		}
	}
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_SCENARIO", Message: err.Error()},
			})
			return
		}
	}

	opts := solver.DefaultOptions()
	if req.Solver.Tolerance > 0 {
		opts.Tolerance = req.Solver.Tolerance
	}
	if req.Solver.MaxIterations > 0 {
		opts.MaxIterations = req.Solver.MaxIterations
	}

	timeout := defaultTimeout
	if req.Options.TimeoutSeconds > 0 {
		timeout = time.Duration(req.Options.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	driver, err := dynamics.New(h.defs, h.par, req.LastYear, opts, h.log)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	results, runErr := driver.RunAll(ctx, scenarios)
	if runErr != nil && ctx.Err() != nil {
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "SIMULATION_TIMEOUT", Message: runErr.Error()},
		})
		return
	}

	resp := models.SimulationResponse{BaseYear: h.par.BaseYear, LastYear: req.LastYear}
	for _, res := range results {
		resp.Scenarios = append(resp.Scenarios, models.FromScenarioResult(
			h.defs, res, req.Options.IncludeSectors, req.Options.IncludeRegions))
	}
	if runErr != nil {
		// Partial results: solved years are included, the failure is
		// reflected in the scenario state.
		h.log.Warn("simulation finished with failures", "err", runErr)
	}
	c.JSON(http.StatusOK, resp)
}
