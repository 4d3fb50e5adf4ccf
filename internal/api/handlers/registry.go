package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"italian-cge/internal/dynamics"
	"italian-cge/internal/registry"
)

// RegistryHandler serves the model's fixed entity sets so clients can build
// scenario pickers without hardcoding them.
type RegistryHandler struct {
	defs *registry.Definitions
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(defs *registry.Definitions) *RegistryHandler {
	return &RegistryHandler{defs: defs}
}

// ListSectors handles GET /api/v1/sectors
func (h *RegistryHandler) ListSectors(c *gin.Context) {
	type sectorInfo struct {
		Code      string `json:"code"`
		Name      string `json:"name"`
		Energy    bool   `json:"energy"`
		Transport bool   `json:"transport"`
	}
	out := make([]sectorInfo, 0, len(h.defs.Sectors))
	for _, s := range h.defs.Sectors {
		out = append(out, sectorInfo{
			Code:      string(s),
			Name:      h.defs.SectorName(s),
			Energy:    h.defs.IsEnergySector(s),
			Transport: h.defs.IsTransportSector(s),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sectors": out})
}

// ListRegions handles GET /api/v1/regions
func (h *RegistryHandler) ListRegions(c *gin.Context) {
	type regionInfo struct {
		Code            string  `json:"code"`
		PopulationShare float64 `json:"population_share"`
	}
	out := make([]regionInfo, 0, len(h.defs.Regions))
	for _, r := range h.defs.Regions {
		out = append(out, regionInfo{Code: string(r), PopulationShare: h.defs.PopulationShares[r]})
	}
	c.JSON(http.StatusOK, gin.H{"regions": out})
}

// ListScenarios handles GET /api/v1/scenarios
func (h *RegistryHandler) ListScenarios(c *gin.Context) {
	type scenarioInfo struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		ETS1        bool   `json:"ets1"`
		ETS2        bool   `json:"ets2"`
	}
	var out []scenarioInfo
	for _, sc := range dynamics.DefaultScenarios() {
		out = append(out, scenarioInfo{sc.Name, sc.Description, sc.ETS1Enabled, sc.ETS2Enabled})
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": out})
}

// ListPolicies handles GET /api/v1/policies
func (h *RegistryHandler) ListPolicies(c *gin.Context) {
	describe := func(p registry.ETSPolicy) gin.H {
		covered := make([]string, 0, len(p.CoveredSectors))
		for _, s := range p.CoveredSectors {
			covered = append(covered, string(s))
		}
		return gin.H{
			"name":            p.Name,
			"start_year":      p.StartYear,
			"base_price":      p.BasePrice,
			"growth_rate":     p.GrowthRate,
			"covered_sectors": covered,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"ets1": describe(h.defs.ETS1),
		"ets2": describe(h.defs.ETS2),
	})
}
