package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"bess-valuation/internal/api/models"
	"bess-valuation/internal/battery"
	"bess-valuation/internal/config"
	"bess-valuation/internal/model"

	"github.com/gin-gonic/gin"
)

// BatteryHandler serves battery presets from a directory of YAML files.
type BatteryHandler struct {
	batteryDir string
}

// NewBatteryHandler creates a new battery handler. An empty dir uses
// BATTERY_DIR, then ./examples/batteries.
func NewBatteryHandler(dir string) *BatteryHandler {
	if dir == "" {
		dir = os.Getenv("BATTERY_DIR")
	}
	if dir == "" {
		dir = filepath.Join(".", "examples", "batteries")
	}
	// Convert to absolute path for reliability
	if absDir, err := filepath.Abs(dir); err == nil {
		dir = absDir
	}
	logger().Info("battery presets", "dir", dir)
	return &BatteryHandler{batteryDir: dir}
}

func (h *BatteryHandler) presets() (map[string]model.BatteryConfig, error) {
	if _, err := os.Stat(h.batteryDir); err != nil {
		if os.IsNotExist(err) {
			return map[string]model.BatteryConfig{}, nil
		}
		return nil, err
	}
	return config.LoadBatteryDir(h.batteryDir)
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	presets, err := h.presets()
	if err != nil {
		logger().Error("load battery presets", "dir", h.batteryDir, "error", err)
		respondError(c, http.StatusInternalServerError, "BATTERY_LOAD_ERROR", err)
		return
	}
	batteries := make([]models.BatteryInfo, 0, len(presets))
	for id, b := range presets {
		name := b.Name
		if name == "" {
			name = id
		}
		batteries = append(batteries, models.BatteryInfo{ID: id, Name: name, Specs: b})
	}
	sort.Slice(batteries, func(i, j int) bool { return batteries[i].ID < batteries[j].ID })
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}

// ListChemistries handles GET /api/v1/chemistries
func (h *BatteryHandler) ListChemistries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chemistries": battery.Chemistries()})
}

var errUnknownBattery = errors.New("unknown battery_id")

// Resolve picks the preset named by sel (or the default battery) and
// overlays the explicit fields of sel.Battery.
func (h *BatteryHandler) Resolve(sel models.BatterySelection) (model.BatteryConfig, error) {
	base := model.DefaultBattery()
	if sel.BatteryID != "" {
		presets, err := h.presets()
		if err != nil {
			return model.BatteryConfig{}, err
		}
		p, ok := presets[sel.BatteryID]
		if !ok {
			return model.BatteryConfig{}, fmt.Errorf("%w %q", errUnknownBattery, sel.BatteryID)
		}
		base = p
	}
	b := config.MergeBattery(base, sel.Battery)
	if err := b.Validate(); err != nil {
		return model.BatteryConfig{}, err
	}
	return b, nil
}
