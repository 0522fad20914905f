package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/database/usagestore"
)

// UsageController serves the ledger RPCs consumed by the fail-open
// usage tracker.
type UsageController struct {
	store *usagestore.Repository
}

func NewUsageController(store *usagestore.Repository) *UsageController {
	return &UsageController{store: store}
}

type incrementUsageRequest struct {
	UserID    string            `json:"user_id"`
	UsageType string            `json:"usage_type"`
	Date      string            `json:"date"`
	Increment int64             `json:"increment"`
	Metadata  map[string]string `json:"metadata"`
}

type currentUsageRequest struct {
	UserID    string `json:"user_id"`
	UsageType string `json:"usage_type"`
	Period    string `json:"period"`
}

type usageTotalResponse struct {
	Total int64 `json:"total"`
}

// Increment handles POST /rpc/increment_daily_usage.
func (u *UsageController) Increment(c *gin.Context) {
	var req incrementUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed usage request"})
		return
	}
	if req.UserID == "" || req.UsageType == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id and usage_type are required"})
		return
	}

	metadata := ""
	if len(req.Metadata) > 0 {
		encoded, err := json.Marshal(req.Metadata)
		if err == nil {
			metadata = string(encoded)
		}
	}

	total, err := u.store.Increment(req.UserID, req.UsageType, req.Increment, metadata)
	if err != nil {
		log.Printf("[USAGE] increment failed for %s/%s: %v", req.UserID, req.UsageType, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "increment failed"})
		return
	}

	c.JSON(http.StatusOK, usageTotalResponse{Total: total})
}

// Current handles POST /rpc/get_current_usage.
func (u *UsageController) Current(c *gin.Context) {
	var req currentUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "malformed usage request"})
		return
	}

	period := usagestore.PeriodDaily
	if req.Period == string(usagestore.PeriodMonthly) {
		period = usagestore.PeriodMonthly
	}

	total, err := u.store.CurrentUsage(req.UserID, req.UsageType, period)
	if err != nil {
		log.Printf("[USAGE] read failed for %s/%s: %v", req.UserID, req.UsageType, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "usage read failed"})
		return
	}

	c.JSON(http.StatusOK, usageTotalResponse{Total: total})
}
