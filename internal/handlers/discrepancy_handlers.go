package handlers

import (
	"net/http"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/services"
	"stacks_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DiscrepancyHandler is the read side of the discrepancy ledger.
type DiscrepancyHandler struct {
	discrepancyService services.DiscrepancyService
}

// NewDiscrepancyHandler creates a new DiscrepancyHandler.
func NewDiscrepancyHandler(ds services.DiscrepancyService) *DiscrepancyHandler {
	return &DiscrepancyHandler{discrepancyService: ds}
}

func discrepancyFiltersFromQuery(c *gin.Context) (models.DiscrepancyFilters, error) {
	filters := models.DiscrepancyFilters{}
	for param, target := range map[string]**int64{
		"tray_id":          &filters.TrayID,
		"non_tray_item_id": &filters.NonTrayItemID,
		"item_id":          &filters.ItemID,
		"shelving_job_id":  &filters.ShelvingJobID,
	} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		id, err := utils.StrToInt64(raw)
		if err != nil {
			return filters, err
		}
		*target = &id
	}
	return filters, nil
}

// ListMoveDiscrepancies handles GET /move-discrepancies.
func (h *DiscrepancyHandler) ListMoveDiscrepancies(c *gin.Context) {
	filters, err := discrepancyFiltersFromQuery(c)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid filter id.", err.Error()))
		return
	}

	discrepancies, err := h.discrepancyService.ListMoveDiscrepancies(filters)
	if err != nil {
		utils.LogError(err, "ListMoveDiscrepancies: Error from discrepancyService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list discrepancies.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, discrepancies)
}

// ListShelvingJobDiscrepancies handles GET /shelving-job-discrepancies.
func (h *DiscrepancyHandler) ListShelvingJobDiscrepancies(c *gin.Context) {
	filters, err := discrepancyFiltersFromQuery(c)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid filter id.", err.Error()))
		return
	}

	discrepancies, err := h.discrepancyService.ListShelvingJobDiscrepancies(filters)
	if err != nil {
		utils.LogError(err, "ListShelvingJobDiscrepancies: Error from discrepancyService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list discrepancies.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, discrepancies)
}
