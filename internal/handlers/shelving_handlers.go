package handlers

import (
	"errors"
	"net/http"

	"stacks_inventory_backend/internal/services"
	"stacks_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShelvingHandler exposes the shelving-job flows.
type ShelvingHandler struct {
	shelvingService services.ShelvingService
}

// NewShelvingHandler creates a new ShelvingHandler.
func NewShelvingHandler(ss services.ShelvingService) *ShelvingHandler {
	return &ShelvingHandler{shelvingService: ss}
}

// AssignToShelf handles POST /shelving-jobs/:id/assign.
func (h *ShelvingHandler) AssignToShelf(c *gin.Context) {
	jobID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid shelving job id.", err.Error()))
		return
	}

	var req services.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AssignToShelf: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}
	req.AssignedUserID = optionalUserID(c)

	if err := h.shelvingService.AssignToShelf(jobID, req); err != nil {
		switch {
		case errors.Is(err, services.ErrShelvingJobNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shelving job not found.", err.Error()))
		case errors.Is(err, services.ErrContainerNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Container not found for barcode.", err.Error()))
		case errors.Is(err, services.ErrShelvingRejected):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Shelving rejected; discrepancy recorded.", err.Error()))
		case errors.Is(err, services.ErrPositionOccupied):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Position is already occupied.", err.Error()))
		default:
			utils.LogError(err, "AssignToShelf: Error from shelvingService.AssignToShelf")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to assign container.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Container assigned."})
}

// ProposePositions handles POST /shelving-jobs/:id/propose.
func (h *ShelvingHandler) ProposePositions(c *gin.Context) {
	jobID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid shelving job id.", err.Error()))
		return
	}

	var req services.ProposeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "ProposePositions: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	result, err := h.shelvingService.ProposePositions(jobID, req)
	if err != nil {
		if errors.Is(err, services.ErrShelvingJobNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shelving job not found.", err.Error()))
			return
		}
		utils.LogError(err, "ProposePositions: Error from shelvingService.ProposePositions")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to propose positions.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, result)
}
