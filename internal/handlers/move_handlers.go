package handlers

import (
	"errors"
	"net/http"

	"stacks_inventory_backend/internal/services"
	"stacks_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MoveHandler exposes the container move protocol. The barcode comes
// from the URL (the operator's scan), the destination from the body.
type MoveHandler struct {
	moveService services.MoveService
}

// NewMoveHandler creates a new MoveHandler.
func NewMoveHandler(ms services.MoveService) *MoveHandler {
	return &MoveHandler{moveService: ms}
}

type moveDestination struct {
	ShelfBarcode   string `json:"shelf_barcode" binding:"required"`
	PositionNumber int    `json:"position_number" binding:"required,gt=0"`
}

// MoveContainer handles POST /trays/move/:barcode and
// POST /non-tray-items/move/:barcode; the barcode decides which
// container kind actually moves.
func (h *MoveHandler) MoveContainer(c *gin.Context) {
	var dest moveDestination
	if err := c.ShouldBindJSON(&dest); err != nil {
		utils.LogError(err, "MoveContainer: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	req := services.MoveContainerRequest{
		ContainerBarcode: c.Param("barcode"),
		ShelfBarcode:     dest.ShelfBarcode,
		PositionNumber:   dest.PositionNumber,
		AssignedUserID:   optionalUserID(c),
	}

	tray, nonTray, err := h.moveService.MoveContainer(req)
	if err != nil {
		respondMoveError(c, err, "MoveContainer")
		return
	}
	if tray != nil {
		c.JSON(http.StatusOK, tray)
		return
	}
	c.JSON(http.StatusOK, nonTray)
}

// MoveItem handles POST /items/move/:barcode.
func (h *MoveHandler) MoveItem(c *gin.Context) {
	var body struct {
		TrayBarcode string `json:"tray_barcode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.LogError(err, "MoveItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	req := services.MoveItemRequest{
		ItemBarcode:    c.Param("barcode"),
		TrayBarcode:    body.TrayBarcode,
		AssignedUserID: optionalUserID(c),
	}

	item, err := h.moveService.MoveItem(req)
	if err != nil {
		respondMoveError(c, err, "MoveItem")
		return
	}
	c.JSON(http.StatusOK, item)
}

// respondMoveError maps protocol outcomes: unknown barcode is 404 with
// no ledger row, a validation rejection is 422 with its discrepancy
// already committed, a position race is a plain 409.
func respondMoveError(c *gin.Context, err error, operation string) {
	switch {
	case errors.Is(err, services.ErrContainerNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Container not found for barcode.", err.Error()))
	case errors.Is(err, services.ErrMoveRejected):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Move rejected; discrepancy recorded.", err.Error()))
	case errors.Is(err, services.ErrPositionOccupied):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Destination position is already occupied.", err.Error()))
	default:
		utils.LogError(err, operation+": Error from moveService")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to move container.", "Internal error"))
	}
}

// optionalUserID reads the authenticated user id for discrepancy
// attribution; moves still work on unauthenticated test setups.
func optionalUserID(c *gin.Context) *int64 {
	if userID, ok := currentUserID(c); ok {
		return &userID
	}
	return nil
}
