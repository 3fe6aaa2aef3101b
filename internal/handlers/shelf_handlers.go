package handlers

import (
	"errors"
	"net/http"

	"stacks_inventory_backend/internal/services"
	"stacks_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShelfHandler exposes shelf and shelf-type administration plus the bulk
// address rebuild.
type ShelfHandler struct {
	shelfService   services.ShelfService
	addressService services.AddressService
}

// NewShelfHandler creates a new ShelfHandler.
func NewShelfHandler(ss services.ShelfService, as services.AddressService) *ShelfHandler {
	return &ShelfHandler{shelfService: ss, addressService: as}
}

// CreateShelf handles POST /shelves.
func (h *ShelfHandler) CreateShelf(c *gin.Context) {
	var req services.CreateShelfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateShelf: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	shelf, err := h.shelfService.CreateShelf(req)
	if err != nil {
		utils.LogError(err, "CreateShelf: Error from shelfService.CreateShelf")
		switch {
		case errors.Is(err, services.ErrShelfTypeNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Shelf type not found.", err.Error()))
		case errors.Is(err, services.ErrDuplicateShelf):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shelf already exists.", err.Error()))
		case errors.Is(err, services.ErrBrokenAddressChain):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeValidationFailed, "Shelf created but its hierarchy chain is broken.", err.Error()))
		default:
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create shelf.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, shelf)
}

// GetShelf handles GET /shelves/:id.
func (h *ShelfHandler) GetShelf(c *gin.Context) {
	shelfID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid shelf id.", err.Error()))
		return
	}

	shelf, err := h.shelfService.GetShelf(shelfID)
	if err != nil {
		if errors.Is(err, services.ErrShelfNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shelf not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetShelf: Error from shelfService.GetShelf")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to retrieve shelf.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, shelf)
}

// RebuildAddresses handles POST /shelves/rebuild-addresses. Broken rows
// are reported, not fatal, so a partial rebuild still returns 200 with
// the error list.
func (h *ShelfHandler) RebuildAddresses(c *gin.Context) {
	report, err := h.addressService.RebuildAllAddresses()
	if err != nil {
		utils.LogError(err, "RebuildAddresses: Error from addressService.RebuildAllAddresses")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to rebuild addresses.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateShelfType handles POST /shelf-types.
func (h *ShelfHandler) CreateShelfType(c *gin.Context) {
	var req services.CreateShelfTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateShelfType: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	shelfType, err := h.shelfService.CreateShelfType(req)
	if err != nil {
		utils.LogError(err, "CreateShelfType: Error from shelfService.CreateShelfType")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create shelf type.", "Internal error"))
		return
	}
	c.JSON(http.StatusCreated, shelfType)
}

// DeleteShelfType handles DELETE /shelf-types/:id. Deletion is blocked
// while any shelf references the type.
func (h *ShelfHandler) DeleteShelfType(c *gin.Context) {
	shelfTypeID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid shelf type id.", err.Error()))
		return
	}

	if err := h.shelfService.DeleteShelfType(shelfTypeID); err != nil {
		switch {
		case errors.Is(err, services.ErrShelfTypeInUse):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shelf type is still referenced by shelves.", err.Error()))
		case errors.Is(err, services.ErrShelfTypeNotFound):
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shelf type not found.", err.Error()))
		default:
			utils.LogError(err, "DeleteShelfType: Error from shelfService.DeleteShelfType")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete shelf type.", "Internal error"))
		}
		return
	}
	c.Status(http.StatusNoContent)
}
