package router

import (
	"stacks_inventory_backend/internal/handlers"
	"stacks_inventory_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.RegisterUser)
		authRoutes.POST("/login", authHandler.LoginUser)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.POST("/logout", authHandler.LogoutUser)
			authRequiredRoutes.GET("/me", authHandler.GetCurrentUser)
		}
	}
}

// SetupShelfRoutes sets up shelf and shelf-type administration routes.
// Structure-changing operations are supervisor-only; reads are open to
// operators too.
func SetupShelfRoutes(authenticatedGroup *gin.RouterGroup, shelfHandler *handlers.ShelfHandler) {
	shelfWriteRoutes := authenticatedGroup.Group("/shelves")
	shelfWriteRoutes.Use(middleware.RoleAuthMiddleware("Supervisor"))
	{
		shelfWriteRoutes.POST("", shelfHandler.CreateShelf)
		shelfWriteRoutes.POST("/rebuild-addresses", shelfHandler.RebuildAddresses)
	}
	authenticatedGroup.GET("/shelves/:id", middleware.RoleAuthMiddleware("Supervisor", "Operator"), shelfHandler.GetShelf)

	shelfTypeRoutes := authenticatedGroup.Group("/shelf-types")
	shelfTypeRoutes.Use(middleware.RoleAuthMiddleware("Supervisor"))
	{
		shelfTypeRoutes.POST("", shelfHandler.CreateShelfType)
		shelfTypeRoutes.DELETE("/:id", shelfHandler.DeleteShelfType)
	}
}

// SetupMoveRoutes sets up the container move routes.
func SetupMoveRoutes(authenticatedGroup *gin.RouterGroup, moveHandler *handlers.MoveHandler) {
	moveRoutes := authenticatedGroup.Group("")
	moveRoutes.Use(middleware.RoleAuthMiddleware("Supervisor", "Operator"))
	{
		moveRoutes.POST("/trays/move/:barcode", moveHandler.MoveContainer)
		moveRoutes.POST("/non-tray-items/move/:barcode", moveHandler.MoveContainer)
		moveRoutes.POST("/items/move/:barcode", moveHandler.MoveItem)
	}
}

// SetupShelvingRoutes sets up the shelving-job routes.
func SetupShelvingRoutes(authenticatedGroup *gin.RouterGroup, shelvingHandler *handlers.ShelvingHandler) {
	shelvingRoutes := authenticatedGroup.Group("/shelving-jobs")
	shelvingRoutes.Use(middleware.RoleAuthMiddleware("Supervisor", "Operator"))
	{
		shelvingRoutes.POST("/:id/assign", shelvingHandler.AssignToShelf)
		shelvingRoutes.POST("/:id/propose", shelvingHandler.ProposePositions)
	}
}

// SetupDiscrepancyRoutes sets up the discrepancy ledger read routes.
func SetupDiscrepancyRoutes(authenticatedGroup *gin.RouterGroup, discrepancyHandler *handlers.DiscrepancyHandler) {
	discrepancyRoutes := authenticatedGroup.Group("")
	discrepancyRoutes.Use(middleware.RoleAuthMiddleware("Supervisor"))
	{
		discrepancyRoutes.GET("/move-discrepancies", discrepancyHandler.ListMoveDiscrepancies)
		discrepancyRoutes.GET("/shelving-job-discrepancies", discrepancyHandler.ListShelvingJobDiscrepancies)
	}
}
