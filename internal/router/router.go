package router

import (
	"database/sql"
	"time"

	"stacks_inventory_backend/internal/handlers"
	"stacks_inventory_backend/internal/middleware"
	"stacks_inventory_backend/internal/repositories"
	"stacks_inventory_backend/internal/services"
	"stacks_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application and wires the full
// dependency graph. It returns the occupancy dispatcher so main can
// drain it on shutdown.
func Setup(engine *gin.Engine, db *sql.DB) services.OccupancyDispatcher {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	locationRepo := repositories.NewLocationRepository(db)
	containerRepo := repositories.NewContainerRepository(db)
	discrepancyRepo := repositories.NewDiscrepancyRepository(db)

	// Initialize Services
	jwtSecret := utils.Getenv("JWT_SECRET", "stacks-inventory-dev-secret")
	jwtExpiration := time.Hour * 72

	authService := services.NewAuthService(authRepo, db, jwtSecret, jwtExpiration)
	capacityService := services.NewCapacityService(locationRepo)
	dispatcher := services.NewOccupancyDispatcher(capacityService, locationRepo)
	addressService := services.NewAddressService(locationRepo, db)
	shelfService := services.NewShelfService(locationRepo, containerRepo, addressService, db)
	moveService := services.NewMoveService(containerRepo, locationRepo, discrepancyRepo, dispatcher, db)
	shelvingService := services.NewShelvingService(containerRepo, locationRepo, discrepancyRepo, dispatcher, db)
	discrepancyService := services.NewDiscrepancyService(discrepancyRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	shelfHandler := handlers.NewShelfHandler(shelfService, addressService)
	moveHandler := handlers.NewMoveHandler(moveService)
	shelvingHandler := handlers.NewShelvingHandler(shelvingService)
	discrepancyHandler := handlers.NewDiscrepancyHandler(discrepancyService)

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupShelfRoutes(authenticated, shelfHandler)
		SetupMoveRoutes(authenticated, moveHandler)
		SetupShelvingRoutes(authenticated, shelvingHandler)
		SetupDiscrepancyRoutes(authenticated, discrepancyHandler)
	}

	return dispatcher
}
