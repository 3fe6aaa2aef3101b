package services

import (
	"fmt"
	"time"

	"stacks_inventory_backend/internal/repositories"
)

// CapacityService recomputes the cached available_space projection on a
// shelf. It never increments or decrements: every recompute re-derives
// the value from total positions minus occupied positions, so a stale or
// corrupted cache self-heals on the next run.
type CapacityService interface {
	Recalculate(shelfID int64) (int, error)
	RecalculateIn(executor repositories.SQLExecutor, shelfID int64) (int, error)
}

type capacityService struct {
	locationRepo repositories.LocationRepository
}

// NewCapacityService creates a new instance of CapacityService.
func NewCapacityService(locationRepo repositories.LocationRepository) CapacityService {
	return &capacityService{locationRepo: locationRepo}
}

// Recalculate re-derives available_space on its own connection. This is
// the form the occupancy dispatcher invokes from its worker pool.
func (s *capacityService) Recalculate(shelfID int64) (int, error) {
	return s.RecalculateIn(nil, shelfID)
}

// RecalculateIn re-derives available_space inside the caller's executor,
// for flows that need the fresh value visible within their transaction.
// A nil executor falls back to the repository's own connection.
func (s *capacityService) RecalculateIn(executor repositories.SQLExecutor, shelfID int64) (int, error) {
	total, err := s.locationRepo.CountPositions(executor, shelfID)
	if err != nil {
		return 0, fmt.Errorf("recalculating shelf %d: %w", shelfID, err)
	}
	occupied, err := s.locationRepo.CountOccupiedPositions(executor, shelfID)
	if err != nil {
		return 0, fmt.Errorf("recalculating shelf %d: %w", shelfID, err)
	}

	available := total - occupied
	if available < 0 {
		// Cannot happen while the occupancy counts come from the same
		// snapshot, but the projection must never go negative.
		available = 0
	}

	if err := s.locationRepo.UpdateShelfAvailableSpace(executor, shelfID, available, time.Now()); err != nil {
		return 0, fmt.Errorf("persisting shelf %d available space: %w", shelfID, err)
	}
	return available, nil
}
