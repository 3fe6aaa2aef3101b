package services

import (
	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
)

// DiscrepancyService is the read side of the discrepancy ledger.
type DiscrepancyService interface {
	ListMoveDiscrepancies(filters models.DiscrepancyFilters) ([]models.MoveDiscrepancy, error)
	ListShelvingJobDiscrepancies(filters models.DiscrepancyFilters) ([]models.ShelvingJobDiscrepancy, error)
}

type discrepancyService struct {
	discrepancyRepo repositories.DiscrepancyRepository
}

// NewDiscrepancyService creates a new instance of DiscrepancyService.
func NewDiscrepancyService(discrepancyRepo repositories.DiscrepancyRepository) DiscrepancyService {
	return &discrepancyService{discrepancyRepo: discrepancyRepo}
}

func (s *discrepancyService) ListMoveDiscrepancies(filters models.DiscrepancyFilters) ([]models.MoveDiscrepancy, error) {
	return s.discrepancyRepo.ListMoveDiscrepancies(filters)
}

func (s *discrepancyService) ListShelvingJobDiscrepancies(filters models.DiscrepancyFilters) ([]models.ShelvingJobDiscrepancy, error) {
	return s.discrepancyRepo.ListShelvingJobDiscrepancies(filters)
}
