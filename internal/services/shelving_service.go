package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
	"stacks_inventory_backend/pkg/utils"
)

var (
	// ErrShelvingJobNotFound: the referenced shelving job does not exist.
	ErrShelvingJobNotFound = errors.New("shelving job not found")

	// ErrShelvingRejected wraps shelving validation failures recorded to
	// the shelving-job discrepancy ledger.
	ErrShelvingRejected = errors.New("shelving assignment rejected")
)

// AssignRequest places one container of a shelving job onto the position
// the operator actually scanned.
type AssignRequest struct {
	ContainerBarcode string `json:"container_barcode" binding:"required"`
	ShelfBarcode     string `json:"shelf_barcode" binding:"required"`
	PositionNumber   int    `json:"position_number" binding:"required,gt=0"`
	AssignedUserID   *int64 `json:"-"`
}

// ProposeRequest asks for machine-proposed positions for every unshelved
// container on a job, optionally scoped to the job's building.
type ProposeRequest struct {
	UseBuildingScope bool `json:"use_building_scope"`
}

// ProposeResult reports what the proposal pass managed to place.
type ProposeResult struct {
	TraysProposed        int `json:"trays_proposed"`
	NonTrayItemsProposed int `json:"non_tray_items_proposed"`
	Unplaced             int `json:"unplaced"`
}

// ShelvingService runs the shelving-job flows: machine proposal of free
// positions, and validated placement of containers on operator-scanned
// positions with discrepancy recording on every mismatch.
type ShelvingService interface {
	AssignToShelf(jobID int64, req AssignRequest) error
	ProposePositions(jobID int64, req ProposeRequest) (*ProposeResult, error)
}

type shelvingService struct {
	containerRepo   repositories.ContainerRepository
	locationRepo    repositories.LocationRepository
	discrepancyRepo repositories.DiscrepancyRepository
	dispatcher      OccupancyDispatcher
	db              *sql.DB
}

// NewShelvingService creates a new instance of ShelvingService.
func NewShelvingService(
	containerRepo repositories.ContainerRepository,
	locationRepo repositories.LocationRepository,
	discrepancyRepo repositories.DiscrepancyRepository,
	dispatcher OccupancyDispatcher,
	db *sql.DB,
) ShelvingService {
	return &shelvingService{
		containerRepo:   containerRepo,
		locationRepo:    locationRepo,
		discrepancyRepo: discrepancyRepo,
		dispatcher:      dispatcher,
		db:              db,
	}
}

// AssignToShelf validates the operator's scan against the destination
// shelf and records a shelving-job discrepancy for every violation:
// owner mismatch (takes precedence), size mismatch, exhausted space, and
// a Location discrepancy when the scan lands somewhere other than the
// machine-proposed position. The placement itself still goes through in
// the location-mismatch case; the ledger row is the escalation.
func (s *shelvingService) AssignToShelf(jobID int64, req AssignRequest) error {
	job, err := s.containerRepo.GetShelvingJobByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrShelvingJobNotFound, jobID)
		}
		return err
	}

	tray, trayErr := s.containerRepo.GetTrayByBarcodeValue(req.ContainerBarcode)
	if trayErr == nil {
		return s.assignResolved(job, trayAsMoving(tray), tray.ShelfPositionProposedID, req)
	}
	if !errors.Is(trayErr, repositories.ErrNotFound) {
		return trayErr
	}
	nonTray, err := s.containerRepo.GetNonTrayItemByBarcodeValue(req.ContainerBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrContainerNotFound, req.ContainerBarcode)
		}
		return err
	}
	return s.assignResolved(job, nonTrayAsMoving(nonTray), nonTray.ShelfPositionProposedID, req)
}

func (s *shelvingService) assignResolved(job *models.ShelvingJob, container movingContainer, proposedPositionID *int64, req AssignRequest) error {
	if container.withdrawn {
		return s.rejectShelving(job, container, req.AssignedUserID, nil, nil,
			models.DiscrepancyNotShelved, "container barcode is withdrawn")
	}
	if !container.scannedForAccession || !container.scannedForVerify {
		return s.rejectShelving(job, container, req.AssignedUserID, nil, nil,
			models.DiscrepancyNotAccessioned, "container has not completed accession and verification")
	}

	shelf, err := s.locationRepo.GetShelfByBarcodeValue(req.ShelfBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.rejectShelving(job, container, req.AssignedUserID, nil, nil,
				models.DiscrepancyLocation, fmt.Sprintf("shelf %s not found", req.ShelfBarcode))
		}
		return err
	}
	position, err := s.locationRepo.GetPositionByShelfAndNumber(shelf.ID, req.PositionNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.rejectShelving(job, container, req.AssignedUserID, nil, shelf.Location,
				models.DiscrepancyLocation,
				fmt.Sprintf("shelf %s has no position %d", req.ShelfBarcode, req.PositionNumber))
		}
		return err
	}

	proposedLocation, err := s.locationFor(proposedPositionID)
	if err != nil {
		return err
	}

	// Owner precedence over size when both mismatch.
	shelfType, err := s.locationRepo.GetShelfTypeByID(shelf.ShelfTypeID)
	if err != nil {
		return fmt.Errorf("loading shelf type %d: %w", shelf.ShelfTypeID, err)
	}
	ownerMismatch := shelf.OwnerID != nil && !int64PtrEqual(shelf.OwnerID, container.ownerID)
	sizeMismatch := shelfType.SizeClassID != container.sizeClassID
	switch {
	case ownerMismatch && sizeMismatch:
		return s.rejectShelving(job, container, req.AssignedUserID, proposedLocation, position.Location,
			models.DiscrepancyOwner, "shelf belongs to a different owner and size class")
	case ownerMismatch:
		return s.rejectShelving(job, container, req.AssignedUserID, proposedLocation, position.Location,
			models.DiscrepancyOwner, "shelf belongs to a different owner")
	case sizeMismatch:
		return s.rejectShelving(job, container, req.AssignedUserID, proposedLocation, position.Location,
			models.DiscrepancySize, "shelf accepts a different size class")
	}

	if shelf.AvailableSpace < 1 {
		return s.rejectShelving(job, container, req.AssignedUserID, proposedLocation, position.Location,
			models.DiscrepancyAvailableSpace,
			fmt.Sprintf("shelf %s reports no available space", req.ShelfBarcode))
	}

	if err := s.ensureUnoccupied(position.ID, container); err != nil {
		return err
	}

	// The scan landed somewhere other than the proposal: placement still
	// proceeds, but the deviation is ledgered for the supervisor.
	if proposedPositionID != nil && *proposedPositionID != position.ID {
		s.recordLocationDeviation(job, container, req.AssignedUserID, proposedLocation, position.Location)
	}

	oldPositionID := container.shelfPositionID
	if err := s.commitAssignment(container, position.ID, job.ID); err != nil {
		return err
	}

	s.dispatcher.Enqueue(oldPositionID, &position.ID)
	return nil
}

func (s *shelvingService) locationFor(positionID *int64) (*string, error) {
	if positionID == nil {
		return nil, nil
	}
	position, err := s.locationRepo.GetPositionByID(*positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return position.Location, nil
}

func (s *shelvingService) ensureUnoccupied(positionID int64, container movingContainer) error {
	occupyingTray, err := s.containerRepo.GetTrayAtPosition(positionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if occupyingTray != nil && (container.trayID == nil || occupyingTray.ID != *container.trayID) {
		return fmt.Errorf("%w: position %d", ErrPositionOccupied, positionID)
	}
	occupyingNonTray, err := s.containerRepo.GetNonTrayItemAtPosition(positionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if occupyingNonTray != nil && (container.nonTrayItemID == nil || occupyingNonTray.ID != *container.nonTrayItemID) {
		return fmt.Errorf("%w: position %d", ErrPositionOccupied, positionID)
	}
	return nil
}

func (s *shelvingService) commitAssignment(container movingContainer, positionID, jobID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning shelving transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if container.trayID != nil {
		tray, err := s.containerRepo.GetTrayByID(*container.trayID)
		if err != nil {
			return err
		}
		tray.ShelfPositionID = &positionID
		tray.ScannedForShelving = true
		tray.ShelvedDt = &now
		err = s.containerRepo.UpdateTrayShelvingState(tx, tray)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: position %d", ErrPositionOccupied, positionID)
			}
			return err
		}
	} else {
		item, err := s.containerRepo.GetNonTrayItemByID(*container.nonTrayItemID)
		if err != nil {
			return err
		}
		item.ShelfPositionID = &positionID
		item.ScannedForShelving = true
		item.ShelvedDt = &now
		err = s.containerRepo.UpdateNonTrayItemShelvingState(tx, item)
		if err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return fmt.Errorf("%w: position %d", ErrPositionOccupied, positionID)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing shelving transaction: %w", err)
	}
	utils.LogInfo(fmt.Sprintf("shelving job %d: container placed on position %d", jobID, positionID))
	return nil
}

func (s *shelvingService) recordLocationDeviation(job *models.ShelvingJob, container movingContainer, userID *int64, proposedLocation, actualLocation *string) {
	discrepancy := &models.ShelvingJobDiscrepancy{
		ShelvingJobID:       job.ID,
		TrayID:              container.trayID,
		NonTrayItemID:       container.nonTrayItemID,
		AssignedUserID:      userID,
		OwnerID:             container.ownerID,
		SizeClassID:         &container.sizeClassID,
		PreAssignedLocation: proposedLocation,
		AssignedLocation:    actualLocation,
		Error:               fmt.Sprintf("%s: container shelved away from its proposed position", models.DiscrepancyLocation),
	}
	if _, err := s.discrepancyRepo.CreateShelvingJobDiscrepancy(nil, discrepancy); err != nil {
		utils.LogError(err, "recording shelving location deviation")
	}
}

func (s *shelvingService) rejectShelving(job *models.ShelvingJob, container movingContainer, userID *int64, proposedLocation, actualLocation *string, kind models.DiscrepancyKind, reason string) error {
	discrepancy := &models.ShelvingJobDiscrepancy{
		ShelvingJobID:       job.ID,
		TrayID:              container.trayID,
		NonTrayItemID:       container.nonTrayItemID,
		AssignedUserID:      userID,
		OwnerID:             container.ownerID,
		SizeClassID:         &container.sizeClassID,
		PreAssignedLocation: proposedLocation,
		AssignedLocation:    actualLocation,
		Error:               fmt.Sprintf("%s: %s", kind, reason),
	}
	if _, err := s.discrepancyRepo.CreateShelvingJobDiscrepancy(nil, discrepancy); err != nil {
		utils.LogError(err, "recording shelving job discrepancy")
		return fmt.Errorf("%w: %s (discrepancy recording failed)", ErrShelvingRejected, reason)
	}
	return fmt.Errorf("%w: %s", ErrShelvingRejected, discrepancy.Error)
}

// ProposePositions walks the job's unshelved containers and assigns each
// a free compatible position as both the proposal and the initial
// placement, oldest shelves first. Containers that cannot be placed are
// counted, not failed: proposal is best effort.
func (s *shelvingService) ProposePositions(jobID int64, req ProposeRequest) (*ProposeResult, error) {
	job, err := s.containerRepo.GetShelvingJobByID(jobID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrShelvingJobNotFound, jobID)
		}
		return nil, err
	}

	var buildingScope *int64
	if req.UseBuildingScope {
		buildingScope = job.BuildingID
	}

	trays, err := s.containerRepo.ListTraysByShelvingJob(jobID)
	if err != nil {
		return nil, err
	}
	nonTrays, err := s.containerRepo.ListNonTrayItemsByShelvingJob(jobID)
	if err != nil {
		return nil, err
	}

	result := &ProposeResult{}
	for i := range trays {
		tray := &trays[i]
		if tray.ShelfPositionID != nil || tray.ShelfPositionProposedID != nil || tray.BarcodeID == nil {
			continue
		}
		positionID, err := s.claimProposal(tray.OwnerID, tray.SizeClassID, buildingScope)
		if err != nil {
			return nil, err
		}
		if positionID == nil {
			result.Unplaced++
			continue
		}
		tray.ShelfPositionProposedID = positionID
		tray.ShelfPositionID = positionID
		now := time.Now()
		tray.ShelvedDt = &now
		if err := s.containerRepo.UpdateTrayShelvingState(s.db, tray); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				result.Unplaced++
				continue
			}
			return nil, err
		}
		s.dispatcher.Enqueue(nil, positionID)
		result.TraysProposed++
	}

	for i := range nonTrays {
		item := &nonTrays[i]
		if item.ShelfPositionID != nil || item.ShelfPositionProposedID != nil || item.BarcodeID == nil {
			continue
		}
		positionID, err := s.claimProposal(item.OwnerID, item.SizeClassID, buildingScope)
		if err != nil {
			return nil, err
		}
		if positionID == nil {
			result.Unplaced++
			continue
		}
		item.ShelfPositionProposedID = positionID
		item.ShelfPositionID = positionID
		now := time.Now()
		item.ShelvedDt = &now
		if err := s.containerRepo.UpdateNonTrayItemShelvingState(s.db, item); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				result.Unplaced++
				continue
			}
			return nil, err
		}
		s.dispatcher.Enqueue(nil, positionID)
		result.NonTrayItemsProposed++
	}

	utils.LogInfo(fmt.Sprintf("shelving job %d proposal: %d trays, %d non-tray items, %d unplaced",
		jobID, result.TraysProposed, result.NonTrayItemsProposed, result.Unplaced))
	return result, nil
}

// claimProposal fetches one candidate position. Re-queried per container
// because every successful claim removes the position from the candidate
// set.
func (s *shelvingService) claimProposal(ownerID *int64, sizeClassID int64, buildingID *int64) (*int64, error) {
	positions, err := s.locationRepo.FindAvailablePositions(ownerID, sizeClassID, buildingID, 1)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, nil
	}
	return &positions[0].ID, nil
}
