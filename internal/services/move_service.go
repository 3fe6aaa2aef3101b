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
	// ErrContainerNotFound: the scanned barcode resolves to nothing. No
	// discrepancy row — there is no container to attribute it to.
	ErrContainerNotFound = errors.New("container not found for barcode")

	// ErrMoveRejected wraps every validation failure that produced a
	// discrepancy row. The ledger row is already committed by the time
	// this error reaches the caller.
	ErrMoveRejected = errors.New("move rejected")

	// ErrPositionOccupied: the destination position was claimed between
	// validation and commit. A timing artifact, not an operational
	// anomaly — rejected without a discrepancy row.
	ErrPositionOccupied = errors.New("shelf position already occupied")
)

// MoveContainerRequest relocates a shelved tray or non-tray item to a
// scanned destination: the shelf barcode plus a position number on it.
type MoveContainerRequest struct {
	ContainerBarcode string `json:"container_barcode" binding:"required"`
	ShelfBarcode     string `json:"shelf_barcode" binding:"required"`
	PositionNumber   int    `json:"position_number" binding:"required,gt=0"`
	AssignedUserID   *int64 `json:"-"`
}

// MoveItemRequest relocates a single item into a destination tray.
type MoveItemRequest struct {
	ItemBarcode    string `json:"item_barcode" binding:"required"`
	TrayBarcode    string `json:"tray_barcode" binding:"required"`
	AssignedUserID *int64 `json:"-"`
}

// MoveService implements the validated container relocation protocol.
// Preconditions are checked in a fixed order; each failure records a
// distinct discrepancy kind before rejecting, because supervisors read
// the ledger, not validation errors.
type MoveService interface {
	MoveContainer(req MoveContainerRequest) (*models.Tray, *models.NonTrayItem, error)
	MoveItem(req MoveItemRequest) (*models.Item, error)
}

type moveService struct {
	containerRepo   repositories.ContainerRepository
	locationRepo    repositories.LocationRepository
	discrepancyRepo repositories.DiscrepancyRepository
	dispatcher      OccupancyDispatcher
	db              *sql.DB
}

// NewMoveService creates a new instance of MoveService.
func NewMoveService(
	containerRepo repositories.ContainerRepository,
	locationRepo repositories.LocationRepository,
	discrepancyRepo repositories.DiscrepancyRepository,
	dispatcher OccupancyDispatcher,
	db *sql.DB,
) MoveService {
	return &moveService{
		containerRepo:   containerRepo,
		locationRepo:    locationRepo,
		discrepancyRepo: discrepancyRepo,
		dispatcher:      dispatcher,
		db:              db,
	}
}

// movingContainer is the tray/non-tray subset the precondition chain
// needs, so both container kinds share one validation path.
type movingContainer struct {
	trayID              *int64
	nonTrayItemID       *int64
	containerTypeID     int64
	ownerID             *int64
	sizeClassID         int64
	shelfPositionID     *int64
	withdrawn           bool
	scannedForAccession bool
	scannedForVerify    bool
}

func trayAsMoving(t *models.Tray) movingContainer {
	return movingContainer{
		trayID:              &t.ID,
		containerTypeID:     t.ContainerTypeID,
		ownerID:             t.OwnerID,
		sizeClassID:         t.SizeClassID,
		shelfPositionID:     t.ShelfPositionID,
		withdrawn:           t.BarcodeID == nil,
		scannedForAccession: t.ScannedForAccession,
		scannedForVerify:    t.ScannedForVerification,
	}
}

func nonTrayAsMoving(n *models.NonTrayItem) movingContainer {
	return movingContainer{
		nonTrayItemID:       &n.ID,
		containerTypeID:     n.ContainerTypeID,
		ownerID:             n.OwnerID,
		sizeClassID:         n.SizeClassID,
		shelfPositionID:     n.ShelfPositionID,
		withdrawn:           n.BarcodeID == nil,
		scannedForAccession: n.ScannedForAccession,
		scannedForVerify:    n.ScannedForVerification,
	}
}

// MoveContainer resolves the scanned barcode to a tray first, then to a
// non-tray item, and runs the move. Exactly one of the returned
// containers is non-nil on success.
func (s *moveService) MoveContainer(req MoveContainerRequest) (*models.Tray, *models.NonTrayItem, error) {
	tray, err := s.containerRepo.GetTrayByBarcodeValue(req.ContainerBarcode)
	if err == nil {
		if moveErr := s.moveResolved(trayAsMoving(tray), req); moveErr != nil {
			return nil, nil, moveErr
		}
		moved, err := s.containerRepo.GetTrayByID(tray.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("reloading moved tray %d: %w", tray.ID, err)
		}
		return moved, nil, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, err
	}

	nonTray, err := s.containerRepo.GetNonTrayItemByBarcodeValue(req.ContainerBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: %s", ErrContainerNotFound, req.ContainerBarcode)
		}
		return nil, nil, err
	}
	if moveErr := s.moveResolved(nonTrayAsMoving(nonTray), req); moveErr != nil {
		return nil, nil, moveErr
	}
	moved, err := s.containerRepo.GetNonTrayItemByID(nonTray.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("reloading moved non-tray item %d: %w", nonTray.ID, err)
	}
	return nil, moved, nil
}

// moveResolved runs the ordered precondition chain and, when every gate
// passes, commits the relocation and hands the position pair to the
// dispatcher.
func (s *moveService) moveResolved(container movingContainer, req MoveContainerRequest) error {
	if !container.scannedForAccession || !container.scannedForVerify {
		return s.reject(container, req.AssignedUserID, nil, models.DiscrepancyNotAccessioned,
			"container has not completed accession and verification")
	}

	if container.withdrawn || container.shelfPositionID == nil {
		return s.reject(container, req.AssignedUserID, nil, models.DiscrepancyNotShelved,
			"container is not currently shelved")
	}
	sourcePosition, err := s.locationRepo.GetPositionByID(*container.shelfPositionID)
	if err != nil {
		return fmt.Errorf("loading source position %d: %w", *container.shelfPositionID, err)
	}

	destShelf, err := s.locationRepo.GetShelfByBarcodeValue(req.ShelfBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.reject(container, req.AssignedUserID, sourcePosition.Location, models.DiscrepancyLocation,
				fmt.Sprintf("destination shelf %s not found", req.ShelfBarcode))
		}
		return err
	}
	destPosition, err := s.locationRepo.GetPositionByShelfAndNumber(destShelf.ID, req.PositionNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.rejectAt(container, req.AssignedUserID, sourcePosition.Location, destShelf.Location,
				models.DiscrepancyLocation,
				fmt.Sprintf("shelf %s has no position %d", req.ShelfBarcode, req.PositionNumber))
		}
		return err
	}

	sourceShelf, err := s.locationRepo.GetShelfByID(sourcePosition.ShelfID)
	if err != nil {
		return fmt.Errorf("loading source shelf %d: %w", sourcePosition.ShelfID, err)
	}
	kind, reason, mismatch, err := s.shelfCompatibility(sourceShelf, destShelf)
	if err != nil {
		return err
	}
	if mismatch {
		return s.rejectAt(container, req.AssignedUserID, sourcePosition.Location, destPosition.Location, kind, reason)
	}

	if destShelf.AvailableSpace < 1 {
		return s.rejectAt(container, req.AssignedUserID, sourcePosition.Location, destPosition.Location,
			models.DiscrepancyAvailableSpace,
			fmt.Sprintf("shelf %s reports no available space", req.ShelfBarcode))
	}

	if occupied, err := s.positionOccupiedByOther(destPosition.ID, container); err != nil {
		return err
	} else if occupied {
		return fmt.Errorf("%w: position %d on shelf %s", ErrPositionOccupied, req.PositionNumber, req.ShelfBarcode)
	}

	oldPositionID := *container.shelfPositionID
	if err := s.commitRelocation(container, sourceShelf.ID, destShelf.ID, destPosition.ID); err != nil {
		return err
	}

	s.dispatcher.Enqueue(&oldPositionID, &destPosition.ID)
	return nil
}

// shelfCompatibility enforces step 5: shelf-to-shelf moves stay within
// one owner and one size class. An owner mismatch takes precedence when
// both differ.
func (s *moveService) shelfCompatibility(source, dest *models.Shelf) (models.DiscrepancyKind, string, bool, error) {
	ownerMismatch := !int64PtrEqual(source.OwnerID, dest.OwnerID)

	sourceType, err := s.locationRepo.GetShelfTypeByID(source.ShelfTypeID)
	if err != nil {
		return "", "", false, fmt.Errorf("loading source shelf type %d: %w", source.ShelfTypeID, err)
	}
	destType, err := s.locationRepo.GetShelfTypeByID(dest.ShelfTypeID)
	if err != nil {
		return "", "", false, fmt.Errorf("loading destination shelf type %d: %w", dest.ShelfTypeID, err)
	}
	sizeMismatch := sourceType.SizeClassID != destType.SizeClassID

	switch {
	case ownerMismatch && sizeMismatch:
		return models.DiscrepancyOwner, "destination shelf belongs to a different owner and size class", true, nil
	case ownerMismatch:
		return models.DiscrepancyOwner, "destination shelf belongs to a different owner", true, nil
	case sizeMismatch:
		return models.DiscrepancySize, "destination shelf accepts a different size class", true, nil
	}
	return "", "", false, nil
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// positionOccupiedByOther probes both container tables for a current
// occupant of the position, excluding the moving container itself (a
// re-scan of its own slot is not a conflict).
func (s *moveService) positionOccupiedByOther(positionID int64, mover movingContainer) (bool, error) {
	occupyingTray, err := s.containerRepo.GetTrayAtPosition(positionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	if occupyingTray != nil {
		if mover.trayID == nil || occupyingTray.ID != *mover.trayID {
			return true, nil
		}
	}

	occupyingNonTray, err := s.containerRepo.GetNonTrayItemAtPosition(positionID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return false, err
	}
	if occupyingNonTray != nil {
		if mover.nonTrayItemID == nil || occupyingNonTray.ID != *mover.nonTrayItemID {
			return true, nil
		}
	}
	return false, nil
}

// commitRelocation performs the write inside one transaction: container
// position, then update_dt on both shelves. The partial unique index on
// shelf_position_id backstops the occupancy probe; a losing race comes
// back as ErrPositionOccupied.
func (s *moveService) commitRelocation(container movingContainer, sourceShelfID, destShelfID, destPositionID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning move transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if container.trayID != nil {
		err = s.containerRepo.UpdateTrayPosition(tx, *container.trayID, &destPositionID, &now)
	} else {
		err = s.containerRepo.UpdateNonTrayItemPosition(tx, *container.nonTrayItemID, &destPositionID, &now)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return fmt.Errorf("%w: position %d", ErrPositionOccupied, destPositionID)
		}
		return err
	}

	if err := s.locationRepo.TouchShelf(tx, sourceShelfID, now); err != nil {
		return err
	}
	if destShelfID != sourceShelfID {
		if err := s.locationRepo.TouchShelf(tx, destShelfID, now); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing move transaction: %w", err)
	}
	return nil
}

// reject records a discrepancy attributed to the container and returns
// ErrMoveRejected. The ledger insert runs on its own connection so it
// commits regardless of the rejected move.
func (s *moveService) reject(container movingContainer, userID *int64, sourceLocation *string, kind models.DiscrepancyKind, reason string) error {
	return s.rejectAt(container, userID, sourceLocation, nil, kind, reason)
}

func (s *moveService) rejectAt(container movingContainer, userID *int64, sourceLocation, destLocation *string, kind models.DiscrepancyKind, reason string) error {
	discrepancy := &models.MoveDiscrepancy{
		TrayID:                   container.trayID,
		NonTrayItemID:            container.nonTrayItemID,
		ContainerTypeID:          &container.containerTypeID,
		AssignedUserID:           userID,
		OwnerID:                  container.ownerID,
		SizeClassID:              &container.sizeClassID,
		OriginalAssignedLocation: sourceLocation,
		CurrentAssignedLocation:  destLocation,
		Error:                    fmt.Sprintf("%s: %s", kind, reason),
	}
	if _, err := s.discrepancyRepo.CreateMoveDiscrepancy(nil, discrepancy); err != nil {
		utils.LogError(err, "recording move discrepancy")
		return fmt.Errorf("%w: %s (discrepancy recording failed)", ErrMoveRejected, reason)
	}
	return fmt.Errorf("%w: %s", ErrMoveRejected, discrepancy.Error)
}

// MoveItem relocates one item into a destination tray. When the last
// item leaves its source tray, the tray is withdrawn: an empty tray
// never continues to occupy a shelf position.
func (s *moveService) MoveItem(req MoveItemRequest) (*models.Item, error) {
	item, err := s.containerRepo.GetItemByBarcodeValue(req.ItemBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrContainerNotFound, req.ItemBarcode)
		}
		return nil, err
	}

	if !item.ScannedForAccession || !item.ScannedForVerification {
		return nil, s.rejectItem(item, req.AssignedUserID, models.DiscrepancyNotAccessioned,
			"item has not completed accession and verification")
	}
	if item.BarcodeID == nil {
		return nil, s.rejectItem(item, req.AssignedUserID, models.DiscrepancyNotShelved,
			"item barcode is withdrawn")
	}

	destTray, err := s.containerRepo.GetTrayByBarcodeValue(req.TrayBarcode)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, s.rejectItem(item, req.AssignedUserID, models.DiscrepancyLocation,
				fmt.Sprintf("destination tray %s not found", req.TrayBarcode))
		}
		return nil, err
	}
	if destTray.BarcodeID == nil || destTray.ShelfPositionID == nil {
		return nil, s.rejectItem(item, req.AssignedUserID, models.DiscrepancyNotShelved,
			fmt.Sprintf("destination tray %s is not shelved", req.TrayBarcode))
	}
	if item.SizeClassID != destTray.SizeClassID {
		return nil, s.rejectItem(item, req.AssignedUserID, models.DiscrepancySize,
			fmt.Sprintf("destination tray %s holds a different size class", req.TrayBarcode))
	}

	var sourceTray *models.Tray
	if item.TrayID != nil && *item.TrayID != destTray.ID {
		sourceTray, err = s.containerRepo.GetTrayByID(*item.TrayID)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning item move transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.containerRepo.UpdateItemTray(tx, item.ID, &destTray.ID, "In"); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item move transaction: %w", err)
	}

	if sourceTray != nil {
		if err := s.withdrawTrayIfEmpty(sourceTray); err != nil {
			utils.LogError(err, fmt.Sprintf("withdrawing emptied tray %d", sourceTray.ID))
		}
	}

	moved, err := s.containerRepo.GetItemByBarcodeValue(req.ItemBarcode)
	if err != nil {
		return nil, fmt.Errorf("reloading moved item: %w", err)
	}
	return moved, nil
}

// withdrawTrayIfEmpty retires a tray that just lost its last item,
// clearing its position references and marking the barcode withdrawn,
// then notifies the dispatcher about the freed position.
func (s *moveService) withdrawTrayIfEmpty(tray *models.Tray) error {
	count, err := s.containerRepo.CountItemsInTray(tray.ID)
	if err != nil {
		return err
	}
	if count > 0 || tray.BarcodeID == nil {
		return nil
	}

	oldPositionID := tray.ShelfPositionID

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning tray withdrawal transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.containerRepo.WithdrawTray(tx, tray.ID, *tray.BarcodeID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tray withdrawal: %w", err)
	}

	if oldPositionID != nil {
		s.dispatcher.Enqueue(oldPositionID, nil)
	}
	utils.LogInfo(fmt.Sprintf("tray %d withdrawn after last item left", tray.ID))
	return nil
}

func (s *moveService) rejectItem(item *models.Item, userID *int64, kind models.DiscrepancyKind, reason string) error {
	discrepancy := &models.MoveDiscrepancy{
		ItemID:         &item.ID,
		AssignedUserID: userID,
		OwnerID:        item.OwnerID,
		SizeClassID:    &item.SizeClassID,
		Error:          fmt.Sprintf("%s: %s", kind, reason),
	}
	if _, err := s.discrepancyRepo.CreateMoveDiscrepancy(nil, discrepancy); err != nil {
		utils.LogError(err, "recording item move discrepancy")
		return fmt.Errorf("%w: %s (discrepancy recording failed)", ErrMoveRejected, reason)
	}
	return fmt.Errorf("%w: %s", ErrMoveRejected, discrepancy.Error)
}
