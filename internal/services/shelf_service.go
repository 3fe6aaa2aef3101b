package services

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
	"stacks_inventory_backend/pkg/utils"
)

var (
	// ErrShelfNotFound: no shelf for the given id or barcode.
	ErrShelfNotFound = errors.New("shelf not found")

	// ErrShelfTypeNotFound: no shelf type for the given id.
	ErrShelfTypeNotFound = errors.New("shelf type not found")

	// ErrShelfTypeInUse blocks deletion of a shelf type while any shelf
	// still references it.
	ErrShelfTypeInUse = errors.New("shelf type is referenced by existing shelves")

	// ErrDuplicateShelf: the shelf slot (ladder + shelf number) or the
	// barcode value is already taken.
	ErrDuplicateShelf = errors.New("shelf already exists")
)

// CreateShelfRequest carries everything needed to stand up a shelf with
// its positions.
type CreateShelfRequest struct {
	LadderID        int64           `json:"ladder_id" binding:"required"`
	ShelfNumberID   int64           `json:"shelf_number_id" binding:"required"`
	ShelfTypeID     int64           `json:"shelf_type_id" binding:"required"`
	ContainerTypeID int64           `json:"container_type_id" binding:"required"`
	OwnerID         *int64          `json:"owner_id,omitempty"`
	BarcodeValue    string          `json:"barcode_value" binding:"required"`
	Height          decimal.Decimal `json:"height" binding:"required"`
	Width           decimal.Decimal `json:"width" binding:"required"`
	Depth           decimal.Decimal `json:"depth" binding:"required"`
	SortPriority    *int16          `json:"sort_priority,omitempty"`
}

// CreateShelfTypeRequest defines a new shelf type.
type CreateShelfTypeRequest struct {
	Type        string `json:"type" binding:"required"`
	SizeClassID int64  `json:"size_class_id" binding:"required"`
	MaxCapacity int16  `json:"max_capacity" binding:"required,gt=0"`
}

// ShelfService owns shelf and shelf-type administration. Creating a
// shelf is the trigger for both derived subsystems: one position per
// capacity slot is bulk-created, addresses are derived for the shelf and
// every position, and available_space starts at full capacity.
type ShelfService interface {
	CreateShelf(req CreateShelfRequest) (*models.Shelf, error)
	GetShelf(shelfID int64) (*models.Shelf, error)
	CreateShelfType(req CreateShelfTypeRequest) (*models.ShelfType, error)
	DeleteShelfType(shelfTypeID int64) error
}

type shelfService struct {
	locationRepo   repositories.LocationRepository
	containerRepo  repositories.ContainerRepository
	addressService AddressService
	db             *sql.DB
}

// NewShelfService creates a new instance of ShelfService.
func NewShelfService(
	locationRepo repositories.LocationRepository,
	containerRepo repositories.ContainerRepository,
	addressService AddressService,
	db *sql.DB,
) ShelfService {
	return &shelfService{
		locationRepo:   locationRepo,
		containerRepo:  containerRepo,
		addressService: addressService,
		db:             db,
	}
}

const shelfBarcodeType = "Shelf"

// CreateShelf inserts the shelf, its barcode, and one position per
// capacity slot in a single transaction, then derives the addresses
// immediately after commit so the rows are never left without a
// location. A failed derivation fails the whole call loudly.
func (s *shelfService) CreateShelf(req CreateShelfRequest) (*models.Shelf, error) {
	shelfType, err := s.locationRepo.GetShelfTypeByID(req.ShelfTypeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrShelfTypeNotFound, req.ShelfTypeID)
		}
		return nil, err
	}

	barcodeTypeID, err := s.containerRepo.GetBarcodeTypeIDByName(shelfBarcodeType)
	if err != nil {
		return nil, fmt.Errorf("resolving shelf barcode type: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning shelf creation transaction: %w", err)
	}
	defer tx.Rollback()

	barcode := &models.Barcode{Value: req.BarcodeValue, TypeID: barcodeTypeID}
	if err := s.containerRepo.CreateBarcode(tx, barcode); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: barcode %s", ErrDuplicateShelf, req.BarcodeValue)
		}
		return nil, err
	}

	shelf := &models.Shelf{
		LadderID:        req.LadderID,
		ShelfNumberID:   req.ShelfNumberID,
		ShelfTypeID:     req.ShelfTypeID,
		ContainerTypeID: req.ContainerTypeID,
		OwnerID:         req.OwnerID,
		BarcodeID:       barcode.ID,
		Height:          req.Height,
		Width:           req.Width,
		Depth:           req.Depth,
		AvailableSpace:  int(shelfType.MaxCapacity),
		SortPriority:    req.SortPriority,
	}
	shelfID, err := s.locationRepo.CreateShelf(tx, shelf)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: ladder %d shelf number %d", ErrDuplicateShelf, req.LadderID, req.ShelfNumberID)
		}
		return nil, err
	}

	positionIDs := make([]int64, 0, shelfType.MaxCapacity)
	for number := 1; number <= int(shelfType.MaxCapacity); number++ {
		numberID, err := s.locationRepo.EnsurePositionNumber(tx, number)
		if err != nil {
			return nil, err
		}
		position := &models.ShelfPosition{ShelfID: shelfID, ShelfPositionNumberID: numberID}
		positionID, err := s.locationRepo.CreateShelfPosition(tx, position)
		if err != nil {
			return nil, err
		}
		positionIDs = append(positionIDs, positionID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing shelf creation: %w", err)
	}

	// Address derivation re-reads the freshly committed chain.
	if err := s.addressService.DeriveShelfAddress(shelfID); err != nil {
		return nil, err
	}
	for _, positionID := range positionIDs {
		if err := s.addressService.DerivePositionAddress(positionID); err != nil {
			return nil, err
		}
	}

	created, err := s.locationRepo.GetShelfByID(shelfID)
	if err != nil {
		return nil, fmt.Errorf("reloading created shelf %d: %w", shelfID, err)
	}
	utils.LogInfo(fmt.Sprintf("created shelf %d with %d positions", shelfID, len(positionIDs)))
	return created, nil
}

func (s *shelfService) GetShelf(shelfID int64) (*models.Shelf, error) {
	shelf, err := s.locationRepo.GetShelfByID(shelfID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrShelfNotFound, shelfID)
		}
		return nil, err
	}
	return shelf, nil
}

func (s *shelfService) CreateShelfType(req CreateShelfTypeRequest) (*models.ShelfType, error) {
	shelfType := &models.ShelfType{
		Type:        req.Type,
		SizeClassID: req.SizeClassID,
		MaxCapacity: req.MaxCapacity,
	}
	if _, err := s.locationRepo.CreateShelfType(shelfType); err != nil {
		return nil, err
	}
	return shelfType, nil
}

// DeleteShelfType refuses while any shelf references the type.
func (s *shelfService) DeleteShelfType(shelfTypeID int64) error {
	count, err := s.locationRepo.CountShelvesOfType(shelfTypeID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d shelves", ErrShelfTypeInUse, count)
	}
	if err := s.locationRepo.DeleteShelfType(shelfTypeID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrShelfTypeNotFound, shelfTypeID)
		}
		return err
	}
	return nil
}
