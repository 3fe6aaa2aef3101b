package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
	"stacks_inventory_backend/pkg/utils"
)

var (
	// ErrBrokenAddressChain marks a shelf or position whose parent chain is
	// missing a link. The interactive path fails loudly on it; the bulk
	// path collects it into the rebuild report.
	ErrBrokenAddressChain = errors.New("address chain is broken")
)

// AddressRebuildError is one failed row in a bulk rebuild, keyed by the
// shelf (and position, when the failure was position-level).
type AddressRebuildError struct {
	ShelfID    int64  `json:"shelf_id"`
	PositionID *int64 `json:"position_id,omitempty"`
	Error      string `json:"error"`
}

// AddressRebuildReport summarizes a bulk address recompute.
type AddressRebuildReport struct {
	ShelvesProcessed int                   `json:"shelves_processed"`
	ShelvesUpdated   int                   `json:"shelves_updated"`
	PositionsUpdated int                   `json:"positions_updated"`
	Errors           []AddressRebuildError `json:"errors"`
}

// AddressService derives the human-readable location string and the
// id-chain internal location for shelves and shelf positions.
type AddressService interface {
	DeriveShelfAddress(shelfID int64) error
	DerivePositionAddress(positionID int64) error
	RebuildAllAddresses() (*AddressRebuildReport, error)
}

type addressService struct {
	locationRepo repositories.LocationRepository
	db           *sql.DB
}

// NewAddressService creates a new instance of AddressService.
func NewAddressService(locationRepo repositories.LocationRepository, db *sql.DB) AddressService {
	return &addressService{locationRepo: locationRepo, db: db}
}

// sideCodes is the closed orientation enum and its single-letter
// address code. The format locks the first letter into every derived
// address, so an unknown orientation is a corrupt side row, not a new
// name to abbreviate.
var sideCodes = map[string]string{
	"Left":  "L",
	"Right": "R",
}

// FormatLocation builds the display address from a resolved chain:
// building name, module number (omitted for building-parented aisles),
// aisle number, the side code, ladder number, shelf number, and the
// position number when present.
func FormatLocation(chain *models.ShelfAddressChain) (string, error) {
	sideCode, ok := sideCodes[chain.Orientation]
	if !ok {
		return "", fmt.Errorf("%w: side %d has orientation %q, want one of Left, Right",
			ErrBrokenAddressChain, chain.SideID, chain.Orientation)
	}
	segments := []string{chain.BuildingName}
	if chain.ModuleNumber != nil {
		segments = append(segments, *chain.ModuleNumber)
	}
	segments = append(segments,
		strconv.Itoa(chain.AisleNumber),
		sideCode,
		strconv.Itoa(chain.LadderNumber),
		strconv.Itoa(chain.ShelfNumber),
	)
	if chain.PositionNumber != nil {
		segments = append(segments, strconv.Itoa(*chain.PositionNumber))
	}
	return strings.Join(segments, "-"), nil
}

// FormatInternalLocation builds the id-chain address from a resolved
// chain. Ids, not display numbers: the result is collision-free even when
// number labels repeat across the hierarchy.
func FormatInternalLocation(chain *models.ShelfAddressChain) string {
	segments := []string{strconv.FormatInt(chain.BuildingID, 10)}
	if chain.ModuleID != nil {
		segments = append(segments, strconv.FormatInt(*chain.ModuleID, 10))
	}
	segments = append(segments,
		strconv.FormatInt(chain.AisleID, 10),
		strconv.FormatInt(chain.SideID, 10),
		strconv.FormatInt(chain.LadderID, 10),
		strconv.FormatInt(chain.ShelfID, 10),
	)
	if chain.PositionID != nil {
		segments = append(segments, strconv.FormatInt(*chain.PositionID, 10))
	}
	return strings.Join(segments, "-")
}

// DeriveShelfAddress recomputes and persists both address fields for one
// shelf. It runs right after the shelf insert commits, so the parent
// chain is guaranteed loadable; a missing link is a hard error.
func (s *addressService) DeriveShelfAddress(shelfID int64) error {
	chain, err := s.locationRepo.GetShelfAddressChain(shelfID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: shelf %d: %v", ErrBrokenAddressChain, shelfID, err)
		}
		return err
	}

	location, err := FormatLocation(chain)
	if err != nil {
		return err
	}
	internalLocation := FormatInternalLocation(chain)

	if err := s.locationRepo.UpdateShelfAddress(s.db, shelfID, location, internalLocation); err != nil {
		return fmt.Errorf("persisting shelf %d address: %w", shelfID, err)
	}
	utils.LogInfo(fmt.Sprintf("derived address for shelf %d: %s", shelfID, location))
	return nil
}

// DerivePositionAddress recomputes and persists both address fields for
// one shelf position.
func (s *addressService) DerivePositionAddress(positionID int64) error {
	chain, err := s.locationRepo.GetPositionAddressChain(positionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: position %d: %v", ErrBrokenAddressChain, positionID, err)
		}
		return err
	}

	location, err := FormatLocation(chain)
	if err != nil {
		return err
	}
	internalLocation := FormatInternalLocation(chain)

	if err := s.locationRepo.UpdatePositionAddress(s.db, positionID, location, internalLocation); err != nil {
		return fmt.Errorf("persisting position %d address: %w", positionID, err)
	}
	return nil
}

// RebuildAllAddresses walks every shelf and recomputes the address fields
// for the shelf and each of its positions. Broken rows are collected into
// the report and skipped; the rebuild never aborts on a single bad chain.
func (s *addressService) RebuildAllAddresses() (*AddressRebuildReport, error) {
	shelfIDs, err := s.locationRepo.ListShelfIDs()
	if err != nil {
		return nil, fmt.Errorf("listing shelves for rebuild: %w", err)
	}

	report := &AddressRebuildReport{Errors: []AddressRebuildError{}}
	for _, shelfID := range shelfIDs {
		report.ShelvesProcessed++

		chain, err := s.locationRepo.GetShelfAddressChain(shelfID)
		if err != nil {
			report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, Error: err.Error()})
			continue
		}
		location, err := FormatLocation(chain)
		if err != nil {
			report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, Error: err.Error()})
			continue
		}
		if err := s.locationRepo.UpdateShelfAddress(s.db, shelfID, location, FormatInternalLocation(chain)); err != nil {
			report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, Error: err.Error()})
			continue
		}
		report.ShelvesUpdated++

		positionIDs, err := s.locationRepo.ListPositionIDsByShelf(shelfID)
		if err != nil {
			report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, Error: err.Error()})
			continue
		}
		for _, positionID := range positionIDs {
			pid := positionID
			number, err := s.positionNumberFor(positionID)
			if err != nil {
				report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, PositionID: &pid, Error: err.Error()})
				continue
			}
			positionChain := *chain
			positionChain.PositionID = &pid
			positionChain.PositionNumber = &number

			positionLocation, err := FormatLocation(&positionChain)
			if err != nil {
				report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, PositionID: &pid, Error: err.Error()})
				continue
			}
			if err := s.locationRepo.UpdatePositionAddress(s.db, positionID, positionLocation, FormatInternalLocation(&positionChain)); err != nil {
				report.Errors = append(report.Errors, AddressRebuildError{ShelfID: shelfID, PositionID: &pid, Error: err.Error()})
				continue
			}
			report.PositionsUpdated++
		}
	}

	utils.LogInfo(fmt.Sprintf("address rebuild: %d shelves, %d positions, %d errors",
		report.ShelvesUpdated, report.PositionsUpdated, len(report.Errors)))
	return report, nil
}

func (s *addressService) positionNumberFor(positionID int64) (int, error) {
	position, err := s.locationRepo.GetPositionByID(positionID)
	if err != nil {
		return 0, err
	}
	return s.locationRepo.GetPositionNumber(position.ShelfPositionNumberID)
}
