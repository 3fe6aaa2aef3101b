package models

import (
	"time"

	"github.com/google/uuid"
)

// Barcode rows are shared by shelves, trays, non-tray items and items.
// A withdrawn barcode is terminal: the container it belonged to can never
// be moved or re-shelved.
type Barcode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Value     string    `json:"value" db:"value" binding:"required"`
	TypeID    int64     `json:"type_id" db:"type_id"`
	Withdrawn bool      `json:"withdrawn" db:"withdrawn"`
	CreateDt  time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt  time.Time `json:"update_dt" db:"update_dt"`
}

// ContainerType distinguishes trays from non-tray items.
type ContainerType struct {
	ID       int64     `json:"id" db:"id"`
	Type     string    `json:"type" db:"type" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// Owner is the institution or collection owning containers and shelves.
type Owner struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// SizeClass groups containers and shelves by physical size compatibility.
type SizeClass struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" binding:"required"`
	ShortName string    `json:"short_name" db:"short_name"`
	CreateDt  time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt  time.Time `json:"update_dt" db:"update_dt"`
}

// Tray is a shelvable container holding items. A tray is shelved iff
// ShelfPositionID is non-nil; a tray with a withdrawn barcode is terminal.
// ShelfPositionProposedID holds the machine-proposed assignment, compared
// against the operator's actual scan to raise location discrepancies.
type Tray struct {
	ID                      int64      `json:"id" db:"id"`
	BarcodeID               *uuid.UUID `json:"barcode_id,omitempty" db:"barcode_id"`
	WithdrawnBarcodeID      *uuid.UUID `json:"withdrawn_barcode_id,omitempty" db:"withdrawn_barcode_id"`
	ContainerTypeID         int64      `json:"container_type_id" db:"container_type_id"`
	OwnerID                 *int64     `json:"owner_id,omitempty" db:"owner_id"`
	SizeClassID             int64      `json:"size_class_id" db:"size_class_id"`
	ShelvingJobID           *int64     `json:"shelving_job_id,omitempty" db:"shelving_job_id"`
	ShelfPositionID         *int64     `json:"shelf_position_id,omitempty" db:"shelf_position_id"`
	ShelfPositionProposedID *int64     `json:"shelf_position_proposed_id,omitempty" db:"shelf_position_proposed_id"`
	ScannedForAccession     bool       `json:"scanned_for_accession" db:"scanned_for_accession"`
	ScannedForVerification  bool       `json:"scanned_for_verification" db:"scanned_for_verification"`
	ScannedForShelving      bool       `json:"scanned_for_shelving" db:"scanned_for_shelving"`
	ShelvedDt               *time.Time `json:"shelved_dt,omitempty" db:"shelved_dt"`
	CreateDt                time.Time  `json:"create_dt" db:"create_dt"`
	UpdateDt                time.Time  `json:"update_dt" db:"update_dt"`
}

// NonTrayItem is an item shelved directly, without a tray. It occupies a
// shelf position under the same rules as a tray.
type NonTrayItem struct {
	ID                      int64      `json:"id" db:"id"`
	BarcodeID               *uuid.UUID `json:"barcode_id,omitempty" db:"barcode_id"`
	WithdrawnBarcodeID      *uuid.UUID `json:"withdrawn_barcode_id,omitempty" db:"withdrawn_barcode_id"`
	ContainerTypeID         int64      `json:"container_type_id" db:"container_type_id"`
	OwnerID                 *int64     `json:"owner_id,omitempty" db:"owner_id"`
	SizeClassID             int64      `json:"size_class_id" db:"size_class_id"`
	ShelvingJobID           *int64     `json:"shelving_job_id,omitempty" db:"shelving_job_id"`
	ShelfPositionID         *int64     `json:"shelf_position_id,omitempty" db:"shelf_position_id"`
	ShelfPositionProposedID *int64     `json:"shelf_position_proposed_id,omitempty" db:"shelf_position_proposed_id"`
	ScannedForAccession     bool       `json:"scanned_for_accession" db:"scanned_for_accession"`
	ScannedForVerification  bool       `json:"scanned_for_verification" db:"scanned_for_verification"`
	ScannedForShelving      bool       `json:"scanned_for_shelving" db:"scanned_for_shelving"`
	ShelvedDt               *time.Time `json:"shelved_dt,omitempty" db:"shelved_dt"`
	CreateDt                time.Time  `json:"create_dt" db:"create_dt"`
	UpdateDt                time.Time  `json:"update_dt" db:"update_dt"`
}

// Item lives inside a tray; it never occupies a shelf position itself.
type Item struct {
	ID                     int64      `json:"id" db:"id"`
	TrayID                 *int64     `json:"tray_id,omitempty" db:"tray_id"`
	BarcodeID              *uuid.UUID `json:"barcode_id,omitempty" db:"barcode_id"`
	WithdrawnBarcodeID     *uuid.UUID `json:"withdrawn_barcode_id,omitempty" db:"withdrawn_barcode_id"`
	OwnerID                *int64     `json:"owner_id,omitempty" db:"owner_id"`
	SizeClassID            int64      `json:"size_class_id" db:"size_class_id"`
	Status                 string     `json:"status" db:"status"`
	ScannedForAccession    bool       `json:"scanned_for_accession" db:"scanned_for_accession"`
	ScannedForVerification bool       `json:"scanned_for_verification" db:"scanned_for_verification"`
	CreateDt               time.Time  `json:"create_dt" db:"create_dt"`
	UpdateDt               time.Time  `json:"update_dt" db:"update_dt"`
}

// ShelvingJob tracks a batch of containers being placed on shelves by an
// assigned operator.
type ShelvingJob struct {
	ID         int64      `json:"id" db:"id"`
	BuildingID *int64     `json:"building_id,omitempty" db:"building_id"`
	UserID     *int64     `json:"user_id,omitempty" db:"user_id"`
	Status     string     `json:"status" db:"status"`
	CreateDt   time.Time  `json:"create_dt" db:"create_dt"`
	UpdateDt   time.Time  `json:"update_dt" db:"update_dt"`
}
