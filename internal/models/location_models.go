package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Building is the root of the storage hierarchy.
type Building struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// Module is a section of a building. The module number is a display label
// unique across all modules.
type Module struct {
	ID           int64     `json:"id" db:"id"`
	BuildingID   int64     `json:"building_id" db:"building_id" binding:"required"`
	ModuleNumber string    `json:"module_number" db:"module_number"`
	CreateDt     time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt     time.Time `json:"update_dt" db:"update_dt"`
}

// AisleNumber is a reusable aisle label. One number row is shared by many
// aisles across different buildings/modules.
type AisleNumber struct {
	ID       int64     `json:"id" db:"id"`
	Number   int       `json:"number" db:"number" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// Aisle belongs to exactly one of a building or a module, never both.
// The XOR is enforced by a CHECK constraint on the table.
type Aisle struct {
	ID            int64     `json:"id" db:"id"`
	BuildingID    *int64    `json:"building_id,omitempty" db:"building_id"`
	ModuleID      *int64    `json:"module_id,omitempty" db:"module_id"`
	AisleNumberID int64     `json:"aisle_number_id" db:"aisle_number_id" binding:"required"`
	SortPriority  *int16    `json:"sort_priority,omitempty" db:"sort_priority"`
	CreateDt      time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt      time.Time `json:"update_dt" db:"update_dt"`
}

// SideOrientation is a closed enumeration: Left and Right. The address
// deriver abbreviates the name to its first character, so new orientations
// must keep unique initials.
type SideOrientation struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// Side is one face of an aisle, oriented Left or Right.
type Side struct {
	ID                int64     `json:"id" db:"id"`
	AisleID           int64     `json:"aisle_id" db:"aisle_id" binding:"required"`
	SideOrientationID int64     `json:"side_orientation_id" db:"side_orientation_id" binding:"required"`
	CreateDt          time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt          time.Time `json:"update_dt" db:"update_dt"`
}

// LadderNumber is a reusable ladder label shared across sides.
type LadderNumber struct {
	ID       int64     `json:"id" db:"id"`
	Number   int       `json:"number" db:"number" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// Ladder is a vertical run of shelves on a side.
type Ladder struct {
	ID             int64     `json:"id" db:"id"`
	SideID         int64     `json:"side_id" db:"side_id" binding:"required"`
	LadderNumberID int64     `json:"ladder_number_id" db:"ladder_number_id" binding:"required"`
	SortPriority   *int16    `json:"sort_priority,omitempty" db:"sort_priority"`
	CreateDt       time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt       time.Time `json:"update_dt" db:"update_dt"`
}

// ShelfNumber is a reusable shelf label shared across ladders.
type ShelfNumber struct {
	ID       int64     `json:"id" db:"id"`
	Number   int       `json:"number" db:"number" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// ShelfType defines how many positions a shelf holds and which size class
// of containers it accepts. Deletion is blocked while shelves reference it.
type ShelfType struct {
	ID          int64     `json:"id" db:"id"`
	Type        string    `json:"type" db:"type" binding:"required"`
	SizeClassID int64     `json:"size_class_id" db:"size_class_id" binding:"required"`
	MaxCapacity int16     `json:"max_capacity" db:"max_capacity" binding:"required,gt=0"`
	CreateDt    time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt    time.Time `json:"update_dt" db:"update_dt"`
}

// Shelf is the unit of capacity accounting. AvailableSpace and both
// location strings are derived fields: AvailableSpace is a cached
// projection recomputed from position occupancy and is never treated as
// the source of truth.
type Shelf struct {
	ID               int64           `json:"id" db:"id"`
	LadderID         int64           `json:"ladder_id" db:"ladder_id" binding:"required"`
	ShelfNumberID    int64           `json:"shelf_number_id" db:"shelf_number_id" binding:"required"`
	ShelfTypeID      int64           `json:"shelf_type_id" db:"shelf_type_id" binding:"required"`
	ContainerTypeID  int64           `json:"container_type_id" db:"container_type_id" binding:"required"`
	OwnerID          *int64          `json:"owner_id,omitempty" db:"owner_id"`
	BarcodeID        uuid.UUID       `json:"barcode_id" db:"barcode_id"`
	Height           decimal.Decimal `json:"height" db:"height"`
	Width            decimal.Decimal `json:"width" db:"width"`
	Depth            decimal.Decimal `json:"depth" db:"depth"`
	AvailableSpace   int             `json:"available_space" db:"available_space"`
	Location         *string         `json:"location,omitempty" db:"location"`
	InternalLocation *string         `json:"internal_location,omitempty" db:"internal_location"`
	SortPriority     *int16          `json:"sort_priority,omitempty" db:"sort_priority"`
	CreateDt         time.Time       `json:"create_dt" db:"create_dt"`
	UpdateDt         time.Time       `json:"update_dt" db:"update_dt"`
}

// ShelfPositionNumber is a reusable position label shared across shelves.
type ShelfPositionNumber struct {
	ID       int64     `json:"id" db:"id"`
	Number   int       `json:"number" db:"number" binding:"required"`
	CreateDt time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt time.Time `json:"update_dt" db:"update_dt"`
}

// ShelfPosition is the smallest addressable slot. It has no stored
// occupancy flag: a position is occupied iff a tray or non-tray item
// references it via shelf_position_id.
type ShelfPosition struct {
	ID                    int64     `json:"id" db:"id"`
	ShelfID               int64     `json:"shelf_id" db:"shelf_id"`
	ShelfPositionNumberID int64     `json:"shelf_position_number_id" db:"shelf_position_number_id"`
	Location              *string   `json:"location,omitempty" db:"location"`
	InternalLocation      *string   `json:"internal_location,omitempty" db:"internal_location"`
	CreateDt              time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt              time.Time `json:"update_dt" db:"update_dt"`
}

// ShelfAddressChain is the fully resolved parent chain of a shelf, the
// sole input of the address deriver. PositionID/PositionNumber are
// populated only when the chain was resolved for a specific shelf
// position.
type ShelfAddressChain struct {
	BuildingID   int64
	BuildingName string
	ModuleID     *int64
	ModuleNumber *string
	AisleID      int64
	AisleNumber  int
	SideID       int64
	Orientation  string
	LadderID     int64
	LadderNumber int
	ShelfID      int64
	ShelfNumber  int

	PositionID     *int64
	PositionNumber *int
}
