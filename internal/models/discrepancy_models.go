package models

import "time"

// DiscrepancyKind is the closed taxonomy of shelving/move violations.
// These rows are the operational escalation path: supervisors read the
// ledger, not the server logs.
type DiscrepancyKind string

const (
	DiscrepancyLocation       DiscrepancyKind = "Location Discrepancy"
	DiscrepancyOwner          DiscrepancyKind = "Owner Discrepancy"
	DiscrepancySize           DiscrepancyKind = "Size Discrepancy"
	DiscrepancyNotAccessioned DiscrepancyKind = "Not Accessioned Discrepancy"
	DiscrepancyNotShelved     DiscrepancyKind = "Not Shelved Discrepancy"
	DiscrepancyAvailableSpace DiscrepancyKind = "Available Space Discrepancy"
)

// MoveDiscrepancy is an append-only audit row recorded when a container
// move fails validation. Exactly one of TrayID, NonTrayItemID, ItemID is
// set (CHECK constraint on the table). Nothing updates or deletes these
// rows through the normal flow.
type MoveDiscrepancy struct {
	ID                       int64     `json:"id" db:"id"`
	TrayID                   *int64    `json:"tray_id,omitempty" db:"tray_id"`
	NonTrayItemID            *int64    `json:"non_tray_item_id,omitempty" db:"non_tray_item_id"`
	ItemID                   *int64    `json:"item_id,omitempty" db:"item_id"`
	ContainerTypeID          *int64    `json:"container_type_id,omitempty" db:"container_type_id"`
	AssignedUserID           *int64    `json:"assigned_user_id,omitempty" db:"assigned_user_id"`
	OwnerID                  *int64    `json:"owner_id,omitempty" db:"owner_id"`
	SizeClassID              *int64    `json:"size_class_id,omitempty" db:"size_class_id"`
	OriginalAssignedLocation *string   `json:"original_assigned_location,omitempty" db:"original_assigned_location"`
	CurrentAssignedLocation  *string   `json:"current_assigned_location,omitempty" db:"current_assigned_location"`
	Error                    string    `json:"error" db:"error"`
	CreateDt                 time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt                 time.Time `json:"update_dt" db:"update_dt"`
}

// ShelvingJobDiscrepancy is the shelving-time counterpart of
// MoveDiscrepancy, attributed to a shelving job and its assigned user.
// Exactly one of TrayID and NonTrayItemID is set.
type ShelvingJobDiscrepancy struct {
	ID                  int64     `json:"id" db:"id"`
	ShelvingJobID       int64     `json:"shelving_job_id" db:"shelving_job_id"`
	TrayID              *int64    `json:"tray_id,omitempty" db:"tray_id"`
	NonTrayItemID       *int64    `json:"non_tray_item_id,omitempty" db:"non_tray_item_id"`
	AssignedUserID      *int64    `json:"assigned_user_id,omitempty" db:"assigned_user_id"`
	OwnerID             *int64    `json:"owner_id,omitempty" db:"owner_id"`
	SizeClassID         *int64    `json:"size_class_id,omitempty" db:"size_class_id"`
	PreAssignedLocation *string   `json:"pre_assigned_location,omitempty" db:"pre_assigned_location"`
	AssignedLocation    *string   `json:"assigned_location,omitempty" db:"assigned_location"`
	Error               string    `json:"error" db:"error"`
	CreateDt            time.Time `json:"create_dt" db:"create_dt"`
	UpdateDt            time.Time `json:"update_dt" db:"update_dt"`
}

// DiscrepancyFilters narrows ledger listings.
type DiscrepancyFilters struct {
	TrayID        *int64
	NonTrayItemID *int64
	ItemID        *int64
	ShelvingJobID *int64
}
