package repositories

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stacks_inventory_backend/internal/models"
)

// DiscrepancyRepository defines data access for the discrepancy ledger.
// Inserts are append-only; nothing in the normal flow updates or deletes
// ledger rows.
type DiscrepancyRepository interface {
	CreateMoveDiscrepancy(executor SQLExecutor, d *models.MoveDiscrepancy) (int64, error)
	CreateShelvingJobDiscrepancy(executor SQLExecutor, d *models.ShelvingJobDiscrepancy) (int64, error)
	ListMoveDiscrepancies(filters models.DiscrepancyFilters) ([]models.MoveDiscrepancy, error)
	ListShelvingJobDiscrepancies(filters models.DiscrepancyFilters) ([]models.ShelvingJobDiscrepancy, error)
}

type discrepancyRepository struct {
	db *sql.DB
}

// NewDiscrepancyRepository creates a new instance of DiscrepancyRepository.
func NewDiscrepancyRepository(db *sql.DB) DiscrepancyRepository {
	return &discrepancyRepository{db: db}
}

func (r *discrepancyRepository) CreateMoveDiscrepancy(executor SQLExecutor, d *models.MoveDiscrepancy) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	if d.CreateDt.IsZero() {
		d.CreateDt = time.Now()
	}
	if d.UpdateDt.IsZero() {
		d.UpdateDt = d.CreateDt
	}

	query := `INSERT INTO move_discrepancies
	            (tray_id, non_tray_item_id, item_id, container_type_id, assigned_user_id,
	             owner_id, size_class_id, original_assigned_location, current_assigned_location,
	             error, create_dt, update_dt)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id`
	err := executor.QueryRow(query,
		d.TrayID, d.NonTrayItemID, d.ItemID, d.ContainerTypeID, d.AssignedUserID,
		d.OwnerID, d.SizeClassID, d.OriginalAssignedLocation, d.CurrentAssignedLocation,
		d.Error, d.CreateDt, d.UpdateDt,
	).Scan(&d.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: recording move discrepancy: %v", ErrDatabaseError, err)
	}
	return d.ID, nil
}

func (r *discrepancyRepository) CreateShelvingJobDiscrepancy(executor SQLExecutor, d *models.ShelvingJobDiscrepancy) (int64, error) {
	if executor == nil {
		executor = r.db
	}
	if d.CreateDt.IsZero() {
		d.CreateDt = time.Now()
	}
	if d.UpdateDt.IsZero() {
		d.UpdateDt = d.CreateDt
	}

	query := `INSERT INTO shelving_job_discrepancies
	            (shelving_job_id, tray_id, non_tray_item_id, assigned_user_id, owner_id,
	             size_class_id, pre_assigned_location, assigned_location, error,
	             create_dt, update_dt)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING id`
	err := executor.QueryRow(query,
		d.ShelvingJobID, d.TrayID, d.NonTrayItemID, d.AssignedUserID, d.OwnerID,
		d.SizeClassID, d.PreAssignedLocation, d.AssignedLocation, d.Error,
		d.CreateDt, d.UpdateDt,
	).Scan(&d.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: recording shelving job discrepancy: %v", ErrDatabaseError, err)
	}
	return d.ID, nil
}

func (r *discrepancyRepository) ListMoveDiscrepancies(filters models.DiscrepancyFilters) ([]models.MoveDiscrepancy, error) {
	query := `SELECT id, tray_id, non_tray_item_id, item_id, container_type_id, assigned_user_id,
	                 owner_id, size_class_id, original_assigned_location, current_assigned_location,
	                 error, create_dt, update_dt
	          FROM move_discrepancies`

	conditions := []string{}
	args := []interface{}{}
	if filters.TrayID != nil {
		args = append(args, *filters.TrayID)
		conditions = append(conditions, "tray_id = $"+strconv.Itoa(len(args)))
	}
	if filters.NonTrayItemID != nil {
		args = append(args, *filters.NonTrayItemID)
		conditions = append(conditions, "non_tray_item_id = $"+strconv.Itoa(len(args)))
	}
	if filters.ItemID != nil {
		args = append(args, *filters.ItemID)
		conditions = append(conditions, "item_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY create_dt DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing move discrepancies: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	discrepancies := []models.MoveDiscrepancy{}
	for rows.Next() {
		var d models.MoveDiscrepancy
		err := rows.Scan(
			&d.ID, &d.TrayID, &d.NonTrayItemID, &d.ItemID, &d.ContainerTypeID,
			&d.AssignedUserID, &d.OwnerID, &d.SizeClassID,
			&d.OriginalAssignedLocation, &d.CurrentAssignedLocation,
			&d.Error, &d.CreateDt, &d.UpdateDt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning move discrepancy: %v", ErrDatabaseError, err)
		}
		discrepancies = append(discrepancies, d)
	}
	return discrepancies, rows.Err()
}

func (r *discrepancyRepository) ListShelvingJobDiscrepancies(filters models.DiscrepancyFilters) ([]models.ShelvingJobDiscrepancy, error) {
	query := `SELECT id, shelving_job_id, tray_id, non_tray_item_id, assigned_user_id, owner_id,
	                 size_class_id, pre_assigned_location, assigned_location, error,
	                 create_dt, update_dt
	          FROM shelving_job_discrepancies`

	conditions := []string{}
	args := []interface{}{}
	if filters.ShelvingJobID != nil {
		args = append(args, *filters.ShelvingJobID)
		conditions = append(conditions, "shelving_job_id = $"+strconv.Itoa(len(args)))
	}
	if filters.TrayID != nil {
		args = append(args, *filters.TrayID)
		conditions = append(conditions, "tray_id = $"+strconv.Itoa(len(args)))
	}
	if filters.NonTrayItemID != nil {
		args = append(args, *filters.NonTrayItemID)
		conditions = append(conditions, "non_tray_item_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY create_dt DESC, id DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing shelving job discrepancies: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	discrepancies := []models.ShelvingJobDiscrepancy{}
	for rows.Next() {
		var d models.ShelvingJobDiscrepancy
		err := rows.Scan(
			&d.ID, &d.ShelvingJobID, &d.TrayID, &d.NonTrayItemID,
			&d.AssignedUserID, &d.OwnerID, &d.SizeClassID,
			&d.PreAssignedLocation, &d.AssignedLocation, &d.Error,
			&d.CreateDt, &d.UpdateDt)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning shelving job discrepancy: %v", ErrDatabaseError, err)
		}
		discrepancies = append(discrepancies, d)
	}
	return discrepancies, rows.Err()
}
