package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stacks_inventory_backend/internal/models"
)

// ContainerRepository defines data access for trays, non-tray items,
// items, barcodes and shelving jobs.
type ContainerRepository interface {
	// Barcode methods
	CreateBarcode(executor SQLExecutor, barcode *models.Barcode) error
	GetBarcodeByValue(value string) (*models.Barcode, error)
	GetBarcodeTypeIDByName(name string) (int64, error)
	MarkBarcodeWithdrawn(executor SQLExecutor, barcodeID uuid.UUID) error

	// Tray methods
	GetTrayByID(trayID int64) (*models.Tray, error)
	GetTrayByBarcodeValue(value string) (*models.Tray, error)
	GetTrayAtPosition(positionID int64) (*models.Tray, error)
	UpdateTrayPosition(executor SQLExecutor, trayID int64, positionID *int64, shelvedDt *time.Time) error
	UpdateTrayShelvingState(executor SQLExecutor, tray *models.Tray) error
	WithdrawTray(executor SQLExecutor, trayID int64, barcodeID uuid.UUID) error
	CountItemsInTray(trayID int64) (int, error)

	// Non-tray item methods
	GetNonTrayItemByID(nonTrayItemID int64) (*models.NonTrayItem, error)
	GetNonTrayItemByBarcodeValue(value string) (*models.NonTrayItem, error)
	GetNonTrayItemAtPosition(positionID int64) (*models.NonTrayItem, error)
	UpdateNonTrayItemPosition(executor SQLExecutor, nonTrayItemID int64, positionID *int64, shelvedDt *time.Time) error
	UpdateNonTrayItemShelvingState(executor SQLExecutor, item *models.NonTrayItem) error

	// Item methods
	GetItemByBarcodeValue(value string) (*models.Item, error)
	UpdateItemTray(executor SQLExecutor, itemID int64, trayID *int64, status string) error

	// Shelving job methods
	GetShelvingJobByID(jobID int64) (*models.ShelvingJob, error)
	ListTraysByShelvingJob(jobID int64) ([]models.Tray, error)
	ListNonTrayItemsByShelvingJob(jobID int64) ([]models.NonTrayItem, error)
}

type containerRepository struct {
	db *sql.DB
}

// NewContainerRepository creates a new instance of ContainerRepository.
func NewContainerRepository(db *sql.DB) ContainerRepository {
	return &containerRepository{db: db}
}

// --- Barcode methods ---

func (r *containerRepository) CreateBarcode(executor SQLExecutor, barcode *models.Barcode) error {
	if barcode.ID == uuid.Nil {
		barcode.ID = uuid.New()
	}
	if barcode.CreateDt.IsZero() {
		barcode.CreateDt = time.Now()
	}
	if barcode.UpdateDt.IsZero() {
		barcode.UpdateDt = time.Now()
	}

	query := `INSERT INTO barcodes (id, value, type_id, withdrawn, create_dt, update_dt)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := executor.Exec(query,
		barcode.ID, barcode.Value, barcode.TypeID, barcode.Withdrawn,
		barcode.CreateDt, barcode.UpdateDt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: creating barcode %s: %v", ErrDuplicateKey, barcode.Value, err)
		}
		return fmt.Errorf("%w: creating barcode: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *containerRepository) GetBarcodeByValue(value string) (*models.Barcode, error) {
	barcode := &models.Barcode{}
	err := r.db.QueryRow(
		`SELECT id, value, type_id, withdrawn, create_dt, update_dt
		 FROM barcodes WHERE value = $1`, value,
	).Scan(&barcode.ID, &barcode.Value, &barcode.TypeID, &barcode.Withdrawn,
		&barcode.CreateDt, &barcode.UpdateDt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting barcode %s: %v", ErrDatabaseError, value, err)
	}
	return barcode, nil
}

func (r *containerRepository) GetBarcodeTypeIDByName(name string) (int64, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM barcode_types WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting barcode type %s: %v", ErrDatabaseError, name, err)
	}
	return id, nil
}

func (r *containerRepository) MarkBarcodeWithdrawn(executor SQLExecutor, barcodeID uuid.UUID) error {
	result, err := executor.Exec(
		`UPDATE barcodes SET withdrawn = TRUE, update_dt = $1 WHERE id = $2`,
		time.Now(), barcodeID)
	if err != nil {
		return fmt.Errorf("%w: withdrawing barcode %s: %v", ErrDatabaseError, barcodeID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading rows affected: %v", ErrDatabaseError, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: barcode %s", ErrNotFound, barcodeID)
	}
	return nil
}

// --- Tray methods ---

const trayColumns = `id, barcode_id, withdrawn_barcode_id, container_type_id, owner_id,
	       size_class_id, shelving_job_id, shelf_position_id, shelf_position_proposed_id,
	       scanned_for_accession, scanned_for_verification, scanned_for_shelving,
	       shelved_dt, create_dt, update_dt`

func scanTray(s scanner) (*models.Tray, error) {
	tray := &models.Tray{}
	err := s.Scan(
		&tray.ID, &tray.BarcodeID, &tray.WithdrawnBarcodeID, &tray.ContainerTypeID,
		&tray.OwnerID, &tray.SizeClassID, &tray.ShelvingJobID,
		&tray.ShelfPositionID, &tray.ShelfPositionProposedID,
		&tray.ScannedForAccession, &tray.ScannedForVerification, &tray.ScannedForShelving,
		&tray.ShelvedDt, &tray.CreateDt, &tray.UpdateDt,
	)
	if err != nil {
		return nil, err
	}
	return tray, nil
}

func (r *containerRepository) GetTrayByID(trayID int64) (*models.Tray, error) {
	query := `SELECT ` + trayColumns + ` FROM trays WHERE id = $1`
	tray, err := scanTray(r.db.QueryRow(query, trayID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting tray %d: %v", ErrDatabaseError, trayID, err)
	}
	return tray, nil
}

// GetTrayByBarcodeValue matches on the active and the withdrawn barcode
// column; a hit through the withdrawn column comes back with a nil
// BarcodeID, which callers treat as terminal. A tray carrying both
// columns joins twice, so the active match is ordered first.
func (r *containerRepository) GetTrayByBarcodeValue(value string) (*models.Tray, error) {
	query := `SELECT t.id, t.barcode_id, t.withdrawn_barcode_id, t.container_type_id, t.owner_id,
	                 t.size_class_id, t.shelving_job_id, t.shelf_position_id, t.shelf_position_proposed_id,
	                 t.scanned_for_accession, t.scanned_for_verification, t.scanned_for_shelving,
	                 t.shelved_dt, t.create_dt, t.update_dt
	          FROM trays t
	          JOIN barcodes b ON b.id IN (t.barcode_id, t.withdrawn_barcode_id)
	          WHERE b.value = $1
	          ORDER BY (b.id = t.barcode_id) DESC
	          LIMIT 1`
	tray, err := scanTray(r.db.QueryRow(query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting tray by barcode %s: %v", ErrDatabaseError, value, err)
	}
	return tray, nil
}

func (r *containerRepository) GetTrayAtPosition(positionID int64) (*models.Tray, error) {
	query := `SELECT ` + trayColumns + ` FROM trays WHERE shelf_position_id = $1`
	tray, err := scanTray(r.db.QueryRow(query, positionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting tray at position %d: %v", ErrDatabaseError, positionID, err)
	}
	return tray, nil
}

// UpdateTrayPosition assigns or clears a tray's shelf position. A claim
// on an already-taken position trips the partial unique index and comes
// back as ErrDuplicateKey; callers map that to a plain conflict.
func (r *containerRepository) UpdateTrayPosition(executor SQLExecutor, trayID int64, positionID *int64, shelvedDt *time.Time) error {
	query := `UPDATE trays SET shelf_position_id = $1, shelved_dt = $2, update_dt = $3 WHERE id = $4`
	result, err := executor.Exec(query, positionID, shelvedDt, time.Now(), trayID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tray %d position claim: %v", ErrDuplicateKey, trayID, err)
		}
		return fmt.Errorf("%w: updating tray %d position: %v", ErrDatabaseError, trayID, err)
	}
	return requireRowAffected(result, trayID)
}

func (r *containerRepository) UpdateTrayShelvingState(executor SQLExecutor, tray *models.Tray) error {
	query := `UPDATE trays
	          SET shelf_position_id = $1, shelf_position_proposed_id = $2,
	              scanned_for_shelving = $3, shelved_dt = $4, update_dt = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		tray.ShelfPositionID, tray.ShelfPositionProposedID,
		tray.ScannedForShelving, tray.ShelvedDt, time.Now(), tray.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tray %d position claim: %v", ErrDuplicateKey, tray.ID, err)
		}
		return fmt.Errorf("%w: updating tray %d shelving state: %v", ErrDatabaseError, tray.ID, err)
	}
	return requireRowAffected(result, tray.ID)
}

// WithdrawTray retires a tray: its barcode moves to the withdrawn column
// and both position references are cleared. The tray can never be shelved
// again.
func (r *containerRepository) WithdrawTray(executor SQLExecutor, trayID int64, barcodeID uuid.UUID) error {
	query := `UPDATE trays
	          SET barcode_id = NULL, withdrawn_barcode_id = $1,
	              shelf_position_id = NULL, shelf_position_proposed_id = NULL,
	              update_dt = $2
	          WHERE id = $3`
	result, err := executor.Exec(query, barcodeID, time.Now(), trayID)
	if err != nil {
		return fmt.Errorf("%w: withdrawing tray %d: %v", ErrDatabaseError, trayID, err)
	}
	if err := requireRowAffected(result, trayID); err != nil {
		return err
	}
	return r.MarkBarcodeWithdrawn(executor, barcodeID)
}

func (r *containerRepository) CountItemsInTray(trayID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM items WHERE tray_id = $1`, trayID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting items in tray %d: %v", ErrDatabaseError, trayID, err)
	}
	return count, nil
}

// --- Non-tray item methods ---

const nonTrayItemColumns = `id, barcode_id, withdrawn_barcode_id, container_type_id, owner_id,
	       size_class_id, shelving_job_id, shelf_position_id, shelf_position_proposed_id,
	       scanned_for_accession, scanned_for_verification, scanned_for_shelving,
	       shelved_dt, create_dt, update_dt`

func scanNonTrayItem(s scanner) (*models.NonTrayItem, error) {
	item := &models.NonTrayItem{}
	err := s.Scan(
		&item.ID, &item.BarcodeID, &item.WithdrawnBarcodeID, &item.ContainerTypeID,
		&item.OwnerID, &item.SizeClassID, &item.ShelvingJobID,
		&item.ShelfPositionID, &item.ShelfPositionProposedID,
		&item.ScannedForAccession, &item.ScannedForVerification, &item.ScannedForShelving,
		&item.ShelvedDt, &item.CreateDt, &item.UpdateDt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *containerRepository) GetNonTrayItemByID(nonTrayItemID int64) (*models.NonTrayItem, error) {
	query := `SELECT ` + nonTrayItemColumns + ` FROM non_tray_items WHERE id = $1`
	item, err := scanNonTrayItem(r.db.QueryRow(query, nonTrayItemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting non-tray item %d: %v", ErrDatabaseError, nonTrayItemID, err)
	}
	return item, nil
}

func (r *containerRepository) GetNonTrayItemByBarcodeValue(value string) (*models.NonTrayItem, error) {
	query := `SELECT n.id, n.barcode_id, n.withdrawn_barcode_id, n.container_type_id, n.owner_id,
	                 n.size_class_id, n.shelving_job_id, n.shelf_position_id, n.shelf_position_proposed_id,
	                 n.scanned_for_accession, n.scanned_for_verification, n.scanned_for_shelving,
	                 n.shelved_dt, n.create_dt, n.update_dt
	          FROM non_tray_items n
	          JOIN barcodes b ON b.id IN (n.barcode_id, n.withdrawn_barcode_id)
	          WHERE b.value = $1
	          ORDER BY (b.id = n.barcode_id) DESC
	          LIMIT 1`
	item, err := scanNonTrayItem(r.db.QueryRow(query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting non-tray item by barcode %s: %v", ErrDatabaseError, value, err)
	}
	return item, nil
}

func (r *containerRepository) GetNonTrayItemAtPosition(positionID int64) (*models.NonTrayItem, error) {
	query := `SELECT ` + nonTrayItemColumns + ` FROM non_tray_items WHERE shelf_position_id = $1`
	item, err := scanNonTrayItem(r.db.QueryRow(query, positionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting non-tray item at position %d: %v", ErrDatabaseError, positionID, err)
	}
	return item, nil
}

func (r *containerRepository) UpdateNonTrayItemPosition(executor SQLExecutor, nonTrayItemID int64, positionID *int64, shelvedDt *time.Time) error {
	query := `UPDATE non_tray_items SET shelf_position_id = $1, shelved_dt = $2, update_dt = $3 WHERE id = $4`
	result, err := executor.Exec(query, positionID, shelvedDt, time.Now(), nonTrayItemID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: non-tray item %d position claim: %v", ErrDuplicateKey, nonTrayItemID, err)
		}
		return fmt.Errorf("%w: updating non-tray item %d position: %v", ErrDatabaseError, nonTrayItemID, err)
	}
	return requireRowAffected(result, nonTrayItemID)
}

func (r *containerRepository) UpdateNonTrayItemShelvingState(executor SQLExecutor, item *models.NonTrayItem) error {
	query := `UPDATE non_tray_items
	          SET shelf_position_id = $1, shelf_position_proposed_id = $2,
	              scanned_for_shelving = $3, shelved_dt = $4, update_dt = $5
	          WHERE id = $6`
	result, err := executor.Exec(query,
		item.ShelfPositionID, item.ShelfPositionProposedID,
		item.ScannedForShelving, item.ShelvedDt, time.Now(), item.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: non-tray item %d position claim: %v", ErrDuplicateKey, item.ID, err)
		}
		return fmt.Errorf("%w: updating non-tray item %d shelving state: %v", ErrDatabaseError, item.ID, err)
	}
	return requireRowAffected(result, item.ID)
}

// --- Item methods ---

func (r *containerRepository) GetItemByBarcodeValue(value string) (*models.Item, error) {
	item := &models.Item{}
	query := `SELECT i.id, i.tray_id, i.barcode_id, i.withdrawn_barcode_id, i.owner_id,
	                 i.size_class_id, i.status, i.scanned_for_accession, i.scanned_for_verification,
	                 i.create_dt, i.update_dt
	          FROM items i
	          JOIN barcodes b ON b.id IN (i.barcode_id, i.withdrawn_barcode_id)
	          WHERE b.value = $1
	          ORDER BY (b.id = i.barcode_id) DESC
	          LIMIT 1`
	err := r.db.QueryRow(query, value).Scan(
		&item.ID, &item.TrayID, &item.BarcodeID, &item.WithdrawnBarcodeID,
		&item.OwnerID, &item.SizeClassID, &item.Status,
		&item.ScannedForAccession, &item.ScannedForVerification,
		&item.CreateDt, &item.UpdateDt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting item by barcode %s: %v", ErrDatabaseError, value, err)
	}
	return item, nil
}

func (r *containerRepository) UpdateItemTray(executor SQLExecutor, itemID int64, trayID *int64, status string) error {
	query := `UPDATE items SET tray_id = $1, status = $2, update_dt = $3 WHERE id = $4`
	result, err := executor.Exec(query, trayID, status, time.Now(), itemID)
	if err != nil {
		return fmt.Errorf("%w: updating item %d tray: %v", ErrDatabaseError, itemID, err)
	}
	return requireRowAffected(result, itemID)
}

// --- Shelving job methods ---

func (r *containerRepository) GetShelvingJobByID(jobID int64) (*models.ShelvingJob, error) {
	job := &models.ShelvingJob{}
	err := r.db.QueryRow(
		`SELECT id, building_id, user_id, status, create_dt, update_dt
		 FROM shelving_jobs WHERE id = $1`, jobID,
	).Scan(&job.ID, &job.BuildingID, &job.UserID, &job.Status, &job.CreateDt, &job.UpdateDt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shelving job %d: %v", ErrDatabaseError, jobID, err)
	}
	return job, nil
}

func (r *containerRepository) ListTraysByShelvingJob(jobID int64) ([]models.Tray, error) {
	query := `SELECT ` + trayColumns + ` FROM trays WHERE shelving_job_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing trays for job %d: %v", ErrDatabaseError, jobID, err)
	}
	defer rows.Close()

	trays := []models.Tray{}
	for rows.Next() {
		tray, err := scanTray(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning tray: %v", ErrDatabaseError, err)
		}
		trays = append(trays, *tray)
	}
	return trays, rows.Err()
}

func (r *containerRepository) ListNonTrayItemsByShelvingJob(jobID int64) ([]models.NonTrayItem, error) {
	query := `SELECT ` + nonTrayItemColumns + ` FROM non_tray_items WHERE shelving_job_id = $1 ORDER BY id`
	rows, err := r.db.Query(query, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing non-tray items for job %d: %v", ErrDatabaseError, jobID, err)
	}
	defer rows.Close()

	items := []models.NonTrayItem{}
	for rows.Next() {
		item, err := scanNonTrayItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning non-tray item: %v", ErrDatabaseError, err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
