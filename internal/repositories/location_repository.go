package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stacks_inventory_backend/internal/models"
)

// LocationRepository defines data access for the storage hierarchy:
// shelves, shelf positions, their parent chains and the shelf-type catalog.
type LocationRepository interface {
	// Shelf methods
	CreateShelf(executor SQLExecutor, shelf *models.Shelf) (int64, error)
	GetShelfByID(shelfID int64) (*models.Shelf, error)
	GetShelfByBarcodeValue(value string) (*models.Shelf, error)
	ListShelfIDs() ([]int64, error)
	UpdateShelfAddress(executor SQLExecutor, shelfID int64, location, internalLocation string) error
	UpdateShelfAvailableSpace(executor SQLExecutor, shelfID int64, space int, updatedAt time.Time) error
	TouchShelf(executor SQLExecutor, shelfID int64, updatedAt time.Time) error

	// Shelf position methods
	CreateShelfPosition(executor SQLExecutor, position *models.ShelfPosition) (int64, error)
	GetPositionByID(positionID int64) (*models.ShelfPosition, error)
	GetPositionByShelfAndNumber(shelfID int64, positionNumber int) (*models.ShelfPosition, error)
	ListPositionIDsByShelf(shelfID int64) ([]int64, error)
	GetShelfIDForPosition(positionID int64) (int64, error)
	UpdatePositionAddress(executor SQLExecutor, positionID int64, location, internalLocation string) error
	EnsurePositionNumber(executor SQLExecutor, number int) (int64, error)
	GetPositionNumber(positionNumberID int64) (int, error)

	// Parent chain resolution for the address deriver
	GetShelfAddressChain(shelfID int64) (*models.ShelfAddressChain, error)
	GetPositionAddressChain(positionID int64) (*models.ShelfAddressChain, error)

	// FindAvailablePositions returns free, unproposed positions on
	// compatible shelves for machine proposal, oldest shelves first.
	FindAvailablePositions(ownerID *int64, sizeClassID int64, buildingID *int64, limit int) ([]models.ShelfPosition, error)

	// Capacity accounting counts; executor so the accountant can run in a
	// caller-provided transaction.
	CountPositions(executor SQLExecutor, shelfID int64) (int, error)
	CountOccupiedPositions(executor SQLExecutor, shelfID int64) (int, error)

	// Shelf type catalog
	CreateShelfType(shelfType *models.ShelfType) (int64, error)
	GetShelfTypeByID(shelfTypeID int64) (*models.ShelfType, error)
	CountShelvesOfType(shelfTypeID int64) (int, error)
	DeleteShelfType(shelfTypeID int64) error
}

type locationRepository struct {
	db *sql.DB
}

// NewLocationRepository creates a new instance of LocationRepository.
func NewLocationRepository(db *sql.DB) LocationRepository {
	return &locationRepository{db: db}
}

const shelfColumns = `id, ladder_id, shelf_number_id, shelf_type_id, container_type_id,
	       owner_id, barcode_id, height, width, depth, available_space,
	       location, internal_location, sort_priority, create_dt, update_dt`

func scanShelf(s scanner) (*models.Shelf, error) {
	shelf := &models.Shelf{}
	err := s.Scan(
		&shelf.ID, &shelf.LadderID, &shelf.ShelfNumberID, &shelf.ShelfTypeID,
		&shelf.ContainerTypeID, &shelf.OwnerID, &shelf.BarcodeID,
		&shelf.Height, &shelf.Width, &shelf.Depth, &shelf.AvailableSpace,
		&shelf.Location, &shelf.InternalLocation, &shelf.SortPriority,
		&shelf.CreateDt, &shelf.UpdateDt,
	)
	if err != nil {
		return nil, err
	}
	return shelf, nil
}

// --- Shelf methods ---

func (r *locationRepository) CreateShelf(executor SQLExecutor, shelf *models.Shelf) (int64, error) {
	query := `INSERT INTO shelves
	            (ladder_id, shelf_number_id, shelf_type_id, container_type_id, owner_id,
	             barcode_id, height, width, depth, available_space, sort_priority,
	             create_dt, update_dt)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if shelf.CreateDt.IsZero() {
		shelf.CreateDt = time.Now()
	}
	if shelf.UpdateDt.IsZero() {
		shelf.UpdateDt = time.Now()
	}

	err := executor.QueryRow(query,
		shelf.LadderID, shelf.ShelfNumberID, shelf.ShelfTypeID, shelf.ContainerTypeID,
		shelf.OwnerID, shelf.BarcodeID, shelf.Height, shelf.Width, shelf.Depth,
		shelf.AvailableSpace, shelf.SortPriority, shelf.CreateDt, shelf.UpdateDt,
	).Scan(&shelf.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: creating shelf: %v", ErrDuplicateKey, err)
		}
		return 0, fmt.Errorf("%w: creating shelf: %v", ErrDatabaseError, err)
	}
	return shelf.ID, nil
}

func (r *locationRepository) GetShelfByID(shelfID int64) (*models.Shelf, error) {
	query := `SELECT ` + shelfColumns + ` FROM shelves WHERE id = $1`
	shelf, err := scanShelf(r.db.QueryRow(query, shelfID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shelf by ID %d: %v", ErrDatabaseError, shelfID, err)
	}
	return shelf, nil
}

func (r *locationRepository) GetShelfByBarcodeValue(value string) (*models.Shelf, error) {
	query := `SELECT sh.id, sh.ladder_id, sh.shelf_number_id, sh.shelf_type_id, sh.container_type_id,
	                 sh.owner_id, sh.barcode_id, sh.height, sh.width, sh.depth, sh.available_space,
	                 sh.location, sh.internal_location, sh.sort_priority, sh.create_dt, sh.update_dt
	          FROM shelves sh
	          JOIN barcodes b ON sh.barcode_id = b.id
	          WHERE b.value = $1`
	shelf, err := scanShelf(r.db.QueryRow(query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shelf by barcode %s: %v", ErrDatabaseError, value, err)
	}
	return shelf, nil
}

func (r *locationRepository) ListShelfIDs() ([]int64, error) {
	rows, err := r.db.Query(`SELECT id FROM shelves ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing shelf ids: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning shelf id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *locationRepository) UpdateShelfAddress(executor SQLExecutor, shelfID int64, location, internalLocation string) error {
	query := `UPDATE shelves SET location = $1, internal_location = $2, update_dt = $3 WHERE id = $4`
	result, err := executor.Exec(query, location, internalLocation, time.Now(), shelfID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: updating shelf %d address: %v", ErrDuplicateKey, shelfID, err)
		}
		return fmt.Errorf("%w: updating shelf %d address: %v", ErrDatabaseError, shelfID, err)
	}
	return requireRowAffected(result, shelfID)
}

func (r *locationRepository) UpdateShelfAvailableSpace(executor SQLExecutor, shelfID int64, space int, updatedAt time.Time) error {
	if executor == nil {
		executor = r.db
	}
	query := `UPDATE shelves SET available_space = $1, update_dt = $2 WHERE id = $3`
	result, err := executor.Exec(query, space, updatedAt, shelfID)
	if err != nil {
		return fmt.Errorf("%w: updating shelf %d available space: %v", ErrDatabaseError, shelfID, err)
	}
	return requireRowAffected(result, shelfID)
}

func (r *locationRepository) TouchShelf(executor SQLExecutor, shelfID int64, updatedAt time.Time) error {
	result, err := executor.Exec(`UPDATE shelves SET update_dt = $1 WHERE id = $2`, updatedAt, shelfID)
	if err != nil {
		return fmt.Errorf("%w: touching shelf %d: %v", ErrDatabaseError, shelfID, err)
	}
	return requireRowAffected(result, shelfID)
}

func requireRowAffected(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: reading rows affected: %v", ErrDatabaseError, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

// --- Shelf position methods ---

func (r *locationRepository) CreateShelfPosition(executor SQLExecutor, position *models.ShelfPosition) (int64, error) {
	query := `INSERT INTO shelf_positions
	            (shelf_id, shelf_position_number_id, create_dt, update_dt)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	if position.CreateDt.IsZero() {
		position.CreateDt = time.Now()
	}
	if position.UpdateDt.IsZero() {
		position.UpdateDt = time.Now()
	}

	err := executor.QueryRow(query,
		position.ShelfID, position.ShelfPositionNumberID, position.CreateDt, position.UpdateDt,
	).Scan(&position.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: creating shelf position: %v", ErrDuplicateKey, err)
		}
		return 0, fmt.Errorf("%w: creating shelf position: %v", ErrDatabaseError, err)
	}
	return position.ID, nil
}

func scanPosition(s scanner) (*models.ShelfPosition, error) {
	position := &models.ShelfPosition{}
	err := s.Scan(
		&position.ID, &position.ShelfID, &position.ShelfPositionNumberID,
		&position.Location, &position.InternalLocation,
		&position.CreateDt, &position.UpdateDt,
	)
	if err != nil {
		return nil, err
	}
	return position, nil
}

func (r *locationRepository) GetPositionByID(positionID int64) (*models.ShelfPosition, error) {
	query := `SELECT id, shelf_id, shelf_position_number_id, location, internal_location, create_dt, update_dt
	          FROM shelf_positions WHERE id = $1`
	position, err := scanPosition(r.db.QueryRow(query, positionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shelf position %d: %v", ErrDatabaseError, positionID, err)
	}
	return position, nil
}

func (r *locationRepository) GetPositionByShelfAndNumber(shelfID int64, positionNumber int) (*models.ShelfPosition, error) {
	query := `SELECT sp.id, sp.shelf_id, sp.shelf_position_number_id, sp.location, sp.internal_location,
	                 sp.create_dt, sp.update_dt
	          FROM shelf_positions sp
	          JOIN shelf_position_numbers spn ON sp.shelf_position_number_id = spn.id
	          WHERE sp.shelf_id = $1 AND spn.number = $2`
	position, err := scanPosition(r.db.QueryRow(query, shelfID, positionNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting position %d on shelf %d: %v",
			ErrDatabaseError, positionNumber, shelfID, err)
	}
	return position, nil
}

func (r *locationRepository) ListPositionIDsByShelf(shelfID int64) ([]int64, error) {
	rows, err := r.db.Query(
		`SELECT id FROM shelf_positions WHERE shelf_id = $1 ORDER BY id`, shelfID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing positions for shelf %d: %v", ErrDatabaseError, shelfID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scanning position id: %v", ErrDatabaseError, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *locationRepository) GetShelfIDForPosition(positionID int64) (int64, error) {
	var shelfID int64
	err := r.db.QueryRow(
		`SELECT shelf_id FROM shelf_positions WHERE id = $1`, positionID).Scan(&shelfID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: resolving shelf for position %d: %v", ErrDatabaseError, positionID, err)
	}
	return shelfID, nil
}

func (r *locationRepository) UpdatePositionAddress(executor SQLExecutor, positionID int64, location, internalLocation string) error {
	query := `UPDATE shelf_positions SET location = $1, internal_location = $2, update_dt = $3 WHERE id = $4`
	result, err := executor.Exec(query, location, internalLocation, time.Now(), positionID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: updating position %d address: %v", ErrDuplicateKey, positionID, err)
		}
		return fmt.Errorf("%w: updating position %d address: %v", ErrDatabaseError, positionID, err)
	}
	return requireRowAffected(result, positionID)
}

// EnsurePositionNumber returns the id of the shelf_position_numbers row for
// the given number, creating it if absent. Position numbers are reusable
// labels shared by every shelf.
func (r *locationRepository) EnsurePositionNumber(executor SQLExecutor, number int) (int64, error) {
	var id int64
	err := executor.QueryRow(
		`SELECT id FROM shelf_position_numbers WHERE number = $1`, number).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: looking up position number %d: %v", ErrDatabaseError, number, err)
	}

	err = executor.QueryRow(
		`INSERT INTO shelf_position_numbers (number, create_dt, update_dt)
		 VALUES ($1, $2, $2) RETURNING id`, number, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: creating position number %d: %v", ErrDatabaseError, number, err)
	}
	return id, nil
}

func (r *locationRepository) GetPositionNumber(positionNumberID int64) (int, error) {
	var number int
	err := r.db.QueryRow(
		`SELECT number FROM shelf_position_numbers WHERE id = $1`, positionNumberID).Scan(&number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: getting position number %d: %v", ErrDatabaseError, positionNumberID, err)
	}
	return number, nil
}

// --- Parent chain resolution ---

// GetShelfAddressChain walks the hierarchy one hop at a time so a broken
// chain fails with an error naming the missing link, mirroring the
// structural-failure contract of the address deriver.
func (r *locationRepository) GetShelfAddressChain(shelfID int64) (*models.ShelfAddressChain, error) {
	chain := &models.ShelfAddressChain{ShelfID: shelfID}

	var ladderID int64
	err := r.db.QueryRow(
		`SELECT sh.ladder_id, shn.number
		 FROM shelves sh
		 JOIN shelf_numbers shn ON sh.shelf_number_id = shn.id
		 WHERE sh.id = $1`, shelfID).Scan(&ladderID, &chain.ShelfNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: shelf %d", ErrNotFound, shelfID)
		}
		return nil, fmt.Errorf("%w: resolving shelf %d: %v", ErrDatabaseError, shelfID, err)
	}
	chain.LadderID = ladderID

	var sideID int64
	err = r.db.QueryRow(
		`SELECT l.side_id, ln.number
		 FROM ladders l
		 JOIN ladder_numbers ln ON l.ladder_number_id = ln.id
		 WHERE l.id = $1`, ladderID).Scan(&sideID, &chain.LadderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ladder %d for shelf %d", ErrNotFound, ladderID, shelfID)
		}
		return nil, fmt.Errorf("%w: resolving ladder %d: %v", ErrDatabaseError, ladderID, err)
	}
	chain.SideID = sideID

	var aisleID int64
	err = r.db.QueryRow(
		`SELECT s.aisle_id, so.name
		 FROM sides s
		 JOIN side_orientations so ON s.side_orientation_id = so.id
		 WHERE s.id = $1`, sideID).Scan(&aisleID, &chain.Orientation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: side %d for ladder %d", ErrNotFound, sideID, ladderID)
		}
		return nil, fmt.Errorf("%w: resolving side %d: %v", ErrDatabaseError, sideID, err)
	}
	chain.AisleID = aisleID

	var buildingID, moduleID sql.NullInt64
	err = r.db.QueryRow(
		`SELECT a.building_id, a.module_id, an.number
		 FROM aisles a
		 JOIN aisle_numbers an ON a.aisle_number_id = an.id
		 WHERE a.id = $1`, aisleID).Scan(&buildingID, &moduleID, &chain.AisleNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: aisle %d for side %d", ErrNotFound, aisleID, sideID)
		}
		return nil, fmt.Errorf("%w: resolving aisle %d: %v", ErrDatabaseError, aisleID, err)
	}

	// An aisle hangs off a module or directly off a building.
	if moduleID.Valid {
		var moduleNumber string
		var moduleBuildingID int64
		err = r.db.QueryRow(
			`SELECT m.building_id, m.module_number FROM modules m WHERE m.id = $1`,
			moduleID.Int64).Scan(&moduleBuildingID, &moduleNumber)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: module %d for aisle %d", ErrNotFound, moduleID.Int64, aisleID)
			}
			return nil, fmt.Errorf("%w: resolving module %d: %v", ErrDatabaseError, moduleID.Int64, err)
		}
		chain.ModuleID = &moduleID.Int64
		chain.ModuleNumber = &moduleNumber
		buildingID = sql.NullInt64{Int64: moduleBuildingID, Valid: true}
	}
	if !buildingID.Valid {
		return nil, fmt.Errorf("%w: building for aisle %d", ErrNotFound, aisleID)
	}

	err = r.db.QueryRow(
		`SELECT name FROM buildings WHERE id = $1`, buildingID.Int64).Scan(&chain.BuildingName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: building %d for aisle %d", ErrNotFound, buildingID.Int64, aisleID)
		}
		return nil, fmt.Errorf("%w: resolving building %d: %v", ErrDatabaseError, buildingID.Int64, err)
	}
	chain.BuildingID = buildingID.Int64

	return chain, nil
}

func (r *locationRepository) GetPositionAddressChain(positionID int64) (*models.ShelfAddressChain, error) {
	var shelfID int64
	var positionNumber int
	err := r.db.QueryRow(
		`SELECT sp.shelf_id, spn.number
		 FROM shelf_positions sp
		 JOIN shelf_position_numbers spn ON sp.shelf_position_number_id = spn.id
		 WHERE sp.id = $1`, positionID).Scan(&shelfID, &positionNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: shelf position %d", ErrNotFound, positionID)
		}
		return nil, fmt.Errorf("%w: resolving shelf position %d: %v", ErrDatabaseError, positionID, err)
	}

	chain, err := r.GetShelfAddressChain(shelfID)
	if err != nil {
		return nil, err
	}
	chain.PositionID = &positionID
	chain.PositionNumber = &positionNumber
	return chain, nil
}

// FindAvailablePositions selects positions for proposal: the owning
// shelf must match the owner and size class, and the position must not
// be occupied by, or already proposed to, any container. The optional
// building scope follows both aisle parentages.
func (r *locationRepository) FindAvailablePositions(ownerID *int64, sizeClassID int64, buildingID *int64, limit int) ([]models.ShelfPosition, error) {
	query := `SELECT sp.id, sp.shelf_id, sp.shelf_position_number_id, sp.location, sp.internal_location,
	                 sp.create_dt, sp.update_dt
	          FROM shelf_positions sp
	          JOIN shelves sh ON sp.shelf_id = sh.id
	          JOIN shelf_types st ON sh.shelf_type_id = st.id
	          JOIN ladders l ON sh.ladder_id = l.id
	          JOIN sides s ON l.side_id = s.id
	          JOIN aisles a ON s.aisle_id = a.id
	          LEFT JOIN modules m ON a.module_id = m.id
	          WHERE st.size_class_id = $1
	            AND ($2::bigint IS NULL OR sh.owner_id = $2)
	            AND ($3::bigint IS NULL OR COALESCE(a.building_id, m.building_id) = $3)
	            AND NOT EXISTS (SELECT 1 FROM trays t
	                            WHERE t.shelf_position_id = sp.id OR t.shelf_position_proposed_id = sp.id)
	            AND NOT EXISTS (SELECT 1 FROM non_tray_items n
	                            WHERE n.shelf_position_id = sp.id OR n.shelf_position_proposed_id = sp.id)
	          ORDER BY sh.sort_priority NULLS LAST, sh.id, sp.id
	          LIMIT $4`

	rows, err := r.db.Query(query, sizeClassID, ownerID, buildingID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: finding available positions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	positions := []models.ShelfPosition{}
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning available position: %v", ErrDatabaseError, err)
		}
		positions = append(positions, *position)
	}
	return positions, rows.Err()
}

// --- Capacity accounting counts ---

func (r *locationRepository) CountPositions(executor SQLExecutor, shelfID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	err := executor.QueryRow(
		`SELECT COUNT(*) FROM shelf_positions WHERE shelf_id = $1`, shelfID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting positions for shelf %d: %v", ErrDatabaseError, shelfID, err)
	}
	return count, nil
}

// CountOccupiedPositions counts distinct positions on the shelf currently
// referenced by a tray or a non-tray item. Occupancy is always derived
// from these references, never from a stored flag.
func (r *locationRepository) CountOccupiedPositions(executor SQLExecutor, shelfID int64) (int, error) {
	if executor == nil {
		executor = r.db
	}
	var count int
	query := `SELECT COUNT(*) FROM shelf_positions sp
	          WHERE sp.shelf_id = $1
	            AND (EXISTS (SELECT 1 FROM trays t WHERE t.shelf_position_id = sp.id)
	              OR EXISTS (SELECT 1 FROM non_tray_items n WHERE n.shelf_position_id = sp.id))`
	err := executor.QueryRow(query, shelfID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting occupied positions for shelf %d: %v", ErrDatabaseError, shelfID, err)
	}
	return count, nil
}

// --- Shelf type catalog ---

func (r *locationRepository) CreateShelfType(shelfType *models.ShelfType) (int64, error) {
	query := `INSERT INTO shelf_types (type, size_class_id, max_capacity, create_dt, update_dt)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`

	if shelfType.CreateDt.IsZero() {
		shelfType.CreateDt = time.Now()
	}
	if shelfType.UpdateDt.IsZero() {
		shelfType.UpdateDt = time.Now()
	}

	err := r.db.QueryRow(query,
		shelfType.Type, shelfType.SizeClassID, shelfType.MaxCapacity,
		shelfType.CreateDt, shelfType.UpdateDt,
	).Scan(&shelfType.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%w: creating shelf type: %v", ErrDuplicateKey, err)
		}
		return 0, fmt.Errorf("%w: creating shelf type: %v", ErrDatabaseError, err)
	}
	return shelfType.ID, nil
}

func (r *locationRepository) GetShelfTypeByID(shelfTypeID int64) (*models.ShelfType, error) {
	shelfType := &models.ShelfType{}
	err := r.db.QueryRow(
		`SELECT id, type, size_class_id, max_capacity, create_dt, update_dt
		 FROM shelf_types WHERE id = $1`, shelfTypeID,
	).Scan(&shelfType.ID, &shelfType.Type, &shelfType.SizeClassID,
		&shelfType.MaxCapacity, &shelfType.CreateDt, &shelfType.UpdateDt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shelf type %d: %v", ErrDatabaseError, shelfTypeID, err)
	}
	return shelfType, nil
}

func (r *locationRepository) CountShelvesOfType(shelfTypeID int64) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM shelves WHERE shelf_type_id = $1`, shelfTypeID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting shelves of type %d: %v", ErrDatabaseError, shelfTypeID, err)
	}
	return count, nil
}

func (r *locationRepository) DeleteShelfType(shelfTypeID int64) error {
	result, err := r.db.Exec(`DELETE FROM shelf_types WHERE id = $1`, shelfTypeID)
	if err != nil {
		return fmt.Errorf("%w: deleting shelf type %d: %v", ErrDatabaseError, shelfTypeID, err)
	}
	return requireRowAffected(result, shelfTypeID)
}
