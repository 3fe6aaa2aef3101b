package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"stacks_inventory_backend/internal/models"
	"stacks_inventory_backend/internal/repositories"
)

// In-memory repository fakes. Service tests exercise the business rules
// against these; the SQL itself is covered by the sqlmock tests in the
// repositories package.

type fakeLocationRepo struct {
	mu sync.Mutex

	shelves         map[int64]*models.Shelf
	shelfByBarcode  map[string]int64
	positions       map[int64]*models.ShelfPosition
	positionNumbers map[int64]int // number id -> number
	occupied        map[int64]bool
	chains          map[int64]*models.ShelfAddressChain
	chainErrs       map[int64]error
	shelfTypes      map[int64]*models.ShelfType
	available       []models.ShelfPosition

	nextID int64

	// Set before the repo is shared to simulate a slow shelf lookup.
	shelfLookupDelay time.Duration

	addressUpdates  map[int64][2]string // shelf id -> location, internal
	positionUpdates map[int64][2]string
	spaceWrites     map[int64][]int
	touched         map[int64]int
}

func newFakeLocationRepo() *fakeLocationRepo {
	return &fakeLocationRepo{
		shelves:         map[int64]*models.Shelf{},
		shelfByBarcode:  map[string]int64{},
		positions:       map[int64]*models.ShelfPosition{},
		positionNumbers: map[int64]int{},
		occupied:        map[int64]bool{},
		chains:          map[int64]*models.ShelfAddressChain{},
		chainErrs:       map[int64]error{},
		shelfTypes:      map[int64]*models.ShelfType{},
		addressUpdates:  map[int64][2]string{},
		positionUpdates: map[int64][2]string{},
		spaceWrites:     map[int64][]int{},
		touched:         map[int64]int{},
		nextID:          1000,
	}
}

func (f *fakeLocationRepo) addShelf(shelf *models.Shelf, barcodeValue string) {
	f.shelves[shelf.ID] = shelf
	if barcodeValue != "" {
		f.shelfByBarcode[barcodeValue] = shelf.ID
	}
}

func (f *fakeLocationRepo) addPosition(position *models.ShelfPosition, number int) {
	f.positions[position.ID] = position
	f.positionNumbers[position.ShelfPositionNumberID] = number
}

func (f *fakeLocationRepo) CreateShelf(_ repositories.SQLExecutor, shelf *models.Shelf) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	shelf.ID = f.nextID
	f.shelves[shelf.ID] = shelf
	return shelf.ID, nil
}

func (f *fakeLocationRepo) GetShelfByID(shelfID int64) (*models.Shelf, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shelf, ok := f.shelves[shelfID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *shelf
	return &copied, nil
}

func (f *fakeLocationRepo) GetShelfByBarcodeValue(value string) (*models.Shelf, error) {
	f.mu.Lock()
	shelfID, ok := f.shelfByBarcode[value]
	f.mu.Unlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.GetShelfByID(shelfID)
}

func (f *fakeLocationRepo) ListShelfIDs() ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for id := range f.shelves {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeLocationRepo) UpdateShelfAddress(_ repositories.SQLExecutor, shelfID int64, location, internalLocation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	shelf, ok := f.shelves[shelfID]
	if !ok {
		return repositories.ErrNotFound
	}
	shelf.Location = &location
	shelf.InternalLocation = &internalLocation
	f.addressUpdates[shelfID] = [2]string{location, internalLocation}
	return nil
}

func (f *fakeLocationRepo) UpdateShelfAvailableSpace(_ repositories.SQLExecutor, shelfID int64, space int, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	shelf, ok := f.shelves[shelfID]
	if !ok {
		return repositories.ErrNotFound
	}
	shelf.AvailableSpace = space
	f.spaceWrites[shelfID] = append(f.spaceWrites[shelfID], space)
	return nil
}

func (f *fakeLocationRepo) TouchShelf(_ repositories.SQLExecutor, shelfID int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shelves[shelfID]; !ok {
		return repositories.ErrNotFound
	}
	f.touched[shelfID]++
	return nil
}

func (f *fakeLocationRepo) CreateShelfPosition(_ repositories.SQLExecutor, position *models.ShelfPosition) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	position.ID = f.nextID
	f.positions[position.ID] = position
	return position.ID, nil
}

func (f *fakeLocationRepo) GetPositionByID(positionID int64) (*models.ShelfPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	position, ok := f.positions[positionID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *position
	return &copied, nil
}

func (f *fakeLocationRepo) GetPositionByShelfAndNumber(shelfID int64, positionNumber int) (*models.ShelfPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, position := range f.positions {
		if position.ShelfID == shelfID && f.positionNumbers[position.ShelfPositionNumberID] == positionNumber {
			copied := *position
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeLocationRepo) ListPositionIDsByShelf(shelfID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := []int64{}
	for id, position := range f.positions {
		if position.ShelfID == shelfID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeLocationRepo) GetShelfIDForPosition(positionID int64) (int64, error) {
	if f.shelfLookupDelay > 0 {
		time.Sleep(f.shelfLookupDelay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	position, ok := f.positions[positionID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return position.ShelfID, nil
}

func (f *fakeLocationRepo) UpdatePositionAddress(_ repositories.SQLExecutor, positionID int64, location, internalLocation string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	position, ok := f.positions[positionID]
	if !ok {
		return repositories.ErrNotFound
	}
	position.Location = &location
	position.InternalLocation = &internalLocation
	f.positionUpdates[positionID] = [2]string{location, internalLocation}
	return nil
}

func (f *fakeLocationRepo) EnsurePositionNumber(_ repositories.SQLExecutor, number int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.positionNumbers {
		if n == number {
			return id, nil
		}
	}
	f.nextID++
	f.positionNumbers[f.nextID] = number
	return f.nextID, nil
}

func (f *fakeLocationRepo) GetPositionNumber(positionNumberID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	number, ok := f.positionNumbers[positionNumberID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return number, nil
}

func (f *fakeLocationRepo) GetShelfAddressChain(shelfID int64) (*models.ShelfAddressChain, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.chainErrs[shelfID]; ok {
		return nil, err
	}
	chain, ok := f.chains[shelfID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *chain
	return &copied, nil
}

func (f *fakeLocationRepo) GetPositionAddressChain(positionID int64) (*models.ShelfAddressChain, error) {
	position, err := f.GetPositionByID(positionID)
	if err != nil {
		return nil, err
	}
	chain, err := f.GetShelfAddressChain(position.ShelfID)
	if err != nil {
		return nil, err
	}
	number, err := f.GetPositionNumber(position.ShelfPositionNumberID)
	if err != nil {
		return nil, err
	}
	chain.PositionID = &position.ID
	chain.PositionNumber = &number
	return chain, nil
}

func (f *fakeLocationRepo) FindAvailablePositions(_ *int64, _ int64, _ *int64, limit int) ([]models.ShelfPosition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []models.ShelfPosition{}
	for _, position := range f.available {
		if f.occupied[position.ID] {
			continue
		}
		result = append(result, position)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeLocationRepo) CountPositions(_ repositories.SQLExecutor, shelfID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, position := range f.positions {
		if position.ShelfID == shelfID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLocationRepo) CountOccupiedPositions(_ repositories.SQLExecutor, shelfID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for id, position := range f.positions {
		if position.ShelfID == shelfID && f.occupied[id] {
			count++
		}
	}
	return count, nil
}

func (f *fakeLocationRepo) CreateShelfType(shelfType *models.ShelfType) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	shelfType.ID = f.nextID
	f.shelfTypes[shelfType.ID] = shelfType
	return shelfType.ID, nil
}

func (f *fakeLocationRepo) GetShelfTypeByID(shelfTypeID int64) (*models.ShelfType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shelfType, ok := f.shelfTypes[shelfTypeID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *shelfType
	return &copied, nil
}

func (f *fakeLocationRepo) CountShelvesOfType(shelfTypeID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, shelf := range f.shelves {
		if shelf.ShelfTypeID == shelfTypeID {
			count++
		}
	}
	return count, nil
}

func (f *fakeLocationRepo) DeleteShelfType(shelfTypeID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.shelfTypes[shelfTypeID]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.shelfTypes, shelfTypeID)
	return nil
}

type fakeContainerRepo struct {
	mu sync.Mutex

	barcodes       map[string]*models.Barcode
	barcodeTypes   map[string]int64
	trays          map[int64]*models.Tray
	trayByBarcode  map[string]int64
	nonTrays       map[int64]*models.NonTrayItem
	ntByBarcode    map[string]int64
	items          map[int64]*models.Item
	itemByBarcode  map[string]int64
	jobs           map[int64]*models.ShelvingJob
	itemsPerTray   map[int64]int
	withdrawnTrays []int64

	trayPositionErr error
}

func newFakeContainerRepo() *fakeContainerRepo {
	return &fakeContainerRepo{
		barcodes:      map[string]*models.Barcode{},
		barcodeTypes:  map[string]int64{"Shelf": 1, "Tray": 2, "Item": 3},
		trays:         map[int64]*models.Tray{},
		trayByBarcode: map[string]int64{},
		nonTrays:      map[int64]*models.NonTrayItem{},
		ntByBarcode:   map[string]int64{},
		items:         map[int64]*models.Item{},
		itemByBarcode: map[string]int64{},
		jobs:          map[int64]*models.ShelvingJob{},
		itemsPerTray:  map[int64]int{},
	}
}

func (f *fakeContainerRepo) addTray(tray *models.Tray, barcodeValue string) {
	f.trays[tray.ID] = tray
	f.trayByBarcode[barcodeValue] = tray.ID
}

func (f *fakeContainerRepo) addNonTray(item *models.NonTrayItem, barcodeValue string) {
	f.nonTrays[item.ID] = item
	f.ntByBarcode[barcodeValue] = item.ID
}

func (f *fakeContainerRepo) addItem(item *models.Item, barcodeValue string) {
	f.items[item.ID] = item
	f.itemByBarcode[barcodeValue] = item.ID
}

func (f *fakeContainerRepo) CreateBarcode(_ repositories.SQLExecutor, barcode *models.Barcode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.barcodes[barcode.Value]; ok {
		return repositories.ErrDuplicateKey
	}
	if barcode.ID == uuid.Nil {
		barcode.ID = uuid.New()
	}
	f.barcodes[barcode.Value] = barcode
	return nil
}

func (f *fakeContainerRepo) GetBarcodeByValue(value string) (*models.Barcode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	barcode, ok := f.barcodes[value]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return barcode, nil
}

func (f *fakeContainerRepo) GetBarcodeTypeIDByName(name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.barcodeTypes[name]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}

func (f *fakeContainerRepo) MarkBarcodeWithdrawn(_ repositories.SQLExecutor, barcodeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, barcode := range f.barcodes {
		if barcode.ID == barcodeID {
			barcode.Withdrawn = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeContainerRepo) GetTrayByID(trayID int64) (*models.Tray, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tray, ok := f.trays[trayID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *tray
	return &copied, nil
}

func (f *fakeContainerRepo) GetTrayByBarcodeValue(value string) (*models.Tray, error) {
	f.mu.Lock()
	trayID, ok := f.trayByBarcode[value]
	f.mu.Unlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.GetTrayByID(trayID)
}

func (f *fakeContainerRepo) GetTrayAtPosition(positionID int64) (*models.Tray, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tray := range f.trays {
		if tray.ShelfPositionID != nil && *tray.ShelfPositionID == positionID {
			copied := *tray
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContainerRepo) UpdateTrayPosition(_ repositories.SQLExecutor, trayID int64, positionID *int64, shelvedDt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.trayPositionErr != nil {
		return f.trayPositionErr
	}
	tray, ok := f.trays[trayID]
	if !ok {
		return repositories.ErrNotFound
	}
	tray.ShelfPositionID = positionID
	tray.ShelvedDt = shelvedDt
	return nil
}

func (f *fakeContainerRepo) UpdateTrayShelvingState(_ repositories.SQLExecutor, tray *models.Tray) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.trays[tray.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	*stored = *tray
	return nil
}

func (f *fakeContainerRepo) WithdrawTray(_ repositories.SQLExecutor, trayID int64, barcodeID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tray, ok := f.trays[trayID]
	if !ok {
		return repositories.ErrNotFound
	}
	tray.WithdrawnBarcodeID = tray.BarcodeID
	tray.BarcodeID = nil
	tray.ShelfPositionID = nil
	tray.ShelfPositionProposedID = nil
	f.withdrawnTrays = append(f.withdrawnTrays, trayID)
	for _, barcode := range f.barcodes {
		if barcode.ID == barcodeID {
			barcode.Withdrawn = true
		}
	}
	return nil
}

func (f *fakeContainerRepo) CountItemsInTray(trayID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemsPerTray[trayID], nil
}

func (f *fakeContainerRepo) GetNonTrayItemByID(nonTrayItemID int64) (*models.NonTrayItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.nonTrays[nonTrayItemID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

func (f *fakeContainerRepo) GetNonTrayItemByBarcodeValue(value string) (*models.NonTrayItem, error) {
	f.mu.Lock()
	itemID, ok := f.ntByBarcode[value]
	f.mu.Unlock()
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return f.GetNonTrayItemByID(itemID)
}

func (f *fakeContainerRepo) GetNonTrayItemAtPosition(positionID int64) (*models.NonTrayItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.nonTrays {
		if item.ShelfPositionID != nil && *item.ShelfPositionID == positionID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeContainerRepo) UpdateNonTrayItemPosition(_ repositories.SQLExecutor, nonTrayItemID int64, positionID *int64, shelvedDt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.nonTrays[nonTrayItemID]
	if !ok {
		return repositories.ErrNotFound
	}
	item.ShelfPositionID = positionID
	item.ShelvedDt = shelvedDt
	return nil
}

func (f *fakeContainerRepo) UpdateNonTrayItemShelvingState(_ repositories.SQLExecutor, item *models.NonTrayItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.nonTrays[item.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	*stored = *item
	return nil
}

func (f *fakeContainerRepo) GetItemByBarcodeValue(value string) (*models.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	itemID, ok := f.itemByBarcode[value]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *f.items[itemID]
	return &copied, nil
}

func (f *fakeContainerRepo) UpdateItemTray(_ repositories.SQLExecutor, itemID int64, trayID *int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemID]
	if !ok {
		return repositories.ErrNotFound
	}
	if item.TrayID != nil {
		f.itemsPerTray[*item.TrayID]--
	}
	item.TrayID = trayID
	item.Status = status
	if trayID != nil {
		f.itemsPerTray[*trayID]++
	}
	return nil
}

func (f *fakeContainerRepo) GetShelvingJobByID(jobID int64) (*models.ShelvingJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

func (f *fakeContainerRepo) ListTraysByShelvingJob(jobID int64) ([]models.Tray, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	trays := []models.Tray{}
	for _, tray := range f.trays {
		if tray.ShelvingJobID != nil && *tray.ShelvingJobID == jobID {
			trays = append(trays, *tray)
		}
	}
	return trays, nil
}

func (f *fakeContainerRepo) ListNonTrayItemsByShelvingJob(jobID int64) ([]models.NonTrayItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := []models.NonTrayItem{}
	for _, item := range f.nonTrays {
		if item.ShelvingJobID != nil && *item.ShelvingJobID == jobID {
			items = append(items, *item)
		}
	}
	return items, nil
}

type fakeDiscrepancyRepo struct {
	mu sync.Mutex

	moveDiscrepancies     []models.MoveDiscrepancy
	shelvingDiscrepancies []models.ShelvingJobDiscrepancy
	createErr             error
}

func (f *fakeDiscrepancyRepo) CreateMoveDiscrepancy(_ repositories.SQLExecutor, d *models.MoveDiscrepancy) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	d.ID = int64(len(f.moveDiscrepancies) + 1)
	f.moveDiscrepancies = append(f.moveDiscrepancies, *d)
	return d.ID, nil
}

func (f *fakeDiscrepancyRepo) CreateShelvingJobDiscrepancy(_ repositories.SQLExecutor, d *models.ShelvingJobDiscrepancy) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	d.ID = int64(len(f.shelvingDiscrepancies) + 1)
	f.shelvingDiscrepancies = append(f.shelvingDiscrepancies, *d)
	return d.ID, nil
}

func (f *fakeDiscrepancyRepo) ListMoveDiscrepancies(models.DiscrepancyFilters) ([]models.MoveDiscrepancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.MoveDiscrepancy{}, f.moveDiscrepancies...), nil
}

func (f *fakeDiscrepancyRepo) ListShelvingJobDiscrepancies(models.DiscrepancyFilters) ([]models.ShelvingJobDiscrepancy, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.ShelvingJobDiscrepancy{}, f.shelvingDiscrepancies...), nil
}

// fakeDispatcher records enqueued position pairs synchronously.
type fakeDispatcher struct {
	mu    sync.Mutex
	pairs [][2]*int64
}

func (f *fakeDispatcher) Enqueue(oldPositionID, newPositionID *int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pairs = append(f.pairs, [2]*int64{oldPositionID, newPositionID})
}

func (f *fakeDispatcher) Stop() {}

// fakeCapacityService records which shelves were recalculated.
type fakeCapacityService struct {
	mu      sync.Mutex
	calls   []int64
	failFor map[int64]int // shelf id -> remaining failures
	failErr error
}

func (f *fakeCapacityService) Recalculate(shelfID int64) (int, error) {
	return f.RecalculateIn(nil, shelfID)
}

func (f *fakeCapacityService) RecalculateIn(_ repositories.SQLExecutor, shelfID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, shelfID)
	if remaining, ok := f.failFor[shelfID]; ok && remaining > 0 {
		f.failFor[shelfID] = remaining - 1
		if f.failErr != nil {
			return 0, f.failErr
		}
		return 0, fmt.Errorf("recompute failed for shelf %d", shelfID)
	}
	return 0, nil
}

func (f *fakeCapacityService) callCount(shelfID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, id := range f.calls {
		if id == shelfID {
			count++
		}
	}
	return count
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func uuidPtr(v uuid.UUID) *uuid.UUID { return &v }
