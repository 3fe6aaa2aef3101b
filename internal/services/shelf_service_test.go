package services

import (
	"database/sql"
	"sync"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacks_inventory_backend/internal/models"
)

type fakeAddressService struct {
	mu               sync.Mutex
	shelfDerives      []int64
	positionDerives   []int64
	deriveShelfErr    error
	derivePositionErr error
}

func (f *fakeAddressService) DeriveShelfAddress(shelfID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deriveShelfErr != nil {
		return f.deriveShelfErr
	}
	f.shelfDerives = append(f.shelfDerives, shelfID)
	return nil
}

func (f *fakeAddressService) DerivePositionAddress(positionID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.derivePositionErr != nil {
		return f.derivePositionErr
	}
	f.positionDerives = append(f.positionDerives, positionID)
	return nil
}

func (f *fakeAddressService) RebuildAllAddresses() (*AddressRebuildReport, error) {
	return &AddressRebuildReport{}, nil
}

type shelfFixture struct {
	locationRepo   *fakeLocationRepo
	containerRepo  *fakeContainerRepo
	addressService *fakeAddressService
	db             *sql.DB
	mock           sqlmock.Sqlmock
	service        ShelfService
}

func newShelfFixture(t *testing.T) *shelfFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	locationRepo := newFakeLocationRepo()
	locationRepo.shelfTypes[10] = &models.ShelfType{ID: 10, Type: "Standard", SizeClassID: 1, MaxCapacity: 3}

	containerRepo := newFakeContainerRepo()
	addressService := &fakeAddressService{}

	return &shelfFixture{
		locationRepo:   locationRepo,
		containerRepo:  containerRepo,
		addressService: addressService,
		db:             db,
		mock:           mock,
		service:        NewShelfService(locationRepo, containerRepo, addressService, db),
	}
}

func createShelfRequest() CreateShelfRequest {
	return CreateShelfRequest{
		LadderID:        15,
		ShelfNumberID:   5,
		ShelfTypeID:     10,
		ContainerTypeID: 1,
		OwnerID:         int64Ptr(5),
		BarcodeValue:    "SH-NEW",
		Height:          decimal.NewFromInt(40),
		Width:           decimal.NewFromInt(90),
		Depth:           decimal.NewFromInt(60),
	}
}

func TestCreateShelfBuildsPositionsAndAddresses(t *testing.T) {
	f := newShelfFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	shelf, err := f.service.CreateShelf(createShelfRequest())
	require.NoError(t, err)
	require.NotNil(t, shelf)

	// One position per capacity slot, space starts at full capacity.
	assert.Equal(t, 3, shelf.AvailableSpace)
	positionIDs, err := f.locationRepo.ListPositionIDsByShelf(shelf.ID)
	require.NoError(t, err)
	assert.Len(t, positionIDs, 3)

	assert.Equal(t, []int64{shelf.ID}, f.addressService.shelfDerives)
	assert.Len(t, f.addressService.positionDerives, 3)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestCreateShelfUnknownShelfType(t *testing.T) {
	f := newShelfFixture(t)

	req := createShelfRequest()
	req.ShelfTypeID = 404
	_, err := f.service.CreateShelf(req)
	require.ErrorIs(t, err, ErrShelfTypeNotFound)
}

func TestCreateShelfBrokenAddressChain(t *testing.T) {
	f := newShelfFixture(t)
	f.addressService.deriveShelfErr = ErrBrokenAddressChain
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.service.CreateShelf(createShelfRequest())
	require.ErrorIs(t, err, ErrBrokenAddressChain)
}

func TestGetShelfNotFound(t *testing.T) {
	f := newShelfFixture(t)

	_, err := f.service.GetShelf(404)
	require.ErrorIs(t, err, ErrShelfNotFound)
}

func TestDeleteShelfTypeInUse(t *testing.T) {
	f := newShelfFixture(t)
	f.locationRepo.addShelf(&models.Shelf{ID: 100, ShelfTypeID: 10}, "")

	err := f.service.DeleteShelfType(10)
	require.ErrorIs(t, err, ErrShelfTypeInUse)
	_, stillThere := f.locationRepo.shelfTypes[10]
	assert.True(t, stillThere)
}

func TestDeleteShelfTypeUnreferenced(t *testing.T) {
	f := newShelfFixture(t)

	require.NoError(t, f.service.DeleteShelfType(10))
	_, gone := f.locationRepo.shelfTypes[10]
	assert.False(t, gone)
}

func TestDeleteShelfTypeNotFound(t *testing.T) {
	f := newShelfFixture(t)

	err := f.service.DeleteShelfType(404)
	require.ErrorIs(t, err, ErrShelfTypeNotFound)
}
