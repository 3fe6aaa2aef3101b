package services

import (
	"database/sql"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stacks_inventory_backend/internal/models"
)

type shelvingFixture struct {
	locationRepo    *fakeLocationRepo
	containerRepo   *fakeContainerRepo
	discrepancyRepo *fakeDiscrepancyRepo
	dispatcher      *fakeDispatcher
	db              *sql.DB
	mock            sqlmock.Sqlmock
	service         ShelvingService
}

// newShelvingFixture builds shelving job 77 in building 3, a destination
// shelf with two free positions, and an unshelved tray on the job whose
// proposed position is 902.
func newShelvingFixture(t *testing.T) *shelvingFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	locationRepo := newFakeLocationRepo()
	locationRepo.shelfTypes[20] = &models.ShelfType{ID: 20, SizeClassID: 1, MaxCapacity: 2}
	locationRepo.addShelf(&models.Shelf{
		ID: 200, ShelfTypeID: 20, OwnerID: int64Ptr(5), AvailableSpace: 2,
		Location: strPtr("Annex-2-L-1-1"),
	}, "SH-200")
	locationRepo.addPosition(&models.ShelfPosition{
		ID: 902, ShelfID: 200, ShelfPositionNumberID: 52, Location: strPtr("Annex-2-L-1-1-1"),
	}, 1)
	locationRepo.addPosition(&models.ShelfPosition{
		ID: 903, ShelfID: 200, ShelfPositionNumberID: 53, Location: strPtr("Annex-2-L-1-1-2"),
	}, 2)

	containerRepo := newFakeContainerRepo()
	containerRepo.jobs[77] = &models.ShelvingJob{ID: 77, BuildingID: int64Ptr(3), Status: "Created"}
	containerRepo.addTray(&models.Tray{
		ID:                      1,
		BarcodeID:               uuidPtr(uuid.New()),
		ContainerTypeID:         1,
		OwnerID:                 int64Ptr(5),
		SizeClassID:             1,
		ShelvingJobID:           int64Ptr(77),
		ShelfPositionProposedID: int64Ptr(902),
		ScannedForAccession:     true,
		ScannedForVerification:  true,
	}, "TR-1")

	discrepancyRepo := &fakeDiscrepancyRepo{}
	dispatcher := &fakeDispatcher{}

	return &shelvingFixture{
		locationRepo:    locationRepo,
		containerRepo:   containerRepo,
		discrepancyRepo: discrepancyRepo,
		dispatcher:      dispatcher,
		db:              db,
		mock:            mock,
		service:         NewShelvingService(containerRepo, locationRepo, discrepancyRepo, dispatcher, db),
	}
}

func assignRequest() AssignRequest {
	return AssignRequest{
		ContainerBarcode: "TR-1",
		ShelfBarcode:     "SH-200",
		PositionNumber:   1,
		AssignedUserID:   int64Ptr(7),
	}
}

func (f *shelvingFixture) assertSingleShelvingDiscrepancy(t *testing.T, kind models.DiscrepancyKind) models.ShelvingJobDiscrepancy {
	t.Helper()
	require.Len(t, f.discrepancyRepo.shelvingDiscrepancies, 1, "expected exactly one discrepancy")
	d := f.discrepancyRepo.shelvingDiscrepancies[0]
	assert.True(t, strings.HasPrefix(d.Error, string(kind)), "discrepancy %q should carry kind %q", d.Error, kind)
	assert.Equal(t, int64(77), d.ShelvingJobID)
	return d
}

func TestAssignToShelfAtProposedPosition(t *testing.T) {
	f := newShelvingFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.service.AssignToShelf(77, assignRequest()))

	tray := f.containerRepo.trays[1]
	assert.Equal(t, int64(902), *tray.ShelfPositionID)
	assert.True(t, tray.ScannedForShelving)
	require.NotNil(t, tray.ShelvedDt)

	assert.Empty(t, f.discrepancyRepo.shelvingDiscrepancies, "scan at the proposed position is not a deviation")
	require.Len(t, f.dispatcher.pairs, 1)
	assert.Nil(t, f.dispatcher.pairs[0][0])
	assert.Equal(t, int64(902), *f.dispatcher.pairs[0][1])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

// A scan away from the proposal is ledgered but the placement proceeds.
func TestAssignToShelfLocationDeviation(t *testing.T) {
	f := newShelvingFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	req := assignRequest()
	req.PositionNumber = 2
	require.NoError(t, f.service.AssignToShelf(77, req))

	assert.Equal(t, int64(903), *f.containerRepo.trays[1].ShelfPositionID, "placement must proceed despite the deviation")

	d := f.assertSingleShelvingDiscrepancy(t, models.DiscrepancyLocation)
	assert.Equal(t, "Annex-2-L-1-1-1", *d.PreAssignedLocation)
	assert.Equal(t, "Annex-2-L-1-1-2", *d.AssignedLocation)
}

func TestAssignToShelfUnknownJob(t *testing.T) {
	f := newShelvingFixture(t)

	err := f.service.AssignToShelf(404, assignRequest())
	require.ErrorIs(t, err, ErrShelvingJobNotFound)
	assert.Empty(t, f.discrepancyRepo.shelvingDiscrepancies)
}

func TestAssignToShelfUnknownContainer(t *testing.T) {
	f := newShelvingFixture(t)

	req := assignRequest()
	req.ContainerBarcode = "NOPE"
	err := f.service.AssignToShelf(77, req)
	require.ErrorIs(t, err, ErrContainerNotFound)
	assert.Empty(t, f.discrepancyRepo.shelvingDiscrepancies)
}

func TestAssignToShelfWithdrawnContainer(t *testing.T) {
	f := newShelvingFixture(t)
	tray := f.containerRepo.trays[1]
	tray.WithdrawnBarcodeID = tray.BarcodeID
	tray.BarcodeID = nil

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrShelvingRejected)
	f.assertSingleShelvingDiscrepancy(t, models.DiscrepancyNotShelved)
}

func TestAssignToShelfNotAccessioned(t *testing.T) {
	f := newShelvingFixture(t)
	f.containerRepo.trays[1].ScannedForAccession = false

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrShelvingRejected)
	f.assertSingleShelvingDiscrepancy(t, models.DiscrepancyNotAccessioned)
	assert.Nil(t, f.containerRepo.trays[1].ShelfPositionID)
}

func TestAssignToShelfOwnerMismatch(t *testing.T) {
	f := newShelvingFixture(t)
	f.locationRepo.shelves[200].OwnerID = int64Ptr(6)

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrShelvingRejected)

	d := f.assertSingleShelvingDiscrepancy(t, models.DiscrepancyOwner)
	assert.Equal(t, int64(5), *d.OwnerID)
}

func TestAssignToShelfSizeMismatch(t *testing.T) {
	f := newShelvingFixture(t)
	f.locationRepo.shelfTypes[20].SizeClassID = 2

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrShelvingRejected)
	f.assertSingleShelvingDiscrepancy(t, models.DiscrepancySize)
}

func TestAssignToShelfNoAvailableSpace(t *testing.T) {
	f := newShelvingFixture(t)
	f.locationRepo.shelves[200].AvailableSpace = 0

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrShelvingRejected)
	f.assertSingleShelvingDiscrepancy(t, models.DiscrepancyAvailableSpace)
}

func TestAssignToShelfOccupiedPosition(t *testing.T) {
	f := newShelvingFixture(t)
	f.containerRepo.addNonTray(&models.NonTrayItem{
		ID: 11, BarcodeID: uuidPtr(uuid.New()), ContainerTypeID: 2,
		SizeClassID: 1, ShelfPositionID: int64Ptr(902),
	}, "NT-11")

	err := f.service.AssignToShelf(77, assignRequest())
	require.ErrorIs(t, err, ErrPositionOccupied)
	assert.Empty(t, f.discrepancyRepo.shelvingDiscrepancies, "occupancy conflict is not a discrepancy")
	assert.Nil(t, f.containerRepo.trays[1].ShelfPositionID)
}

func TestProposePositionsPlacesUnshelvedContainers(t *testing.T) {
	f := newShelvingFixture(t)
	f.locationRepo.available = []models.ShelfPosition{
		*f.locationRepo.positions[902],
		*f.locationRepo.positions[903],
	}
	f.containerRepo.trays[1].ShelfPositionProposedID = nil
	f.containerRepo.addNonTray(&models.NonTrayItem{
		ID: 11, BarcodeID: uuidPtr(uuid.New()), ContainerTypeID: 2,
		OwnerID: int64Ptr(5), SizeClassID: 1, ShelvingJobID: int64Ptr(77),
		ScannedForAccession: true, ScannedForVerification: true,
	}, "NT-11")

	result, err := f.service.ProposePositions(77, ProposeRequest{UseBuildingScope: true})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TraysProposed)
	assert.Equal(t, 1, result.NonTrayItemsProposed)
	assert.Equal(t, 0, result.Unplaced)

	tray := f.containerRepo.trays[1]
	require.NotNil(t, tray.ShelfPositionProposedID)
	assert.Equal(t, *tray.ShelfPositionProposedID, *tray.ShelfPositionID, "proposal doubles as the initial placement")

	assert.Len(t, f.dispatcher.pairs, 2)
	for _, pair := range f.dispatcher.pairs {
		assert.Nil(t, pair[0])
		assert.NotNil(t, pair[1])
	}
}

func TestProposePositionsSkipsAlreadyProposed(t *testing.T) {
	f := newShelvingFixture(t)
	f.locationRepo.available = []models.ShelfPosition{*f.locationRepo.positions[903]}

	// The fixture tray already has a proposal; nothing to do.
	result, err := f.service.ProposePositions(77, ProposeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TraysProposed)
	assert.Equal(t, 0, result.Unplaced)
	assert.Empty(t, f.dispatcher.pairs)
}

func TestProposePositionsCountsUnplaced(t *testing.T) {
	f := newShelvingFixture(t)
	f.containerRepo.trays[1].ShelfPositionProposedID = nil
	// No free candidate positions at all.
	f.locationRepo.available = nil

	result, err := f.service.ProposePositions(77, ProposeRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.TraysProposed)
	assert.Equal(t, 1, result.Unplaced)
	assert.Nil(t, f.containerRepo.trays[1].ShelfPositionID)
}

func TestProposePositionsUnknownJob(t *testing.T) {
	f := newShelvingFixture(t)

	_, err := f.service.ProposePositions(404, ProposeRequest{})
	require.ErrorIs(t, err, ErrShelvingJobNotFound)
}
