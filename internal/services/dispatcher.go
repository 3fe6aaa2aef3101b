package services

import (
	"errors"
	"fmt"
	"sync"

	"stacks_inventory_backend/internal/repositories"
	"stacks_inventory_backend/pkg/utils"
)

const (
	dispatcherWorkers   = 4
	dispatcherQueueSize = 256
)

// OccupancyDispatcher is the single asynchronous boundary in the
// subsystem. Callers hand it the before/after position pair of a
// committed occupancy change; a small fixed worker pool resolves the
// affected shelf or shelves and runs the capacity recompute, so neither
// the shelf lookups nor the count queries run on the request path.
type OccupancyDispatcher interface {
	// Enqueue schedules recomputes for the shelves holding the given
	// positions. Either id may be nil (shelving has no old position,
	// withdrawal has no new one). Call only after the occupancy change
	// has committed. The only way it suspends the caller is a full
	// queue.
	Enqueue(oldPositionID, newPositionID *int64)

	// Stop drains the queue and waits for in-flight recomputes.
	Stop()
}

// positionPair is one queued occupancy change, still in position terms;
// the worker maps it to shelves in its own session.
type positionPair struct {
	oldPositionID *int64
	newPositionID *int64
}

type occupancyDispatcher struct {
	capacityService CapacityService
	locationRepo    repositories.LocationRepository

	jobs chan positionPair
	wg   sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

// NewOccupancyDispatcher starts the worker pool and returns the running
// dispatcher. Callers own its lifecycle and must Stop it on shutdown.
func NewOccupancyDispatcher(capacityService CapacityService, locationRepo repositories.LocationRepository) OccupancyDispatcher {
	d := &occupancyDispatcher{
		capacityService: capacityService,
		locationRepo:    locationRepo,
		jobs:            make(chan positionPair, dispatcherQueueSize),
	}
	for i := 0; i < dispatcherWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *occupancyDispatcher) Enqueue(oldPositionID, newPositionID *int64) {
	if oldPositionID == nil && newPositionID == nil {
		return
	}
	pair := positionPair{oldPositionID: oldPositionID, newPositionID: newPositionID}

	// The send happens under the mutex so Stop cannot close the channel
	// between the stopped check and the send.
	d.mu.Lock()
	if !d.stopped {
		d.jobs <- pair
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	// Shutdown already drained the queue; run inline rather than lose
	// the recompute.
	d.process(pair)
}

// resolveShelves maps the position pair to the distinct shelves touched.
// A move within one shelf yields a single recompute, not two.
func (d *occupancyDispatcher) resolveShelves(oldPositionID, newPositionID *int64) []int64 {
	shelfIDs := []int64{}
	seen := map[int64]bool{}
	for _, positionID := range []*int64{oldPositionID, newPositionID} {
		if positionID == nil {
			continue
		}
		shelfID, err := d.locationRepo.GetShelfIDForPosition(*positionID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				utils.LogError(err, fmt.Sprintf("occupancy dispatch: position %d has no shelf", *positionID))
				continue
			}
			utils.LogError(err, fmt.Sprintf("occupancy dispatch: resolving position %d", *positionID))
			continue
		}
		if !seen[shelfID] {
			seen[shelfID] = true
			shelfIDs = append(shelfIDs, shelfID)
		}
	}
	return shelfIDs
}

func (d *occupancyDispatcher) worker() {
	defer d.wg.Done()
	for pair := range d.jobs {
		d.process(pair)
	}
}

func (d *occupancyDispatcher) process(pair positionPair) {
	for _, shelfID := range d.resolveShelves(pair.oldPositionID, pair.newPositionID) {
		d.recalculate(shelfID)
	}
}

// recalculate runs the capacity recompute with one retry. A recompute is
// idempotent and self-healing, so a dropped job only extends the
// staleness window until the next occupancy change on the shelf.
func (d *occupancyDispatcher) recalculate(shelfID int64) {
	if _, err := d.capacityService.Recalculate(shelfID); err != nil {
		if _, retryErr := d.capacityService.Recalculate(shelfID); retryErr != nil {
			utils.LogError(retryErr, fmt.Sprintf("capacity recompute dropped for shelf %d after retry", shelfID))
		}
	}
}

func (d *occupancyDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
	utils.LogInfo("occupancy dispatcher stopped")
}
