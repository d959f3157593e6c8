// Package changes tracks whether an event's WIP schedule differs from the
// released one and diffs schedule versions.
package changes

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/conftable/conftable/internal/schedule"
)

// DefaultTTL is how long a computed flag is served before a read recomputes it.
const DefaultTTL = 10 * time.Minute

// Source is the storage the detector reads slot sets from.
type Source interface {
	GetEvent(ctx context.Context, id int64) (*schedule.Event, error)
	GetWIP(ctx context.Context, eventID int64) (*schedule.Version, error)
	ListSlots(ctx context.Context, versionID int64) ([]*schedule.Slot, error)
	SetUnreleasedChanges(ctx context.Context, eventID int64, value bool) error
}

// Detector keeps the per-event unreleased-changes flag. Slot mutations queue
// a recompute handled by a background worker; readers get the cached value,
// which may be stale while a recompute is pending.
type Detector struct {
	repo   Source
	cache  *cache.Cache
	jobs   chan int64
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
	gens    map[int64]uint64 // bumped by Released
	pending sync.WaitGroup

	// flagMu orders flag writes against releases.
	flagMu sync.Mutex
}

var _ schedule.Notifier = (*Detector)(nil)

// NewDetector creates a detector with a queue of queueSize recompute jobs.
func NewDetector(repo Source, queueSize int, logger *slog.Logger) *Detector {
	if queueSize <= 0 {
		queueSize = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Detector{
		repo:   repo,
		cache:  cache.New(DefaultTTL, 2*DefaultTTL),
		jobs:   make(chan int64, queueSize),
		gens:   make(map[int64]uint64),
		logger: logger,
	}
}

// Start launches the worker goroutine. It stops when ctx is done.
func (d *Detector) Start(ctx context.Context) {
	go d.worker(ctx)
}

func (d *Detector) worker(ctx context.Context) {
	d.logger.Debug("change detector started")
	for {
		select {
		case eventID := <-d.jobs:
			if _, err := d.Recompute(ctx, eventID); err != nil {
				d.logger.Error("recomputing unreleased changes", "event", eventID, "err", err)
			}
			d.pending.Done()
		case <-ctx.Done():
			d.stop()
			d.logger.Debug("change detector shutting down")
			return
		}
	}
}

// stop rejects new jobs and drops queued ones; their events recompute on the
// next read.
func (d *Detector) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for {
		select {
		case eventID := <-d.jobs:
			d.cache.Delete(key(eventID))
			d.pending.Done()
		default:
			return
		}
	}
}

// SlotsChanged queues a recompute for the event. It never blocks: when the
// queue is full the cached flag is dropped so the next read recomputes it.
func (d *Detector) SlotsChanged(eventID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		d.cache.Delete(key(eventID))
		return
	}

	d.pending.Add(1)
	select {
	case d.jobs <- eventID:
	default:
		d.pending.Done()
		d.cache.Delete(key(eventID))
		d.logger.Warn("change queue full, deferring recompute to next read", "event", eventID)
	}
}

// Released forces the flag to false, since a freeze makes WIP and current
// equal, and queues a recompute. Recomputes that started before the release
// are discarded.
func (d *Detector) Released(eventID int64) {
	d.flagMu.Lock()
	d.mu.Lock()
	d.gens[eventID]++
	d.mu.Unlock()

	d.cache.Set(key(eventID), false, cache.DefaultExpiration)
	if err := d.repo.SetUnreleasedChanges(context.Background(), eventID, false); err != nil {
		d.logger.Error("clearing unreleased changes", "event", eventID, "err", err)
	}
	d.flagMu.Unlock()

	d.SlotsChanged(eventID)
}

func (d *Detector) generation(eventID int64) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gens[eventID]
}

// HasUnreleasedChanges returns the cached flag, recomputing it on a miss.
func (d *Detector) HasUnreleasedChanges(ctx context.Context, eventID int64) (bool, error) {
	if v, found := d.cache.Get(key(eventID)); found {
		return v.(bool), nil
	}
	return d.Recompute(ctx, eventID)
}

// Recompute compares WIP with the current version and stores the result.
// Before the first release any WIP slot counts as unreleased.
func (d *Detector) Recompute(ctx context.Context, eventID int64) (bool, error) {
	gen := d.generation(eventID)

	e, err := d.repo.GetEvent(ctx, eventID)
	if err != nil {
		return false, err
	}
	wip, err := d.repo.GetWIP(ctx, eventID)
	if err != nil {
		return false, fmt.Errorf("getting wip schedule: %w", err)
	}
	wipSlots, err := d.repo.ListSlots(ctx, wip.ID)
	if err != nil {
		return false, fmt.Errorf("listing wip slots: %w", err)
	}

	var current []*schedule.Slot
	if e.CurrentVersionID != nil {
		current, err = d.repo.ListSlots(ctx, *e.CurrentVersionID)
		if err != nil {
			return false, fmt.Errorf("listing current slots: %w", err)
		}
	}

	changed := !Same(wipSlots, current)

	d.flagMu.Lock()
	defer d.flagMu.Unlock()
	if d.generation(eventID) != gen {
		d.logger.Debug("discarding recompute started before a release", "event", e.Slug)
		if v, found := d.cache.Get(key(eventID)); found {
			return v.(bool), nil
		}
		return false, nil
	}
	d.cache.Set(key(eventID), changed, cache.DefaultExpiration)

	if changed != e.HasUnreleasedChanges {
		if err := d.repo.SetUnreleasedChanges(ctx, eventID, changed); err != nil {
			return changed, fmt.Errorf("saving unreleased changes: %w", err)
		}
	}

	d.logger.Debug("unreleased changes recomputed", "event", e.Slug,
		"changed", changed, "wip_slots", len(wipSlots), "current_slots", len(current))
	return changed, nil
}

// Wait blocks until every queued recompute has finished. Start must have
// been called.
func (d *Detector) Wait() {
	d.pending.Wait()
}

func key(eventID int64) string {
	return strconv.FormatInt(eventID, 10)
}
