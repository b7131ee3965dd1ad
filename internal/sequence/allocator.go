// ABOUTME: Sequence id and volume computations derived from the record log
// ABOUTME: Pure functions over store snapshots, no independent counter state

package sequence

import (
	"context"
	"fmt"
)

// Snapshot is the read-only view of the store the allocator needs.
type Snapshot interface {
	MaxSequenceID(ctx context.Context) (int64, error)
	CountRecords(ctx context.Context) (int, error)
}

// Summary reports volume progress at a point in time.
type Summary struct {
	Volume          int
	RecordsInVolume int
	TotalRecords    int
}

// Allocator derives sequence ids and volume numbers from a store snapshot.
type Allocator struct {
	snapshot         Snapshot
	recordsPerVolume int
}

// NewAllocator creates an allocator over the given snapshot.
// recordsPerVolume must be positive.
func NewAllocator(snapshot Snapshot, recordsPerVolume int) (*Allocator, error) {
	if recordsPerVolume <= 0 {
		return nil, fmt.Errorf("records per volume must be positive, got %d", recordsPerVolume)
	}
	return &Allocator{
		snapshot:         snapshot,
		recordsPerVolume: recordsPerVolume,
	}, nil
}

// NextSequenceID returns the id the next appended record will receive:
// one past the highest assigned id, or 1 for an empty log.
func (a *Allocator) NextSequenceID(ctx context.Context) (int64, error) {
	maxID, err := a.snapshot.MaxSequenceID(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading max sequence id: %w", err)
	}
	return maxID + 1, nil
}

// VolumeFor computes the volume a sequence id belongs to.
func (a *Allocator) VolumeFor(sequenceID int64) int {
	return int((sequenceID-1)/int64(a.recordsPerVolume)) + 1
}

// CurrentVolume returns the volume of the most recent record, given the
// total record count. An empty log is in volume 1.
func (a *Allocator) CurrentVolume(totalRecords int) int {
	if totalRecords == 0 {
		return 1
	}
	return (totalRecords-1)/a.recordsPerVolume + 1
}

// Summary reports the current volume, how many records it holds and the
// total record count. A volume that has just filled reports a full count
// rather than zero.
func (a *Allocator) Summary(ctx context.Context) (*Summary, error) {
	total, err := a.snapshot.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	inVolume := total % a.recordsPerVolume
	if inVolume == 0 && total > 0 {
		inVolume = a.recordsPerVolume
	}

	return &Summary{
		Volume:          a.CurrentVolume(total),
		RecordsInVolume: inVolume,
		TotalRecords:    total,
	}, nil
}
