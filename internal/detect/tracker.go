package detect

import (
	"errors"
	"sync"

	"github.com/HerbHall/minerwatch/pkg/models"
)

// ErrScanInProgress is returned when a scan is triggered while another one
// is still running.
var ErrScanInProgress = errors.New("scan already in progress")

// tracker holds the busy flag and the latest successful outcome. Each scan
// gets a sequence number; an outcome older than the one held is dropped.
type tracker struct {
	mu        sync.Mutex
	busy      bool
	seq       uint64
	latestSeq uint64
	latest    *models.ScanOutcome
}

// begin claims the scanner and returns the new scan's sequence number.
func (t *tracker) begin() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.busy {
		return 0, ErrScanInProgress
	}
	t.busy = true
	t.seq++
	return t.seq, nil
}

// end releases the scanner and offers outcome (nil for a failed scan).
func (t *tracker) end(seq uint64, outcome *models.ScanOutcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq == t.seq {
		t.busy = false
	}
	return t.offerLocked(seq, outcome)
}

func (t *tracker) offerLocked(seq uint64, outcome *models.ScanOutcome) bool {
	if outcome == nil || seq <= t.latestSeq {
		return false
	}
	t.latestSeq = seq
	t.latest = outcome
	return true
}

// Busy reports whether a scan is running.
func (t *tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.busy
}

// Latest returns the newest successful outcome.
func (t *tracker) Latest() (*models.ScanOutcome, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest, t.latest != nil
}
