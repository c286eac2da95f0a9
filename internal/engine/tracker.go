package engine

import (
	"sync"

	"go.uber.org/atomic"
)

// tracker is the shared completion bookkeeping for one run. Every counter
// is atomic; the completion callback fires exactly once, when the last
// input file has been accounted for either as ingested or as failed.
type tracker struct {
	totalFiles int64

	filesIngested atomic.Int64
	filesFailed   atomic.Int64

	queued    atomic.Int64
	dropped   atomic.Int64
	truncated atomic.Int64

	processed      atomic.Int64
	lookupFailures atomic.Int64
	writeErrors    atomic.Int64

	once       sync.Once
	onComplete func()
}

func newTracker(totalFiles int, onComplete func()) *tracker {
	t := &tracker{
		totalFiles: int64(totalFiles),
		onComplete: onComplete,
	}
	if totalFiles == 0 {
		t.complete()
	}
	return t
}

// fileIngested records a requester that reached end of file.
func (t *tracker) fileIngested() {
	t.filesIngested.Inc()
	t.check()
}

// fileFailed records a requester that stopped before end of file.
func (t *tracker) fileFailed() {
	t.filesFailed.Inc()
	t.check()
}

// ingestionComplete reports whether every input file has been accounted for.
func (t *tracker) ingestionComplete() bool {
	return t.filesIngested.Load()+t.filesFailed.Load() >= t.totalFiles
}

func (t *tracker) check() {
	if t.ingestionComplete() {
		t.complete()
	}
}

func (t *tracker) complete() {
	t.once.Do(func() {
		if t.onComplete != nil {
			t.onComplete()
		}
	})
}
