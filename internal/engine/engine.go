// Package engine runs one multilookup pass: a requester task per input file
// feeds hostnames into a bounded shared queue, and a fixed pool of resolver
// tasks drains it, resolves each hostname, and writes "hostname,address"
// lines to the single output file.
//
// All run state (queue, completion tracker, output sink) is created by Run
// and handed to the tasks explicitly; nothing is global.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lc/multilookup/internal/dnsresolver"
	"github.com/lc/multilookup/internal/filesys"
	"github.com/lc/multilookup/internal/log"
	"github.com/lc/multilookup/internal/output"
	"github.com/lc/multilookup/internal/queue"
)

var (
	// ErrUsage is returned when the run has no input file or no output file.
	ErrUsage = errors.New("usage error")
	// ErrInvalidOptions is returned for out-of-range sizes.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrOutput is returned when the output file cannot be created or flushed.
	ErrOutput = errors.New("output file")
)

// Options describes one run.
type Options struct {
	Inputs        []string
	Output        string
	QueueCapacity int
	Resolvers     int
	MaxNameLength int
}

// Validate checks opts before any file is touched.
func (o Options) Validate() error {
	if len(o.Inputs) == 0 {
		return fmt.Errorf("%w: at least one input file is required", ErrUsage)
	}
	if o.Output == "" {
		return fmt.Errorf("%w: an output file is required", ErrUsage)
	}
	if o.QueueCapacity < 1 {
		return fmt.Errorf("%w: queue capacity must be at least 1", ErrInvalidOptions)
	}
	if o.Resolvers < 1 {
		return fmt.Errorf("%w: at least one resolver is required", ErrInvalidOptions)
	}
	if o.MaxNameLength < 1 {
		return fmt.Errorf("%w: max name length must be at least 1", ErrInvalidOptions)
	}
	return nil
}

// Stats is the outcome of a run.
type Stats struct {
	RunID string

	FilesTotal    int
	FilesIngested int
	FilesFailed   int

	Queued    int
	Dropped   int
	Truncated int

	Processed      int
	LookupFailures int
	WriteErrors    int
	Written        int

	QueueHighWater int
	Duration       time.Duration

	Requesters []RequesterReport
	Resolvers  []ResolverReport

	// Err merges the task-local failures (unreadable input files). They do
	// not fail the run.
	Err error
}

// Engine wires the pipeline for one run.
type Engine struct {
	fs       filesys.FileOps
	resolver dnsresolver.Resolver
	opts     Options
	runID    string
	log      *zap.SugaredLogger
}

// New creates an Engine. Each engine gets a fresh run ID that tags its log lines.
func New(fs filesys.FileOps, resolver dnsresolver.Resolver, opts Options) *Engine {
	id := uuid.NewString()
	return &Engine{
		fs:       fs,
		resolver: resolver,
		opts:     opts,
		runID:    id,
		log:      log.With("run", id),
	}
}

// RunID returns the identifier attached to this engine's log lines.
func (e *Engine) RunID() string { return e.runID }

// Run executes the pipeline and blocks until every task has finished.
//
// The output file is created before any task starts; failing to create it
// is fatal. Requesters and resolvers run concurrently. Once the last
// requester has finished, the queue is closed and each resolver exits
// after the queue is drained. The returned error is non-nil only for fatal
// conditions; task-local failures are reported in Stats.Err.
func (e *Engine) Run(ctx context.Context) (Stats, error) {
	if err := e.opts.Validate(); err != nil {
		return Stats{}, err
	}
	start := time.Now()

	out, err := e.fs.Create(e.opts.Output)
	if err != nil {
		return Stats{}, fmt.Errorf("%w %q: %w", ErrOutput, e.opts.Output, err)
	}
	sink := output.NewSink(out)

	q := queue.New[string](e.opts.QueueCapacity)
	track := newTracker(len(e.opts.Inputs), q.Close)

	e.log.Infow("engine: starting",
		"inputs", len(e.opts.Inputs),
		"output", e.opts.Output,
		"queue_capacity", e.opts.QueueCapacity,
		"resolvers", e.opts.Resolvers,
	)

	reqReports := make([]RequesterReport, len(e.opts.Inputs))
	resReports := make([]ResolverReport, e.opts.Resolvers)

	// The groups only join tasks. Task errors travel in the reports.
	var requesters, resolvers errgroup.Group
	for i, path := range e.opts.Inputs {
		r := &requester{
			path:   path,
			fs:     e.fs,
			queue:  q,
			maxLen: e.opts.MaxNameLength,
			track:  track,
			log:    e.log.With("task", "requester", "input", path),
		}
		requesters.Go(func() error {
			reqReports[i] = r.run(ctx)
			return nil
		})
	}
	for i := range e.opts.Resolvers {
		w := &resolverTask{
			id:       i,
			queue:    q,
			resolver: e.resolver,
			sink:     sink,
			track:    track,
			log:      e.log.With("task", "resolver", "id", i),
		}
		resolvers.Go(func() error {
			resReports[i] = w.run(ctx)
			return nil
		})
	}

	// Ingestion barrier. The tracker has closed the queue by now.
	_ = requesters.Wait()
	e.log.Infow("engine: ingestion complete",
		"files_ingested", track.filesIngested.Load(),
		"files_failed", track.filesFailed.Load(),
		"queued", track.queued.Load(),
	)
	_ = resolvers.Wait()

	closeErr := sink.Close()

	stats := Stats{
		RunID:          e.runID,
		FilesTotal:     len(e.opts.Inputs),
		FilesIngested:  int(track.filesIngested.Load()),
		FilesFailed:    int(track.filesFailed.Load()),
		Queued:         int(track.queued.Load()),
		Dropped:        int(track.dropped.Load()),
		Truncated:      int(track.truncated.Load()),
		Processed:      int(track.processed.Load()),
		LookupFailures: int(track.lookupFailures.Load()),
		WriteErrors:    int(track.writeErrors.Load()),
		Written:        int(sink.Written()),
		QueueHighWater: q.HighWater(),
		Duration:       time.Since(start),
		Requesters:     reqReports,
		Resolvers:      resReports,
	}
	for _, r := range reqReports {
		stats.Err = multierr.Append(stats.Err, r.Err)
	}

	if closeErr != nil {
		return stats, fmt.Errorf("%w %q: %w", ErrOutput, e.opts.Output, closeErr)
	}

	e.log.Infow("engine: finished",
		"written", stats.Written,
		"lookup_failures", stats.LookupFailures,
		"dropped", stats.Dropped,
		"duration", stats.Duration,
	)
	return stats, nil
}
