package engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/lc/multilookup/internal/dnsresolver"
	"github.com/lc/multilookup/internal/output"
	"github.com/lc/multilookup/internal/queue"
)

// ResolverReport summarizes one resolver task.
type ResolverReport struct {
	ID             int
	Processed      int // hostnames popped from the queue
	LookupFailures int // hostnames written with an empty address
	WriteErrors    int // records the sink rejected
}

// resolverTask drains the shared queue until it is closed and empty.
type resolverTask struct {
	id       int
	queue    *queue.Queue[string]
	resolver dnsresolver.Resolver
	sink     *output.Sink
	track    *tracker
	log      *zap.SugaredLogger
}

func (w *resolverTask) run(ctx context.Context) (rep ResolverReport) {
	rep.ID = w.id

	for {
		// Pop holds the queue lock only for the pop itself; the lookup and
		// the sink write happen after it is released.
		host, err := w.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) {
				w.log.Warnw("resolver: stopping before queue drained", "error", err)
			}
			break
		}
		if err := ctx.Err(); err != nil {
			// Entries still queued are not lookup failures.
			w.log.Warnw("resolver: stopping before queue drained", "error", err, "hostname", host)
			break
		}
		rep.Processed++
		w.track.processed.Inc()

		addr, err := w.resolver.Resolve(ctx, host)
		if err != nil {
			addr = ""
			rep.LookupFailures++
			w.track.lookupFailures.Inc()
			w.log.Warnw("resolver: lookup failed", "hostname", host, "error", err)
		}

		if err := w.sink.Write(output.Record{Hostname: host, Address: addr}); err != nil {
			rep.WriteErrors++
			w.track.writeErrors.Inc()
			w.log.Errorw("resolver: write failed", "hostname", host, "error", err)
		}
	}

	w.log.Infow("resolver: finished", "processed", rep.Processed, "lookup_failures", rep.LookupFailures)
	return rep
}
