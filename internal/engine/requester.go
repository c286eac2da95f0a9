package engine

import (
	"bufio"
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lc/multilookup/internal/filesys"
	"github.com/lc/multilookup/internal/queue"
)

// RequesterReport summarizes one requester task.
type RequesterReport struct {
	Path      string
	Read      int // tokens read from the file
	Queued    int // tokens pushed onto the queue
	Dropped   int // tokens read but never queued
	Truncated int // tokens shortened to the maximum name length
	Err       error
}

// requester ingests one input file into the shared queue.
type requester struct {
	path   string
	fs     filesys.FileOps
	queue  *queue.Queue[string]
	maxLen int
	track  *tracker
	log    *zap.SugaredLogger
}

func (r *requester) run(ctx context.Context) (rep RequesterReport) {
	rep.Path = r.path

	f, err := r.fs.Open(r.path)
	if err != nil {
		rep.Err = fmt.Errorf("open input %q: %w", r.path, err)
		r.log.Errorw("requester: cannot open input file", "error", err)
		r.track.fileFailed()
		return rep
	}
	defer f.Close()

	words := newWordSplitter(r.maxLen)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), words.bufferSize())
	sc.Split(words.split)

	for sc.Scan() {
		name := sc.Text()
		rep.Read++

		if words.truncated {
			rep.Truncated++
			r.track.truncated.Inc()
			r.log.Warnw("requester: hostname truncated", "hostname", name, "max_length", r.maxLen)
		}

		if err := r.queue.Push(ctx, name); err != nil {
			rep.Dropped++
			r.track.dropped.Inc()
			r.log.Errorw("requester: hostname dropped", "hostname", name, "error", err)
			if ctxErr := ctx.Err(); ctxErr != nil {
				rep.Err = fmt.Errorf("ingest %q: %w", r.path, ctxErr)
				r.track.fileFailed()
				return rep
			}
			continue
		}
		rep.Queued++
		r.track.queued.Inc()
	}

	if err := sc.Err(); err != nil {
		rep.Err = fmt.Errorf("read input %q: %w", r.path, err)
		r.log.Errorw("requester: read failed", "error", err, "queued", rep.Queued)
		r.track.fileFailed()
		return rep
	}

	r.track.fileIngested()
	r.log.Infow("requester: finished", "queued", rep.Queued, "dropped", rep.Dropped, "truncated", rep.Truncated)
	return rep
}
