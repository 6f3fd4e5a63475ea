package integra

import (
	"context"
	"sync"

	"github.com/muurk/integra-bridge/internal/protocol"
)

// result is the outcome of one command execution.
type result struct {
	info  protocol.SystemInfo
	zones protocol.ZoneStates
	err   error
}

// job is one queued command execution. done is nil for fire-and-forget
// polls.
type job struct {
	cmd  protocol.Command
	done *future
}

// jobQueue is an unbounded FIFO. Producers push from any goroutine; only
// the executor pops.
type jobQueue struct {
	mu     sync.Mutex
	items  []*job
	closed bool
	ready  chan struct{}
}

func newJobQueue() *jobQueue {
	return &jobQueue{ready: make(chan struct{}, 1)}
}

// push appends j. It returns false once the queue has been closed.
func (q *jobQueue) push(j *job) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, j)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// pop blocks until a job is available or ctx is done.
func (q *jobQueue) pop(ctx context.Context) (*job, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			j := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return j, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// close rejects further pushes and returns every pending job.
func (q *jobQueue) close() []*job {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	items := q.items
	q.items = nil
	return items
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
