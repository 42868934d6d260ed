// Package txsched serializes all transmissions onto a single
// transport.TNC: exactly one frame on the wire at a time, FIFO within
// a priority class (spec.md §5 "ack > retry > user-originated >
// beacon"). Grounded on the prior Go port's xmit.c wait_for_clear_channel
// and transmit-queue-per-priority design (ptt_set/tq_append), rewired
// from a C priority array to Go channels.
package txsched

import (
	"context"

	"github.com/n7gw/tncgw/internal/gwlog"
	"github.com/n7gw/tncgw/internal/transport"
)

// Priority classes, highest first.
type Priority int

const (
	PriorityAck Priority = iota
	PriorityRetry
	PriorityUser
	PriorityBeacon
	numPriorities
)

type job struct {
	frame []byte
	done  chan error
}

// Scheduler owns the one writer goroutine for a transport.TNC.
type Scheduler struct {
	tnc    transport.TNC
	queues [numPriorities]chan job
}

// New creates a Scheduler writing to tnc. Each priority class gets its
// own bounded FIFO queue.
func New(tnc transport.TNC) *Scheduler {
	s := &Scheduler{tnc: tnc}
	for i := range s.queues {
		s.queues[i] = make(chan job, 64)
	}
	return s
}

// Run drains the queues, writing one frame at a time, until ctx is
// cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	log := gwlog.For("txsched")
	for {
		j, ok := s.next(ctx)
		if !ok {
			log.Infof("scheduler stopped")
			return
		}
		_, err := s.tnc.Write(j.frame)
		if err != nil {
			log.Warnf("write failed: %v", err)
		}
		j.done <- err
		close(j.done)
	}
}

// next returns the next job in strict priority order, falling back to
// a fair blocking wait across all queues when every queue is empty.
func (s *Scheduler) next(ctx context.Context) (job, bool) {
	for {
		for p := 0; p < int(numPriorities); p++ {
			select {
			case j := <-s.queues[p]:
				return j, true
			default:
			}
		}
		select {
		case <-ctx.Done():
			return job{}, false
		case j := <-s.queues[PriorityAck]:
			return j, true
		case j := <-s.queues[PriorityRetry]:
			return j, true
		case j := <-s.queues[PriorityUser]:
			return j, true
		case j := <-s.queues[PriorityBeacon]:
			return j, true
		}
	}
}

// Submit enqueues frame at priority p and blocks until it has been
// written (or ctx is cancelled first).
func (s *Scheduler) Submit(ctx context.Context, p Priority, frame []byte) error {
	j := job{frame: frame, done: make(chan error, 1)}
	select {
	case s.queues[p] <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
