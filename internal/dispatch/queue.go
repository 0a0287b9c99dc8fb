// Package dispatch serializes admitted send actions through a strict FIFO
// queue drained by a single worker, with humanizing delays between sends.
package dispatch

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config holds the queue pacing parameters
type Config struct {
	PreSendDelayMin time.Duration // randomized wait before each send
	PreSendDelayMax time.Duration
	InterItemDelay  time.Duration // fixed wait between consecutive items
}

// DefaultConfig returns the production pacing
func DefaultConfig() Config {
	return Config{
		PreSendDelayMin: 500 * time.Millisecond,
		PreSendDelayMax: 1000 * time.Millisecond,
		InterItemDelay:  200 * time.Millisecond,
	}
}

type item struct {
	id   string
	work func() error
	done chan error
}

// Queue is a strictly-ordered single-worker dispatch queue. Enqueuing while a
// drain is running does not spawn a second worker; the active drain observes
// the new item before exiting.
type Queue struct {
	cfg Config

	mu       sync.Mutex
	items    []*item
	draining bool

	sleep func(time.Duration)
	randf func() float64
}

// New creates a dispatch queue
func New(cfg Config) *Queue {
	return &Queue{
		cfg:   cfg,
		sleep: time.Sleep,
		randf: rand.Float64,
	}
}

// Enqueue appends a unit of work and returns its completion signal. The
// channel receives exactly one value: the error returned by the work.
func (q *Queue) Enqueue(work func() error) <-chan error {
	it := &item{
		id:   uuid.NewString(),
		work: work,
		done: make(chan error, 1),
	}

	q.mu.Lock()
	q.items = append(q.items, it)
	start := !q.draining
	if start {
		q.draining = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return it.done
}

// Len reports the number of pending items
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain processes items one at a time until the queue is empty. Only one
// drain loop runs at any moment.
func (q *Queue) drain() {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		it := q.items[0]
		q.items = q.items[1:]
		q.mu.Unlock()

		q.sleep(q.preSendDelay())
		it.done <- it.work()

		q.mu.Lock()
		more := len(q.items) > 0
		q.mu.Unlock()
		if more {
			q.sleep(q.cfg.InterItemDelay)
		}
	}
}

// preSendDelay draws a uniform delay from [PreSendDelayMin, PreSendDelayMax]
func (q *Queue) preSendDelay() time.Duration {
	span := q.cfg.PreSendDelayMax - q.cfg.PreSendDelayMin
	if span <= 0 {
		return q.cfg.PreSendDelayMin
	}
	return q.cfg.PreSendDelayMin + time.Duration(q.randf()*float64(span))
}
