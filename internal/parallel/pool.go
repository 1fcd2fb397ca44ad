// Package parallel runs the CPU device's row bands on a fixed set of
// goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows keeps bands from shrinking below a useful amount of work.
const minBandRows = 8

// WorkerPool is a pool of goroutines shared by every draw of one device.
//
// Work is handed out through a single queue. ExecuteAll blocks until its
// batch has finished, so a draw never overlaps the next one.
//
// Thread safety: WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		queue:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)
	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case work := <-p.queue:
			work()
		}
	}
}

// ExecuteAll runs every function and waits for all of them.
// On a closed pool the functions run on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if len(work) == 1 || !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var batch sync.WaitGroup
	batch.Add(len(work))
	for _, fn := range work {
		wrapped := func() {
			defer batch.Done()
			fn()
		}
		select {
		case p.queue <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	batch.Wait()
}

// Rows splits [y0, y1) into bands and calls fn for each band on the
// pool. Bands are disjoint, so fn may write its rows without locking.
func (p *WorkerPool) Rows(y0, y1 int, fn func(from, to int)) {
	n := y1 - y0
	if n <= 0 {
		return
	}
	bands := p.workers
	if limit := (n + minBandRows - 1) / minBandRows; bands > limit {
		bands = limit
	}
	step := (n + bands - 1) / bands

	work := make([]func(), 0, bands)
	for from := y0; from < y1; from += step {
		to := min(from+step, y1)
		work = append(work, func() { fn(from, to) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int { return p.workers }

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool { return p.running.Load() }
