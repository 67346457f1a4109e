// Package workerpool provides a bounded goroutine pool. Discovery uses it to
// cap how many pages, scripts and archived URLs are fetched at once while the
// caller waits on a whole batch.
package workerpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool manages a fixed set of worker goroutines fed from a task queue.
// Workers are started lazily, up to the configured size.
type Pool struct {
	workers int32
	tasks   chan func()
	running int32
	closed  int32
	onPanic func(any)
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// New creates a pool with the given number of workers.
// A non-positive size falls back to GOMAXPROCS.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		workers: int32(workers),
		tasks:   make(chan func(), workers*4),
	}
}

// NewWithPanicHandler creates a pool that reports each recovered task
// panic to handler. The handler runs on the worker goroutine.
func NewWithPanicHandler(workers int, handler func(any)) *Pool {
	p := New(workers)
	p.onPanic = handler
	return p
}

// Submit queues a task. It blocks while the queue is full and returns
// false once the pool is closed.
func (p *Pool) Submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if atomic.LoadInt32(&p.closed) == 1 {
		return false
	}

	for {
		running := atomic.LoadInt32(&p.running)
		if running >= p.workers {
			break
		}
		if atomic.CompareAndSwapInt32(&p.running, running, running+1) {
			p.wg.Add(1)
			go p.worker()
			break
		}
	}

	p.tasks <- task
	return true
}

func (p *Pool) worker() {
	defer func() {
		atomic.AddInt32(&p.running, -1)
		p.wg.Done()
	}()

	for task := range p.tasks {
		p.run(task)
	}
}

// run isolates a task panic so one bad page cannot take a worker down.
func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil && p.onPanic != nil {
			p.onPanic(r)
		}
	}()
	if task != nil {
		task()
	}
}

// Close stops accepting tasks and waits for queued ones to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if !atomic.CompareAndSwapInt32(&p.closed, 0, 1) {
		p.mu.Unlock()
		return
	}
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// ParallelFor executes fn for each index from 0 to n-1 and blocks until all
// iterations complete. Indices not yet started when ctx is cancelled are
// skipped.
func (p *Pool) ParallelFor(ctx context.Context, n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		idx := i
		wg.Add(1)
		if !p.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			fn(idx)
		}) {
			wg.Done()
		}
	}
	wg.Wait()
}

// Map applies fn to each item in parallel and returns results in input order.
// Slots for skipped or failed tasks hold the zero value.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(T) R) []R {
	results := make([]R, len(items))
	p.ParallelFor(ctx, len(items), func(i int) {
		results[i] = fn(items[i])
	})
	return results
}
