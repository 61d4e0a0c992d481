// Package conc includes helpers for concurrency patterns that avoid some of the most common pitfalls.
package conc

import "sync"

// Testing should be set to true when running tests for code that use this package.
// This makes all functionality synchronous and makes tests deterministic.
var Testing bool

// Go runs the provided function in a go routine if Testing is not set,
// and synchronously if it is.
func Go(f func()) {
	if !Testing {
		go f()
	} else {
		f()
	}
}

// Parallel runs a set of functions concurrently and collects the first
// error from any of them.
type Parallel struct {
	wg sync.WaitGroup

	mu  sync.Mutex
	err error
}

// NewParallel returns an empty Parallel group.
func NewParallel() *Parallel {
	return &Parallel{}
}

// Go starts f in the group. In Testing mode it runs synchronously.
func (p *Parallel) Go(f func() error) {
	p.wg.Add(1)
	run := func() {
		defer p.wg.Done()
		if err := f(); err != nil {
			p.mu.Lock()
			if p.err == nil {
				p.err = err
			}
			p.mu.Unlock()
		}
	}
	if Testing {
		run()
	} else {
		go run()
	}
}

// Wait blocks until all functions finish and returns the first error seen.
func (p *Parallel) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
