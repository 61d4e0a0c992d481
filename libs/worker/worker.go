// Package worker defines the interface periodic background tasks conform to.
package worker

import (
	"time"

	"github.com/talkarchive/backend/libs/conc"
)

// Worker represents the interface that mechanisms performing periodic background tasks should conform to
type Worker interface {
	Start()
	Stop(wait time.Duration)
	Started() bool
}

// Collection is a collection of workers managed together.
type Collection struct {
	workers []Worker
}

// AddWorker adds a worker to the collection of managed workers
func (c *Collection) AddWorker(w Worker) {
	c.workers = append(c.workers, w)
}

// Start starts the workers
func (c *Collection) Start() {
	for _, wk := range c.workers {
		wk := wk
		conc.Go(wk.Start)
	}
}

// Stop stops the workers
func (c *Collection) Stop(wait time.Duration) {
	parallel := conc.NewParallel()
	for _, wk := range c.workers {
		wk := wk
		parallel.Go(func() error {
			wk.Stop(wait)
			return nil
		})
	}
	parallel.Wait()
}
