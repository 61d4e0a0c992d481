package app_worker

import (
	"sync"
	"time"

	"github.com/samuel/go-metrics/metrics"
	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/jobs"
	"github.com/talkarchive/backend/libs/golog"
)

const defaultTimeBetweenSweeps = 30 * time.Second

// JobStatusWorker periodically sweeps recordings with an open cleaning
// or transcription job and reconciles each against the engine's
// reported status. Expected errors are logged per record and the sweep
// moves on; anything else aborts the cycle.
type JobStatusWorker struct {
	dataAPI          api.DataAPI
	reconciler       *jobs.Reconciler
	timeBetweenRuns  time.Duration
	statCycles       *metrics.Counter
	statFailure      *metrics.Counter
	statTransitioned *metrics.Counter
	stopChan         chan struct{}

	mu      sync.Mutex
	started bool
}

// NewJobStatusWorker returns a sweep worker polling through reconciler.
// A zero timeBetweenRuns uses the default sweep interval.
func NewJobStatusWorker(
	dataAPI api.DataAPI,
	reconciler *jobs.Reconciler,
	timeBetweenRuns time.Duration,
	statsRegistry metrics.Registry) *JobStatusWorker {
	if timeBetweenRuns == 0 {
		timeBetweenRuns = defaultTimeBetweenSweeps
	}
	statCycles := metrics.NewCounter()
	statFailure := metrics.NewCounter()
	statTransitioned := metrics.NewCounter()

	statsRegistry.Add("cycles/total", statCycles)
	statsRegistry.Add("cycles/failed", statFailure)
	statsRegistry.Add("jobs/transitioned", statTransitioned)

	return &JobStatusWorker{
		dataAPI:          dataAPI,
		reconciler:       reconciler,
		timeBetweenRuns:  timeBetweenRuns,
		statCycles:       statCycles,
		statFailure:      statFailure,
		statTransitioned: statTransitioned,
		stopChan:         make(chan struct{}),
	}
}

func (w *JobStatusWorker) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	go func() {
		for {
			select {
			case <-w.stopChan:
				return
			default:
			}

			if err := w.Do(); err != nil {
				golog.Errorf("Job status sweep aborted: %s", err)
			}

			select {
			case <-w.stopChan:
				return
			case <-time.After(w.timeBetweenRuns):
			}
		}
	}()
}

func (w *JobStatusWorker) Stop(wait time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.started = false
	close(w.stopChan)
}

func (w *JobStatusWorker) Started() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Do runs one sweep. The visited set lives only for this run: persisting
// a reconciled change can cause the record to be re-enumerated, and the
// memo keeps that reload from triggering a second reconciliation.
func (w *JobStatusWorker) Do() error {
	recordings, err := w.dataAPI.RecordingsWithOpenJobs()
	if err != nil {
		golog.Errorf("Unable to enumerate recordings with open jobs: %s", err)
		w.statFailure.Inc(1)
		return err
	}

	visited := make(map[int64]bool, len(recordings))
	for _, rec := range recordings {
		if visited[rec.ID] {
			continue
		}
		visited[rec.ID] = true

		for _, jt := range []common.JobType{common.JobCleaning, common.JobTranscription} {
			if rec.JobID(jt) == nil {
				continue
			}
			outcome, err := w.reconciler.Reconcile(rec, jt)
			if err != nil {
				if !common.IsExpectedError(err) {
					return err
				}
				golog.Errorf("Unable to reconcile %s job for recording %d: %s", jt, rec.ID, err)
				w.statFailure.Inc(1)
				continue
			}
			if outcome == jobs.Changed {
				golog.Infof("Recording %d: %s job reconciled", rec.ID, jt)
				w.statTransitioned.Inc(1)
			}
		}
	}

	w.statCycles.Inc(1)
	return nil
}
