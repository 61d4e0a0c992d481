package jobs

import (
	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/ptr"
	"github.com/talkarchive/backend/libs/storage"
	"github.com/talkarchive/backend/pipeline"
)

// Outcome reports whether reconciliation changed the recording.
type Outcome int

const (
	Unchanged Outcome = iota
	Changed
)

func (o Outcome) String() string {
	if o == Changed {
		return "changed"
	}
	return "unchanged"
}

// StatusPoller fetches the current state of a recording's open job,
// either from the engine's results API or from the tracking store.
type StatusPoller interface {
	JobStatus(rec *common.Recording, jt common.JobType) (*pipeline.JobResult, error)
}

// APIPoller polls the engine's results endpoint by job id.
type APIPoller struct {
	Client pipeline.Client
}

func (p APIPoller) JobStatus(rec *common.Recording, jt common.JobType) (*pipeline.JobResult, error) {
	id := rec.JobID(jt)
	if id == nil {
		return nil, common.InvalidStateError{Reason: "no open " + jt.String() + " job"}
	}
	jr, err := p.Client.JobResult(*id)
	return jr, errors.Trace(err)
}

// StorePoller reads the tracking row keyed by the recording's input
// identity. An absent row reads as not started.
type StorePoller struct {
	Store *TrackingStore
}

func (p StorePoller) JobStatus(rec *common.Recording, jt common.JobType) (*pipeline.JobResult, error) {
	row, err := p.Store.Status(rec.InputKey())
	if err != nil {
		return nil, errors.Trace(err)
	}
	if row == nil {
		return &pipeline.JobResult{Status: common.JobStatusNotStarted}, nil
	}
	return &pipeline.JobResult{
		Status:       row.Status,
		OutputSubKey: row.OutputSubKey,
		Duration:     row.DurationSec,
	}, nil
}

// resolution is what a poll resolved to, applied in one explicit step so
// the state transition lives in a single place.
type resolution struct {
	failed       bool
	completed    bool
	outputSubKey string
	duration     float64
}

// Reconciler applies polled job outcomes to recordings.
type Reconciler struct {
	dataAPI api.DataAPI
	poller  StatusPoller
	sizer   storage.Sizer

	// SizeCache, when set, maps output sub-keys to known object sizes so
	// completed-cleaning materialization can skip the probe request.
	SizeCache map[string]int64

	// FallbackOwnerID attributes produced artifacts when the source
	// recording has no owner.
	FallbackOwnerID int64
}

// NewReconciler returns a reconciler polling through poller and probing
// object sizes through sizer.
func NewReconciler(dataAPI api.DataAPI, poller StatusPoller, sizer storage.Sizer, fallbackOwnerID int64) *Reconciler {
	return &Reconciler{
		dataAPI:         dataAPI,
		poller:          poller,
		sizer:           sizer,
		FallbackOwnerID: fallbackOwnerID,
	}
}

// Reconcile polls the open job of the given type and applies the
// observed outcome. It requires an open job and returns
// InvalidStateError otherwise. On a poll error the job id is preserved;
// the next sweep pass retries and the locator-equality check keeps the
// materialization idempotent.
func (r *Reconciler) Reconcile(rec *common.Recording, jt common.JobType) (Outcome, error) {
	if rec.JobID(jt) == nil {
		return Unchanged, common.InvalidStateError{Reason: "no open " + jt.String() + " job for recording"}
	}
	jr, err := r.poller.JobStatus(rec, jt)
	if err != nil {
		return Unchanged, errors.Trace(err)
	}

	var res resolution
	switch jr.Status {
	case common.JobStatusNotStarted, common.JobStatusInProgress:
		return Unchanged, nil
	case common.JobStatusFailed:
		res = resolution{failed: true}
	case common.JobStatusCompleted:
		res = resolution{completed: true, outputSubKey: jr.OutputSubKey, duration: jr.Duration}
	}
	return r.apply(rec, jt, res)
}

func (r *Reconciler) apply(rec *common.Recording, jt common.JobType, res resolution) (Outcome, error) {
	if res.failed {
		update := &api.RecordingUpdate{}
		if jt == common.JobCleaning {
			update.CleaningJobID = doublePtr(nil)
			update.CleaningFailed = ptr.Bool(true)
			rec.CleaningJobID = nil
			rec.CleaningFailed = true
		} else {
			update.TranscriptionJobID = doublePtr(nil)
			update.TranscriptionFailed = ptr.Bool(true)
			rec.TranscriptionJobID = nil
			rec.TranscriptionFailed = true
		}
		if err := r.dataAPI.UpdateRecording(rec.ID, update); err != nil {
			return Unchanged, errors.Trace(err)
		}
		return Changed, nil
	}

	if jt == common.JobTranscription {
		if rec.TranscriptSubKey != nil && *rec.TranscriptSubKey == res.outputSubKey {
			return Unchanged, nil
		}
		if err := r.dataAPI.UpdateRecording(rec.ID, &api.RecordingUpdate{
			TranscriptionJobID: doublePtr(nil),
			TranscriptSubKey:   doublePtr(ptr.String(res.outputSubKey)),
		}); err != nil {
			return Unchanged, errors.Trace(err)
		}
		rec.TranscriptionJobID = nil
		rec.TranscriptSubKey = ptr.String(res.outputSubKey)
		return Changed, nil
	}

	// Completed cleaning: materialize the artifact unless this exact
	// output was already recorded.
	if rec.CleanedSubKey != nil && *rec.CleanedSubKey == res.outputSubKey {
		return Unchanged, nil
	}
	size, ok := r.SizeCache[res.outputSubKey]
	if !ok {
		var err error
		size, err = r.sizer.Size(res.outputSubKey)
		if err != nil {
			return Unchanged, common.StoreError{Cause: errors.Annotatef(err, "probing size of %s", res.outputSubKey)}
		}
	}
	ownerID := rec.OwnerID
	if ownerID == 0 {
		ownerID = r.FallbackOwnerID
	}
	mediaID, err := r.dataAPI.CreateCleanedMedia(&api.CleanedMediaInfo{
		RemoteKey: res.outputSubKey,
		SizeBytes: size,
		OwnerID:   ownerID,
		MimeType:  "audio/mpeg",
	})
	if err != nil {
		return Unchanged, errors.Trace(err)
	}
	if err := r.dataAPI.UpdateRecording(rec.ID, &api.RecordingUpdate{
		CleaningJobID:  doublePtr(nil),
		CleanedMediaID: doublePtr(ptr.String(mediaID)),
		CleanedSubKey:  doublePtr(ptr.String(res.outputSubKey)),
		DurationSec:    doubleFloatPtr(ptr.Float64(res.duration)),
	}); err != nil {
		return Unchanged, errors.Trace(err)
	}
	rec.CleaningJobID = nil
	rec.CleanedMediaID = ptr.String(mediaID)
	rec.CleanedSubKey = ptr.String(res.outputSubKey)
	rec.DurationSec = ptr.Float64(res.duration)
	return Changed, nil
}

func doubleFloatPtr(v *float64) **float64 {
	return &v
}
