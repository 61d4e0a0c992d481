package jobs

import (
	"strings"

	"github.com/google/uuid"
	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/ptr"
	"github.com/talkarchive/backend/pipeline"
)

// Submitter opens processing jobs for recordings. Two strategies exist:
// Submit posts to the engine's submission API and records the returned
// job ids; SubmitToStore queues the work by inserting a tracking row
// under the store's conditional-write guard.
type Submitter struct {
	dataAPI api.DataAPI
	client  pipeline.Client
	store   *TrackingStore
}

// NewSubmitter returns a submitter. client may be nil if only the store
// strategy is used, and store may be nil if only the API strategy is.
func NewSubmitter(dataAPI api.DataAPI, client pipeline.Client, store *TrackingStore) *Submitter {
	return &Submitter{dataAPI: dataAPI, client: client, store: store}
}

func validateForSubmission(rec *common.Recording, transcribe bool) error {
	if rec.SourceKey == "" {
		return common.ValidationError{Reason: "recording has no source reference"}
	}
	if rec.CleaningJobID != nil {
		return common.InvalidStateError{Reason: "cleaning job already open for recording"}
	}
	if transcribe && rec.TranscriptionJobID != nil {
		return common.InvalidStateError{Reason: "transcription job already open for recording"}
	}
	return nil
}

// Submit posts the job to the submission API. On success the recording's
// job id(s) are set and any previous failure flags cleared.
func (s *Submitter) Submit(rec *common.Recording, transcribe bool) error {
	if err := validateForSubmission(rec, transcribe); err != nil {
		return errors.Trace(err)
	}
	sub, err := s.client.SubmitJob(&pipeline.JobRequest{
		InputKey:     rec.InputKey(),
		Language:     rec.Language,
		Transcribe:   transcribe,
		Title:        rec.Title,
		Speaker:      rec.Speaker,
		Year:         rec.Year,
		Congregation: rec.Congregation,
	})
	if err != nil {
		return errors.Trace(err)
	}

	update := &api.RecordingUpdate{
		CleaningJobID:  doublePtr(ptr.String(sub.CleaningJobID)),
		CleaningFailed: ptr.Bool(false),
	}
	rec.CleaningJobID = ptr.String(sub.CleaningJobID)
	rec.CleaningFailed = false
	if transcribe {
		update.TranscriptionJobID = doublePtr(ptr.String(sub.TranscriptionJobID))
		update.TranscriptionFailed = ptr.Bool(false)
		rec.TranscriptionJobID = ptr.String(sub.TranscriptionJobID)
		rec.TranscriptionFailed = false
	}
	return errors.Trace(s.dataAPI.UpdateRecording(rec.ID, update))
}

// SubmitToStore queues the job by writing the tracking row. The record is
// first marked as initiated (its job ids double as the open-job marker,
// keyed by input identity); a guard rejection surfaces as ConflictError
// with the marker left in place since the row's active job is for this
// same input. Any other store failure triggers a compensating write
// clearing the marker, and if that also fails both errors are reported
// together.
func (s *Submitter) SubmitToStore(rec *common.Recording, transcribe bool) error {
	if err := validateForSubmission(rec, transcribe); err != nil {
		return errors.Trace(err)
	}
	outputSubKey := outputLocator(rec.InputKey())

	update := &api.RecordingUpdate{
		CleaningJobID:  doublePtr(ptr.String(rec.InputKey())),
		CleaningFailed: ptr.Bool(false),
	}
	rec.CleaningJobID = ptr.String(rec.InputKey())
	rec.CleaningFailed = false
	if transcribe {
		update.TranscriptionJobID = doublePtr(ptr.String(rec.InputKey()))
		update.TranscriptionFailed = ptr.Bool(false)
		rec.TranscriptionJobID = ptr.String(rec.InputKey())
		rec.TranscriptionFailed = false
	}
	if err := s.dataAPI.UpdateRecording(rec.ID, update); err != nil {
		return errors.Trace(err)
	}

	err := s.store.Submit(&TrackingRow{
		InputKey:     rec.InputKey(),
		OutputSubKey: outputSubKey,
		Language:     rec.Language,
		Transcribe:   transcribe,
		Title:        rec.Title,
		Speaker:      rec.Speaker,
		Year:         rec.Year,
		Congregation: rec.Congregation,
	})
	if err == nil {
		return nil
	}
	if _, conflict := errors.Cause(err).(common.ConflictError); conflict {
		return errors.Trace(err)
	}

	// The row write failed for some other reason. Roll the marker back so
	// the recording isn't stuck pointing at a job that was never queued.
	rollback := &api.RecordingUpdate{
		CleaningJobID: doublePtr(nil),
	}
	rec.CleaningJobID = nil
	if transcribe {
		rollback.TranscriptionJobID = doublePtr(nil)
		rec.TranscriptionJobID = nil
	}
	if cerr := s.dataAPI.UpdateRecording(rec.ID, rollback); cerr != nil {
		return common.CompensationError{Cause: err, CompensateErr: cerr}
	}
	return errors.Trace(err)
}

// outputLocator derives where the engine should place the cleaned
// object: the input identity plus a random suffix, so a reclaimed
// resubmission can't collide with a half-written earlier output.
func outputLocator(inputKey string) string {
	base := inputKey
	ext := ""
	if i := strings.LastIndex(inputKey, "."); i > strings.LastIndex(inputKey, "/") {
		base, ext = inputKey[:i], inputKey[i:]
	}
	return base + "-" + uuid.NewString()[:8] + ext
}

func doublePtr(v *string) **string {
	return &v
}
