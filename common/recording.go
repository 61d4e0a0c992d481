// Package common holds the domain types shared across the processing
// pipeline: the recording model, job types and the tracking status codes
// reported by the external processing engine.
package common

// JobType identifies one of the asynchronous processing steps tracked on
// a recording.
type JobType int

const (
	// JobCleaning is the audio-cleaning step. Every recording goes through it.
	JobCleaning JobType = iota
	// JobTranscription is the optional speech-to-text step.
	JobTranscription
)

func (jt JobType) String() string {
	switch jt {
	case JobCleaning:
		return "cleaning"
	case JobTranscription:
		return "transcription"
	}
	return "unknown"
}

// Tracking statuses reported for a submitted job. The values are part of
// the wire and store format and must not change.
const (
	JobStatusFailed     = -1
	JobStatusNotStarted = 0
	JobStatusInProgress = 1
	JobStatusCompleted  = 2
)

// Recording is one content item in the archive along with the state of
// its processing jobs.
//
// For each job type the id and the failed flag are never both set: a
// submitted job has an id and no failure, a reconciled failure has the
// flag and no id. CleanedMediaID, CleanedSubKey and DurationSec are set
// together when the cleaning job completes. TranscriptSubKey is only
// ever set once the transcription job is closed out.
type Recording struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Speaker      string `json:"speaker,omitempty"`
	Year         int    `json:"year,omitempty"`
	Congregation string `json:"congregation,omitempty"`
	Language     string `json:"language,omitempty"`
	OwnerID      int64  `json:"owner_id,omitempty"`

	// SourceKey locates the unprocessed upload in object storage.
	SourceKey string `json:"source_key"`
	// SourceSizeBytes is a side-channel size cache populated at upload
	// time. Zero means unknown and the reconciler probes the store.
	SourceSizeBytes int64 `json:"source_size_bytes,omitempty"`

	CleaningJobID       *string `json:"cleaning_job_id,omitempty"`
	CleaningFailed      bool    `json:"cleaning_failed,omitempty"`
	TranscriptionJobID  *string `json:"transcription_job_id,omitempty"`
	TranscriptionFailed bool    `json:"transcription_failed,omitempty"`

	CleanedMediaID *string `json:"cleaned_media_id,omitempty"`
	// CleanedSubKey is the engine-reported locator of the cleaned object.
	// Kept so re-reconciling a completed job can detect it already
	// produced this artifact.
	CleanedSubKey    *string  `json:"cleaned_sub_key,omitempty"`
	DurationSec      *float64 `json:"duration_sec,omitempty"`
	TranscriptSubKey *string  `json:"transcript_sub_key,omitempty"`
}

// JobID returns the open job id for the given job type, or nil.
func (r *Recording) JobID(jt JobType) *string {
	if jt == JobCleaning {
		return r.CleaningJobID
	}
	return r.TranscriptionJobID
}

// JobFailed returns whether the given job type has been marked failed.
func (r *Recording) JobFailed(jt JobType) bool {
	if jt == JobCleaning {
		return r.CleaningFailed
	}
	return r.TranscriptionFailed
}

// HasOpenJob reports whether any job is awaiting reconciliation.
func (r *Recording) HasOpenJob() bool {
	return r.CleaningJobID != nil || r.TranscriptionJobID != nil
}

// InputKey is the input identity the tracking store is keyed by.
func (r *Recording) InputKey() string {
	return r.SourceKey
}
