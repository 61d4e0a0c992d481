// Package api declares the persistence interface the processing pipeline
// depends on. The concrete implementation (the archive's record store)
// lives outside this repository; workers and services receive a DataAPI
// at construction time.
package api

import (
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("api: object not found")

// RecordingUpdate describes a partial update to a recording. Nil fields
// are left untouched. Clearing a nullable column is expressed by a
// non-nil pointer to a nil value.
type RecordingUpdate struct {
	CleaningJobID       **string  `json:"cleaning_job_id,omitempty"`
	CleaningFailed      *bool     `json:"cleaning_failed,omitempty"`
	TranscriptionJobID  **string  `json:"transcription_job_id,omitempty"`
	TranscriptionFailed *bool     `json:"transcription_failed,omitempty"`
	CleanedMediaID      **string  `json:"cleaned_media_id,omitempty"`
	CleanedSubKey       **string  `json:"cleaned_sub_key,omitempty"`
	DurationSec         **float64 `json:"duration_sec,omitempty"`
	TranscriptSubKey    **string  `json:"transcript_sub_key,omitempty"`
}

// CleanedMediaInfo describes the artifact produced by a completed
// cleaning job: a reference to the remote object plus the bookkeeping
// needed to persist it as an addressable media row.
type CleanedMediaInfo struct {
	RemoteKey string `json:"remote_key"`
	SizeBytes int64  `json:"size_bytes"`
	OwnerID   int64  `json:"owner_id"`
	MimeType  string `json:"mime_type"`
}

// DataAPI is the record persistence collaborator.
type DataAPI interface {
	Recording(id int64) (*common.Recording, error)
	UpdateRecording(id int64, update *RecordingUpdate) error
	// RecordingsWithOpenJobs returns recordings that have a cleaning or
	// transcription job awaiting reconciliation.
	RecordingsWithOpenJobs() ([]*common.Recording, error)
	// RecordingByJobID maps an externally reported job id back to its
	// recording. Returns ErrNotFound when no open job carries the id.
	RecordingByJobID(jobID string) (*common.Recording, error)
	// CreateCleanedMedia persists a new media artifact and returns its id.
	CreateCleanedMedia(info *CleanedMediaInfo) (string, error)
}
