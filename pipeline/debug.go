package pipeline

import "github.com/talkarchive/backend/common"

// Placeholder identifiers handed out when running without the engine.
const (
	DebugCleaningJobID      = "debug-cleaning-job"
	DebugTranscriptionJobID = "debug-transcription-job"
)

// DebugClient is a Client for environments without the processing
// engine. Submissions succeed with fixed placeholder identifiers and
// polls report the job still in progress, so no state ever transitions.
type DebugClient struct{}

func (DebugClient) SubmitJob(req *JobRequest) (*JobSubmission, error) {
	sub := &JobSubmission{CleaningJobID: DebugCleaningJobID}
	if req.Transcribe {
		sub.TranscriptionJobID = DebugTranscriptionJobID
	}
	return sub, nil
}

func (DebugClient) JobResult(jobID string) (*JobResult, error) {
	return &JobResult{Status: common.JobStatusInProgress}, nil
}
