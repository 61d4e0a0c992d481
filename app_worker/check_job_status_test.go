package app_worker

import (
	"testing"

	"github.com/samuel/go-metrics/metrics"
	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/jobs"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/ptr"
	"github.com/talkarchive/backend/libs/test"
	"github.com/talkarchive/backend/pipeline"
)

type mockDataAPI_Worker struct {
	api.DataAPI

	recordings []*common.Recording
	updates    int
	byJobID    map[string]*common.Recording
}

func (m *mockDataAPI_Worker) RecordingsWithOpenJobs() ([]*common.Recording, error) {
	return m.recordings, nil
}

func (m *mockDataAPI_Worker) UpdateRecording(id int64, update *api.RecordingUpdate) error {
	m.updates++
	return nil
}

func (m *mockDataAPI_Worker) CreateCleanedMedia(info *api.CleanedMediaInfo) (string, error) {
	return "media-1", nil
}

func (m *mockDataAPI_Worker) RecordingByJobID(jobID string) (*common.Recording, error) {
	if rec, ok := m.byJobID[jobID]; ok {
		return rec, nil
	}
	return nil, api.ErrNotFound
}

// statusByJobID polls a fixed status per job id.
type statusByJobID map[string]*pipeline.JobResult

func (p statusByJobID) JobStatus(rec *common.Recording, jt common.JobType) (*pipeline.JobResult, error) {
	id := rec.JobID(jt)
	if jr, ok := p[*id]; ok {
		return jr, nil
	}
	return nil, common.TransportError{Cause: errors.New("engine unreachable")}
}

func openRecording(id int64, cleaningJobID, transcriptionJobID string) *common.Recording {
	rec := &common.Recording{
		ID:        id,
		Title:     "A Talk",
		OwnerID:   42,
		SourceKey: "uploads/talk.mp3",
	}
	if cleaningJobID != "" {
		rec.CleaningJobID = ptr.String(cleaningJobID)
	}
	if transcriptionJobID != "" {
		rec.TranscriptionJobID = ptr.String(transcriptionJobID)
	}
	return rec
}

func sweepWorker(m *mockDataAPI_Worker, poller jobs.StatusPoller) *JobStatusWorker {
	r := jobs.NewReconciler(m, poller, nil, 0)
	r.SizeCache = map[string]int64{"cleaned/talk.mp3": 1024}
	return NewJobStatusWorker(m, r, 0, metrics.NewRegistry())
}

func TestSweepReconcilesBothJobTypes(t *testing.T) {
	rec := openRecording(1, "clean-1", "trans-1")
	m := &mockDataAPI_Worker{recordings: []*common.Recording{rec}}
	w := sweepWorker(m, statusByJobID{
		"clean-1": {Status: common.JobStatusCompleted, OutputSubKey: "cleaned/talk.mp3"},
		"trans-1": {Status: common.JobStatusFailed},
	})

	test.OK(t, w.Do())
	if rec.CleaningJobID != nil || rec.TranscriptionJobID != nil {
		t.Fatal("both job ids should be cleared")
	}
	test.Equals(t, true, rec.TranscriptionFailed)
	test.Equals(t, "cleaned/talk.mp3", *rec.CleanedSubKey)
	test.Equals(t, uint64(1), w.statCycles.Count())
	test.Equals(t, uint64(2), w.statTransitioned.Count())
}

func TestSweepLogsExpectedErrorAndContinues(t *testing.T) {
	// The first recording's poll fails with a transport error; the sweep
	// must still reach the second.
	broken := openRecording(1, "missing", "")
	healthy := openRecording(2, "clean-2", "")
	m := &mockDataAPI_Worker{recordings: []*common.Recording{broken, healthy}}
	w := sweepWorker(m, statusByJobID{
		"clean-2": {Status: common.JobStatusFailed},
	})

	test.OK(t, w.Do())
	test.Equals(t, "missing", *broken.CleaningJobID)
	test.Equals(t, true, healthy.CleaningFailed)
	test.Equals(t, uint64(1), w.statFailure.Count())
	test.Equals(t, uint64(1), w.statCycles.Count())
}

func TestSweepSkipsRevisitedRecords(t *testing.T) {
	// The same record enumerated twice in one run is reconciled once.
	rec := openRecording(1, "clean-1", "")
	m := &mockDataAPI_Worker{recordings: []*common.Recording{rec, rec}}
	w := sweepWorker(m, statusByJobID{
		"clean-1": {Status: common.JobStatusFailed},
	})

	test.OK(t, w.Do())
	test.Equals(t, 1, m.updates)
}

func TestSweepStartStop(t *testing.T) {
	w := sweepWorker(&mockDataAPI_Worker{}, statusByJobID{})
	test.Equals(t, false, w.Started())
	w.Start()
	test.Equals(t, true, w.Started())
	w.Stop(0)
	test.Equals(t, false, w.Started())
}
