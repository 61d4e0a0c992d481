package jobs

import (
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/clock"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/test"
	"github.com/talkarchive/backend/libs/testhelpers/mock"
	"github.com/talkarchive/backend/pipeline"
)

type mockDataAPI_Submitter struct {
	api.DataAPI
	*mock.Expector

	updateErrs []error
	updates    []*api.RecordingUpdate
}

func (m *mockDataAPI_Submitter) UpdateRecording(id int64, update *api.RecordingUpdate) error {
	defer m.Record(id, update)
	m.updates = append(m.updates, update)
	var err error
	m.updateErrs, err = mock.NextError(m.updateErrs)
	return err
}

type mockClient_Submitter struct {
	*mock.Expector

	submission *pipeline.JobSubmission
	submitErrs []error
}

func (m *mockClient_Submitter) SubmitJob(req *pipeline.JobRequest) (*pipeline.JobSubmission, error) {
	defer m.Record(req)
	var err error
	m.submitErrs, err = mock.NextError(m.submitErrs)
	return m.submission, err
}

func (m *mockClient_Submitter) JobResult(jobID string) (*pipeline.JobResult, error) {
	defer m.Record(jobID)
	return nil, nil
}

func testRecording() *common.Recording {
	return &common.Recording{
		ID:        1,
		Title:     "A Talk",
		Speaker:   "J. Smith",
		Year:      2019,
		Language:  "en",
		OwnerID:   42,
		SourceKey: "uploads/talk-1.mp3",
	}
}

func TestSubmitViaAPI(t *testing.T) {
	m := &mockDataAPI_Submitter{Expector: &mock.Expector{T: t}}
	c := &mockClient_Submitter{
		Expector: &mock.Expector{T: t},
		submission: &pipeline.JobSubmission{
			CleaningJobID:      "clean-1",
			TranscriptionJobID: "trans-1",
		},
	}
	rec := testRecording()
	c.Expect(mock.NewExpectation(c.SubmitJob, &pipeline.JobRequest{
		InputKey:   "uploads/talk-1.mp3",
		Language:   "en",
		Transcribe: true,
		Title:      "A Talk",
		Speaker:    "J. Smith",
		Year:       2019,
	}))

	s := NewSubmitter(m, c, nil)
	test.OK(t, s.Submit(rec, true))

	test.Equals(t, "clean-1", *rec.CleaningJobID)
	test.Equals(t, "trans-1", *rec.TranscriptionJobID)
	test.Equals(t, false, rec.CleaningFailed)
	test.Equals(t, 1, len(m.updates))
	test.Equals(t, "clean-1", **m.updates[0].CleaningJobID)
	mock.FinishAll(c)
}

func TestSubmitViaAPINoTranscription(t *testing.T) {
	m := &mockDataAPI_Submitter{}
	c := &mockClient_Submitter{
		submission: &pipeline.JobSubmission{CleaningJobID: "clean-1"},
	}
	rec := testRecording()

	s := NewSubmitter(m, c, nil)
	test.OK(t, s.Submit(rec, false))

	test.Equals(t, "clean-1", *rec.CleaningJobID)
	if rec.TranscriptionJobID != nil {
		t.Fatalf("transcription job id should not be set, got %q", *rec.TranscriptionJobID)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := NewSubmitter(&mockDataAPI_Submitter{}, &mockClient_Submitter{}, nil)

	rec := testRecording()
	rec.SourceKey = ""
	err := s.Submit(rec, false)
	if _, ok := errors.Cause(err).(common.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	rec = testRecording()
	rec.CleaningJobID = strPtr("already-open")
	err = s.Submit(rec, false)
	if _, ok := errors.Cause(err).(common.InvalidStateError); !ok {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func storeWithPutResult(t *testing.T, putErr error) *TrackingStore {
	db := &mock.DynamoDB{
		DescribeTableOutputs: []*dynamodb.DescribeTableOutput{{}},
		PutItemOutputs:       []*dynamodb.PutItemOutput{{}},
	}
	if putErr != nil {
		db.PutItemErrs = []error{putErr}
	}
	s, err := NewTrackingStore(db, "test", clock.NewManaged(time.Unix(1700000000, 0)))
	test.OK(t, err)
	return s
}

func TestSubmitToStore(t *testing.T) {
	m := &mockDataAPI_Submitter{}
	s := NewSubmitter(m, nil, storeWithPutResult(t, nil))
	rec := testRecording()

	test.OK(t, s.SubmitToStore(rec, true))

	// The record's open-job marker is the input identity.
	test.Equals(t, rec.SourceKey, *rec.CleaningJobID)
	test.Equals(t, rec.SourceKey, *rec.TranscriptionJobID)
	test.Equals(t, 1, len(m.updates))
}

func TestSubmitToStoreConflict(t *testing.T) {
	m := &mockDataAPI_Submitter{}
	s := NewSubmitter(m, nil, storeWithPutResult(t,
		awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "the conditional request failed", nil)))
	rec := testRecording()

	err := s.SubmitToStore(rec, false)
	if _, ok := errors.Cause(err).(common.ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	// No compensating write on a guard rejection: the row's active job is
	// for this same input.
	test.Equals(t, 1, len(m.updates))
	test.Equals(t, rec.SourceKey, *rec.CleaningJobID)
}

func TestSubmitToStoreCompensation(t *testing.T) {
	m := &mockDataAPI_Submitter{}
	s := NewSubmitter(m, nil, storeWithPutResult(t, awserr.New("InternalServerError", "boom", nil)))
	rec := testRecording()

	err := s.SubmitToStore(rec, false)
	if _, ok := errors.Cause(err).(common.StoreError); !ok {
		t.Fatalf("expected StoreError, got %v", err)
	}
	// Marker set, then rolled back.
	test.Equals(t, 2, len(m.updates))
	if *m.updates[1].CleaningJobID != nil {
		t.Fatal("compensating write should clear the cleaning job id")
	}
	if rec.CleaningJobID != nil {
		t.Fatal("record marker should be rolled back")
	}
}

func TestSubmitToStoreCompensationFailure(t *testing.T) {
	m := &mockDataAPI_Submitter{
		updateErrs: []error{nil, errors.New("db down")},
	}
	s := NewSubmitter(m, nil, storeWithPutResult(t, awserr.New("InternalServerError", "boom", nil)))
	rec := testRecording()

	err := s.SubmitToStore(rec, false)
	cerr, ok := errors.Cause(err).(common.CompensationError)
	if !ok {
		t.Fatalf("expected CompensationError, got %v", err)
	}
	if cerr.Cause == nil || cerr.CompensateErr == nil {
		t.Fatalf("both errors should be reported, got %+v", cerr)
	}
	test.Assert(t, common.IsExpectedError(err), "compensation failure should be an expected error")
}

func TestOutputLocator(t *testing.T) {
	loc := outputLocator("uploads/talk-1.mp3")
	test.Assert(t, strings.HasPrefix(loc, "uploads/talk-1-"), "locator should keep the input identity: "+loc)
	test.Assert(t, strings.HasSuffix(loc, ".mp3"), "locator should keep the extension: "+loc)
	test.Assert(t, loc != outputLocator("uploads/talk-1.mp3"), "locators should not repeat")

	loc = outputLocator("rawfile")
	test.Assert(t, strings.HasPrefix(loc, "rawfile-"), "extensionless input: "+loc)
}

func strPtr(s string) *string {
	return &s
}
