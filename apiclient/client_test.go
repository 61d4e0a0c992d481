package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/ptr"
	"github.com/talkarchive/backend/libs/test"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{BaseURL: srv.URL, AuthToken: "sekret"}, srv
}

func TestRecording(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		test.Equals(t, "GET", r.Method)
		test.Equals(t, "/recordings/7", r.URL.Path)
		test.Equals(t, "token sekret", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(&common.Recording{
			ID:            7,
			Title:         "A Talk",
			SourceKey:     "uploads/talk.mp3",
			CleaningJobID: ptr.String("clean-1"),
		})
	})

	rec, err := c.Recording(7)
	test.OK(t, err)
	test.Equals(t, int64(7), rec.ID)
	test.Equals(t, "clean-1", *rec.CleaningJobID)
}

func TestRecordingNotFound(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	_, err := c.Recording(7)
	test.Equals(t, api.ErrNotFound, errors.Cause(err))
}

func TestUpdateRecordingWireFormat(t *testing.T) {
	var got map[string]json.RawMessage
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		test.Equals(t, "PATCH", r.Method)
		body, _ := io.ReadAll(r.Body)
		test.OK(t, json.Unmarshal(body, &got))
	})

	cleared := (*string)(nil)
	set := ptr.String("media-1")
	test.OK(t, c.UpdateRecording(7, &api.RecordingUpdate{
		CleaningJobID:  &cleared,
		CleanedMediaID: &set,
	}))

	// A cleared column travels as an explicit null, an untouched one is
	// absent entirely.
	test.Equals(t, "null", string(got["cleaning_job_id"]))
	test.Equals(t, `"media-1"`, string(got["cleaned_media_id"]))
	if _, present := got["transcription_job_id"]; present {
		t.Fatal("untouched field should not be in the payload")
	}
}

func TestRecordingsWithOpenJobs(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		test.Equals(t, "/recordings", r.URL.Path)
		test.Equals(t, "1", r.URL.Query().Get("open_jobs"))
		json.NewEncoder(w).Encode([]*common.Recording{{ID: 1}, {ID: 2}})
	})

	recs, err := c.RecordingsWithOpenJobs()
	test.OK(t, err)
	test.Equals(t, 2, len(recs))
}

func TestCreateCleanedMedia(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		test.Equals(t, "POST", r.Method)
		test.Equals(t, "/media", r.URL.Path)
		var info api.CleanedMediaInfo
		test.OK(t, json.NewDecoder(r.Body).Decode(&info))
		test.Equals(t, "cleaned/talk.mp3", info.RemoteKey)
		json.NewEncoder(w).Encode(map[string]string{"id": "media-1"})
	})

	id, err := c.CreateCleanedMedia(&api.CleanedMediaInfo{
		RemoteKey: "cleaned/talk.mp3",
		SizeBytes: 1024,
		OwnerID:   42,
		MimeType:  "audio/mpeg",
	})
	test.OK(t, err)
	test.Equals(t, "media-1", id)
}

func TestAPIErrorStatus(t *testing.T) {
	c, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})
	_, err := c.RecordingsWithOpenJobs()
	aerr, ok := errors.Cause(err).(common.APIError)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	test.Equals(t, http.StatusForbidden, aerr.StatusCode)
	test.Assert(t, common.IsExpectedError(err), "api errors are expected errors")
}
