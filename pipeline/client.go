package pipeline

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
)

// JobRequest is the submission payload for one recording.
type JobRequest struct {
	InputKey     string `json:"input-ref"`
	Language     string `json:"language"`
	Transcribe   bool   `json:"transcribe"`
	Title        string `json:"display-name"`
	Speaker      string `json:"speaker,omitempty"`
	Year         int    `json:"year,omitempty"`
	Congregation string `json:"congregation,omitempty"`
}

// JobSubmission is the engine's answer to an accepted submission.
type JobSubmission struct {
	CleaningJobID      string `json:"cleaning-job-id"`
	TranscriptionJobID string `json:"transcription-job-id"`
}

// JobResult is the polled state of a submitted job.
type JobResult struct {
	Status       int     `json:"status"`
	OutputSubKey string  `json:"output-sub-key"`
	Duration     float64 `json:"duration"`
}

// Client submits jobs to the processing engine and polls their results.
type Client interface {
	SubmitJob(req *JobRequest) (*JobSubmission, error)
	JobResult(jobID string) (*JobResult, error)
}

type invoker interface {
	Invoke(endpoint, region string, body []byte, query url.Values, method string) (*http.Response, error)
}

// Endpoints locates the engine's two operations.
type Endpoints struct {
	Submit string
	Result string
	Region string
}

type client struct {
	inv invoker
	ep  Endpoints
}

// NewClient returns a Client using the provided invoker.
func NewClient(inv *Invoker, ep Endpoints) Client {
	return &client{inv: inv, ep: ep}
}

func decodeResponse(res *http.Response, v interface{}) error {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return common.TransportError{Cause: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		reason := string(data)
		if len(reason) > 512 {
			reason = reason[:512]
		}
		return common.APIError{StatusCode: res.StatusCode, Reason: reason}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return common.APIError{StatusCode: res.StatusCode, Reason: "malformed response body: " + err.Error()}
	}
	return nil
}

func (c *client) SubmitJob(req *JobRequest) (*JobSubmission, error) {
	if req.InputKey == "" {
		return nil, common.ValidationError{Reason: "submission has no input reference"}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	res, err := c.inv.Invoke(c.ep.Submit, c.ep.Region, body, nil, http.MethodPost)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var sub JobSubmission
	if err := decodeResponse(res, &sub); err != nil {
		return nil, errors.Trace(err)
	}
	if sub.CleaningJobID == "" {
		return nil, common.APIError{Reason: "submission response missing cleaning-job-id"}
	}
	if req.Transcribe && sub.TranscriptionJobID == "" {
		return nil, common.APIError{Reason: "submission response missing transcription-job-id"}
	}
	return &sub, nil
}

func (c *client) JobResult(jobID string) (*JobResult, error) {
	if jobID == "" {
		return nil, common.ValidationError{Reason: "empty job id"}
	}
	res, err := c.inv.Invoke(c.ep.Result, c.ep.Region, nil, url.Values{"id": []string{jobID}}, http.MethodGet)
	if err != nil {
		return nil, errors.Trace(err)
	}
	var jr JobResult
	if err := decodeResponse(res, &jr); err != nil {
		return nil, errors.Trace(err)
	}
	switch jr.Status {
	case common.JobStatusFailed, common.JobStatusNotStarted, common.JobStatusInProgress, common.JobStatusCompleted:
	default:
		return nil, common.APIError{Reason: "unknown job status " + strconv.Itoa(jr.Status)}
	}
	return &jr, nil
}
