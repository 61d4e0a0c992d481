// Package apiclient implements api.DataAPI over the archive
// application's internal HTTP API. The processing service runs as a
// separate process and reads and writes recordings through these
// endpoints.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/libs/errors"
)

// Client talks to the archive's internal recording API.
type Client struct {
	// BaseURL is the root of the internal API, without a trailing slash.
	BaseURL string
	// AuthToken, when set, is sent on every request.
	AuthToken string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

var _ api.DataAPI = &Client{}

func (c *Client) do(method, path string, params url.Values, req, res interface{}) error {
	var body io.Reader
	if req != nil {
		b := &bytes.Buffer{}
		if err := json.NewEncoder(b).Encode(req); err != nil {
			return errors.Trace(err)
		}
		body = b
	}

	u := c.BaseURL + path
	if len(params) != 0 {
		u += "?" + params.Encode()
	}
	httpReq, err := http.NewRequest(method, u, body)
	if err != nil {
		return errors.Trace(err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.AuthToken != "" {
		httpReq.Header.Set("Authorization", "token "+c.AuthToken)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	httpRes, err := client.Do(httpReq)
	if err != nil {
		return common.TransportError{Cause: errors.Trace(err)}
	}
	defer httpRes.Body.Close()

	switch {
	case httpRes.StatusCode == http.StatusNotFound:
		return errors.Trace(api.ErrNotFound)
	case httpRes.StatusCode < 200 || httpRes.StatusCode > 299:
		return common.APIError{
			StatusCode: httpRes.StatusCode,
			Reason:     fmt.Sprintf("%s %s", method, path),
		}
	}
	if res != nil {
		if err := json.NewDecoder(httpRes.Body).Decode(res); err != nil {
			return common.APIError{Reason: "malformed response body: " + err.Error()}
		}
	}
	return nil
}

func (c *Client) Recording(id int64) (*common.Recording, error) {
	rec := &common.Recording{}
	if err := c.do("GET", "/recordings/"+strconv.FormatInt(id, 10), nil, nil, rec); err != nil {
		return nil, errors.Trace(err)
	}
	return rec, nil
}

func (c *Client) UpdateRecording(id int64, update *api.RecordingUpdate) error {
	return errors.Trace(c.do("PATCH", "/recordings/"+strconv.FormatInt(id, 10), nil, update, nil))
}

func (c *Client) RecordingsWithOpenJobs() ([]*common.Recording, error) {
	var recs []*common.Recording
	if err := c.do("GET", "/recordings", url.Values{"open_jobs": []string{"1"}}, nil, &recs); err != nil {
		return nil, errors.Trace(err)
	}
	return recs, nil
}

func (c *Client) RecordingByJobID(jobID string) (*common.Recording, error) {
	rec := &common.Recording{}
	if err := c.do("GET", "/recordings/by-job/"+url.PathEscape(jobID), nil, nil, rec); err != nil {
		return nil, errors.Trace(err)
	}
	return rec, nil
}

func (c *Client) CreateCleanedMedia(info *api.CleanedMediaInfo) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	if err := c.do("POST", "/media", nil, info, &res); err != nil {
		return "", errors.Trace(err)
	}
	return res.ID, nil
}
