package app_worker

import (
	"encoding/json"
	"net/http"

	"github.com/talkarchive/backend/api"
	"github.com/talkarchive/backend/common"
	"github.com/talkarchive/backend/jobs"
	"github.com/talkarchive/backend/libs/errors"
	"github.com/talkarchive/backend/libs/golog"
)

// announceRequest is the engine's completion callback payload.
type announceRequest struct {
	JobID string `json:"job-id"`
}

type announceResponse struct {
	Outcome string `json:"outcome"`
}

// AnnounceHandler receives the engine's job-completion callbacks and
// reconciles the announced job immediately instead of waiting for the
// next sweep.
type AnnounceHandler struct {
	dataAPI    api.DataAPI
	reconciler *jobs.Reconciler
}

// NewAnnounceHandler returns the callback handler.
func NewAnnounceHandler(dataAPI api.DataAPI, reconciler *jobs.Reconciler) *AnnounceHandler {
	return &AnnounceHandler{dataAPI: dataAPI, reconciler: reconciler}
}

func (h *AnnounceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req announceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	rec, err := h.dataAPI.RecordingByJobID(req.JobID)
	if errors.Cause(err) == api.ErrNotFound {
		http.Error(w, "unknown job id", http.StatusNotFound)
		return
	} else if err != nil {
		golog.Errorf("Unable to look up recording for announced job %s: %s", req.JobID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	jt := common.JobCleaning
	if rec.TranscriptionJobID != nil && *rec.TranscriptionJobID == req.JobID {
		jt = common.JobTranscription
	}

	outcome, err := h.reconciler.Reconcile(rec, jt)
	if err != nil {
		golog.Errorf("Unable to reconcile announced job %s: %s", req.JobID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(announceResponse{Outcome: outcome.String()}); err != nil {
		golog.Errorf("Unable to write announce response: %s", err)
	}
}
