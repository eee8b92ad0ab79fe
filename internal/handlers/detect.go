package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tagwatch/tagwatchgo/internal/ingest"
)

// DetectionRequest is the JSON payload pushed by reader firmware
type DetectionRequest struct {
	TagID    string `json:"tagId"`
	ReaderID string `json:"readerId"`
	DateTime string `json:"dateTime,omitempty"` // ISO8601, optional
}

// recordDetection handles POST /api/detections: resolve the tag,
// upsert the ledger, wake the viewers. Unknown tag is a 404 and leaves
// no trace; so does any failure.
func (r *Router) recordDetection(w http.ResponseWriter, req *http.Request) {
	var body DetectionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	tagID := strings.TrimSpace(body.TagID)
	readerID := strings.TrimSpace(body.ReaderID)
	if tagID == "" || readerID == "" {
		respondError(w, http.StatusBadRequest, "tagId and readerId are required")
		return
	}

	at, ok := parseDetectionTime(body.DateTime)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid dateTime")
		return
	}

	err := r.recorder.RecordDetection(req.Context(), tagID, readerID, at)
	if errors.Is(err, ingest.ErrUnknownDevice) {
		respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"message": "Device with tag " + tagID + " not registered",
		})
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// recordDetectionForm handles POST /api/detect, the form-encoded
// legacy route where the caller sends the device's primary id instead
// of its tag code.
func (r *Router) recordDetectionForm(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid form payload")
		return
	}

	deviceID := strings.TrimSpace(req.PostFormValue("deviceId"))
	readerID := strings.TrimSpace(req.PostFormValue("readerId"))
	if deviceID == "" || readerID == "" {
		respondError(w, http.StatusBadRequest, "deviceId and readerId are required")
		return
	}

	at, ok := parseDetectionTime(req.PostFormValue("dateTime"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid dateTime")
		return
	}

	if err := r.recorder.RecordDetectionByDeviceID(req.Context(), deviceID, readerID, at); err != nil {
		respondError(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseDetectionTime returns the zero time for an absent value, which
// tells the ingest service to stamp with the server clock.
func parseDetectionTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}
