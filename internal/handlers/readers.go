package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/tagwatch/tagwatchgo/internal/models"
	"github.com/tagwatch/tagwatchgo/internal/presence"
	ws "github.com/tagwatch/tagwatchgo/internal/websocket"
)

// listReaders returns all registered readers
func (r *Router) listReaders(w http.ResponseWriter, req *http.Request) {
	readers, err := r.reg.ListReaders(req.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch readers")
		return
	}
	respondJSON(w, http.StatusOK, readers)
}

// createReader registers a new reader
func (r *Router) createReader(w http.ResponseWriter, req *http.Request) {
	var reader models.Reader
	if err := json.NewDecoder(req.Body).Decode(&reader); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := r.reg.CreateReader(req.Context(), &reader); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create reader")
		return
	}
	respondJSON(w, http.StatusCreated, reader)
}

// getReader returns a single reader
func (r *Router) getReader(w http.ResponseWriter, req *http.Request) {
	reader, err := r.reg.GetReader(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reader")
		return
	}
	if reader == nil {
		respondError(w, http.StatusNotFound, "Reader not found")
		return
	}
	respondJSON(w, http.StatusOK, reader)
}

// deleteReader removes a reader
func (r *Router) deleteReader(w http.ResponseWriter, req *http.Request) {
	err := r.reg.DeleteReader(req.Context(), mux.Vars(req)["id"])
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(w, http.StatusNotFound, "Reader not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete reader")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// readerPresence returns a one-shot snapshot of the devices currently
// at a reader, the same view a live session would emit.
func (r *Router) readerPresence(w http.ResponseWriter, req *http.Request) {
	reader, err := r.reg.GetReader(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reader")
		return
	}
	if reader == nil {
		respondError(w, http.StatusNotFound, "Reader not found")
		return
	}

	now := time.Now()
	coarse := time.Minute
	if r.presence.Window > coarse {
		coarse = r.presence.Window
	}
	records, err := r.reg.ListDetections(req.Context(), reader.ID, now.Add(-coarse))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch detections")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"reader":  reader,
		"devices": presence.Compute(records, now, r.presence.Window),
	})
}

// serveReaderWs upgrades to a websocket streaming the reader's live view
func (r *Router) serveReaderWs(w http.ResponseWriter, req *http.Request) {
	reader, err := r.reg.GetReader(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch reader")
		return
	}
	if reader == nil {
		respondError(w, http.StatusNotFound, "Reader not found")
		return
	}

	ws.ServeWs(r.hub, ws.SessionConfig{
		Fetcher:  r.reg,
		Bus:      r.bus,
		Window:   r.presence.Window,
		Interval: r.presence.RecomputeInterval,
	}, *reader, w, req)
}
