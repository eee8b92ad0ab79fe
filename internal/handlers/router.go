package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tagwatch/tagwatchgo/internal/config"
	"github.com/tagwatch/tagwatchgo/internal/registry"
	ws "github.com/tagwatch/tagwatchgo/internal/websocket"
)

// DetectionRecorder is the ingest surface the detection endpoints use.
type DetectionRecorder interface {
	RecordDetection(ctx context.Context, tagID, readerID string, at time.Time) error
	RecordDetectionByDeviceID(ctx context.Context, deviceID, readerID string, at time.Time) error
}

// Subscriber hands live sessions their change-signal subscriptions.
type Subscriber interface {
	Subscribe() (<-chan struct{}, func())
}

// Router wraps the mux router with the services behind the endpoints
type Router struct {
	*mux.Router
	reg      *registry.Registry
	recorder DetectionRecorder
	bus      Subscriber
	hub      *ws.Hub
	presence config.PresenceConfig
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(reg *registry.Registry, recorder DetectionRecorder, bus Subscriber, hub *ws.Hub, presence config.PresenceConfig) *Router {
	r := &Router{
		Router:   mux.NewRouter(),
		reg:      reg,
		recorder: recorder,
		bus:      bus,
		hub:      hub,
		presence: presence,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Detection ingest
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/detections", r.recordDetection).Methods("POST")
	api.HandleFunc("/detect", r.recordDetectionForm).Methods("POST")

	// Device registry
	api.HandleFunc("/devices", r.listDevices).Methods("GET")
	api.HandleFunc("/devices", r.createDevice).Methods("POST")
	api.HandleFunc("/devices/labels", r.printDeviceLabels).Methods("POST")
	api.HandleFunc("/devices/{id}", r.getDevice).Methods("GET")
	api.HandleFunc("/devices/{id}", r.deleteDevice).Methods("DELETE")

	// Reader registry + presence
	api.HandleFunc("/readers", r.listReaders).Methods("GET")
	api.HandleFunc("/readers", r.createReader).Methods("POST")
	api.HandleFunc("/readers/{id}", r.getReader).Methods("GET")
	api.HandleFunc("/readers/{id}", r.deleteReader).Methods("DELETE")
	api.HandleFunc("/readers/{id}/presence", r.readerPresence).Methods("GET")

	// Live reader views
	r.HandleFunc("/ws/readers/{id}", r.serveReaderWs).Methods("GET")

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"viewers": r.hub.Count(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
